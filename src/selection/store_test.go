package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSingleSlot(t *testing.T) {
	s := NewStore()
	_, ok := s.Get()
	assert.False(t, ok)

	first := New("first selection", time.Now())
	second := New("second selection", time.Now())
	require.NotEqual(t, first.ID, second.ID)

	s.Set(first)
	s.Set(second)
	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, "second selection", got.Text)

	s.Clear()
	_, ok = s.Get()
	assert.False(t, ok)
}

func TestStoreClearIf(t *testing.T) {
	s := NewStore()
	old := New("old text", time.Now())
	s.Set(old)
	newer := New("newer text", time.Now())
	s.Set(newer)

	assert.False(t, s.ClearIf(old.ID), "must not clear a superseding capture")
	got, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, newer.ID, got.ID)

	assert.True(t, s.ClearIf(newer.ID))
	_, ok = s.Get()
	assert.False(t, ok)
	assert.False(t, s.ClearIf(newer.ID))
}

func TestStoreActiveProject(t *testing.T) {
	s := NewStore()
	_, ok := s.ActiveProject()
	assert.False(t, ok)

	s.SetActiveProject("proj-42")
	id, ok := s.ActiveProject()
	assert.True(t, ok)
	assert.Equal(t, "proj-42", id)

	s.SetActiveProject("")
	_, ok = s.ActiveProject()
	assert.False(t, ok)
}

func TestStoreTokensAreMonotonic(t *testing.T) {
	s := NewStore()
	assert.Equal(t, uint64(0), s.Token())
	a := s.Advance()
	b := s.Advance()
	assert.Less(t, a, b)
	assert.Equal(t, b, s.Token())
}
