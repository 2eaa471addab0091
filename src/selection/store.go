// Package selection holds the engine's single-slot selection state.
//
// A Store has exactly one writer, the event loop goroutine, and takes no
// locks. Other goroutines reach it only through closures posted to the loop.
package selection

import (
	"time"

	"github.com/google/uuid"
)

// Captured is text captured from a foreign application's selection.
type Captured struct {
	ID         string
	Text       string
	CapturedAt time.Time
}

// New builds a Captured with a fresh ID.
func New(text string, at time.Time) Captured {
	return Captured{ID: uuid.NewString(), Text: text, CapturedAt: at}
}

// Store keeps the most recent capture, the host's active project and the
// monotonically increasing sequence token.
type Store struct {
	current *Captured
	project string
	token   uint64
}

func NewStore() *Store { return &Store{} }

// Set replaces any previous capture.
func (s *Store) Set(c Captured) {
	s.current = &c
}

func (s *Store) Clear() {
	s.current = nil
}

// ClearIf clears the store only when it still holds the capture with id.
func (s *Store) ClearIf(id string) bool {
	if s.current == nil || s.current.ID != id {
		return false
	}
	s.current = nil
	return true
}

func (s *Store) Get() (Captured, bool) {
	if s.current == nil {
		return Captured{}, false
	}
	return *s.current, true
}

func (s *Store) SetActiveProject(id string) {
	s.project = id
}

func (s *Store) ActiveProject() (string, bool) {
	return s.project, s.project != ""
}

// Advance invalidates every token handed out so far and returns the new one.
func (s *Store) Advance() uint64 {
	s.token++
	return s.token
}

// Token returns the current sequence token.
func (s *Store) Token() uint64 { return s.token }
