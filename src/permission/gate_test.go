package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		name   string
		gate   *Static
		status Status
		want   bool
	}{
		{"granted enforced", &Static{Enforce: true}, Granted, true},
		{"denied enforced", &Static{Enforce: true}, Denied, false},
		{"not granted enforced", &Static{Enforce: true}, NotGranted, false},
		{"denied advisory", &Static{Enforce: false}, Denied, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.gate, tt.status))
		})
	}
}

func TestStaticRequestCountsPrompts(t *testing.T) {
	g := &Static{Status: NotGranted, Enforce: true}
	assert.Equal(t, NotGranted, g.Check())
	assert.Equal(t, Denied, g.RequestIfNeeded())
	assert.Equal(t, 1, g.Requests)

	ok := &Static{Status: Granted}
	assert.Equal(t, Granted, ok.RequestIfNeeded())
	assert.Equal(t, 0, ok.Requests)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "granted", Granted.String())
	assert.Equal(t, "not granted", NotGranted.String())
	assert.Equal(t, "denied", Denied.String())
}

func TestPlatformGateCheckDoesNotPrompt(t *testing.T) {
	g := New()
	s := g.Check()
	t.Logf("platform gate: status=%s enforced=%v", s, g.Enforced())
	if s != Granted {
		assert.NotEmpty(t, g.Advice())
	}
}
