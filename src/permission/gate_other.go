//go:build !darwin && !windows

package permission

import (
	"log"
	"os"
	"strings"
)

// sessionGate has nothing to grant under X11. Wayland compositors do not
// expose global pointer events to clients, which is reported as advice.
type sessionGate struct {
	sessionType string
}

func newPlatformGate() Gate {
	return sessionGate{sessionType: strings.ToLower(os.Getenv("XDG_SESSION_TYPE"))}
}

func (g sessionGate) Check() Status {
	if g.sessionType == "wayland" {
		return NotGranted
	}
	return Granted
}

func (g sessionGate) RequestIfNeeded() Status {
	if g.Check() == Granted {
		return Granted
	}
	log.Printf("permission: %s", g.Advice())
	return Denied
}

func (sessionGate) Enforced() bool { return false }

func (sessionGate) Advice() string {
	return "Global selection capture needs an X11 session (XWayland applications only under Wayland)"
}
