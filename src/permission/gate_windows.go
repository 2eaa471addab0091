//go:build windows

package permission

import (
	"log"

	"golang.org/x/sys/windows"
)

// elevationGate reports whether the process runs elevated. Low-level hooks
// cannot observe elevated windows from a non-elevated process, and a process
// cannot elevate itself, so the result is advisory only.
type elevationGate struct{}

func newPlatformGate() Gate { return elevationGate{} }

func (elevationGate) Check() Status {
	if windows.GetCurrentProcessToken().IsElevated() {
		return Granted
	}
	return NotGranted
}

func (g elevationGate) RequestIfNeeded() Status {
	if g.Check() == Granted {
		return Granted
	}
	log.Printf("permission: %s", g.Advice())
	return Denied
}

func (elevationGate) Enforced() bool { return false }

func (elevationGate) Advice() string {
	return "Run as administrator to capture selections from elevated applications"
}
