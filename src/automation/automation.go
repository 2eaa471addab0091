// Package automation issues the OS "copy selection" command to the focused
// foreign application.
package automation

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/go-vgo/robotgo"
)

// ErrAutomationUnavailable is returned when the copy command cannot be issued.
var ErrAutomationUnavailable = errors.New("copy automation unavailable")

// Copier triggers a copy of the current selection in the focused application.
type Copier interface {
	CopySelection() error
}

// Noop is used where no automation path exists.
type Noop struct {
	Reason string
}

func (n Noop) CopySelection() error {
	return fmt.Errorf("%w: %s", ErrAutomationUnavailable, n.Reason)
}

// KeyTapper simulates the copy shortcut with robotgo.
type KeyTapper struct {
	Modifier string
	tap      func(key string, args ...interface{}) error
}

func (k KeyTapper) CopySelection() error {
	tap := k.tap
	if tap == nil {
		tap = robotgo.KeyTap
	}
	if err := tap("c", k.Modifier); err != nil {
		return fmt.Errorf("%w: key tap %s+c: %v", ErrAutomationUnavailable, k.Modifier, err)
	}
	return nil
}

// New selects the copier for the running OS and session.
func New() Copier {
	return forPlatform(runtime.GOOS, os.Getenv)
}

func forPlatform(goos string, getenv func(string) string) Copier {
	switch goos {
	case "darwin":
		return KeyTapper{Modifier: "cmd"}
	case "windows":
		return KeyTapper{Modifier: "ctrl"}
	case "linux", "freebsd", "openbsd", "netbsd":
		if strings.EqualFold(getenv("XDG_SESSION_TYPE"), "wayland") {
			return Noop{Reason: "synthetic input is not available under Wayland"}
		}
		if getenv("DISPLAY") == "" {
			return Noop{Reason: "no X11 display"}
		}
		return KeyTapper{Modifier: "ctrl"}
	default:
		return Noop{Reason: "unsupported platform " + goos}
	}
}
