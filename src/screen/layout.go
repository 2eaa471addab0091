package screen

import (
	"errors"
	"fmt"
)

// Monitor describes one display. WorkArea excludes OS-reserved regions such
// as taskbars and menu bars.
type Monitor struct {
	Bounds   Rect
	WorkArea Rect
}

// ErrNoDisplays is returned when no active display can be enumerated.
var ErrNoDisplays = errors.New("no active displays found")

// Layout enumerates the current monitor configuration.
type Layout interface {
	Monitors() ([]Monitor, error)
}

// Static is a fixed monitor configuration.
type Static []Monitor

func (s Static) Monitors() ([]Monitor, error) {
	if len(s) == 0 {
		return nil, ErrNoDisplays
	}
	return s, nil
}

// NewLayout returns the platform implementation.
func NewLayout() Layout { return newPlatformLayout() }

// Nearest returns the monitor whose work area contains p, or else the one
// whose work area is closest to p.
func Nearest(monitors []Monitor, p Point) (Monitor, bool) {
	if len(monitors) == 0 {
		return Monitor{}, false
	}
	best := -1
	bestDist := 0
	for i, m := range monitors {
		if m.WorkArea.Empty() {
			continue
		}
		d := m.WorkArea.distanceSq(p)
		if d == 0 {
			return m, true
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Monitor{}, false
	}
	return monitors[best], true
}

// WorkAreaAt resolves the work area of the monitor nearest p.
func WorkAreaAt(l Layout, p Point) (Rect, error) {
	monitors, err := l.Monitors()
	if err != nil {
		return Rect{}, err
	}
	m, ok := Nearest(monitors, p)
	if !ok {
		return Rect{}, fmt.Errorf("no usable work area near %d,%d: %w", p.X, p.Y, ErrNoDisplays)
	}
	return m.WorkArea, nil
}
