//go:build !windows

package screen

import (
	"runtime"

	"github.com/kbinani/screenshot"
)

// Insets are reserved edges subtracted from display bounds where the OS does
// not report a work area through the display API.
type Insets struct {
	Top, Bottom, Left, Right int
}

// displayLayout enumerates displays through kbinani/screenshot.
type displayLayout struct {
	insets Insets
}

func newPlatformLayout() Layout {
	in := Insets{}
	if runtime.GOOS == "darwin" {
		// menu bar
		in.Top = 25
	}
	return &displayLayout{insets: in}
}

func (d *displayLayout) Monitors() ([]Monitor, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, ErrNoDisplays
	}
	monitors := make([]Monitor, 0, n)
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		bounds := Rect{X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()}
		monitors = append(monitors, Monitor{Bounds: bounds, WorkArea: d.insets.apply(bounds)})
	}
	return monitors, nil
}

func (in Insets) apply(r Rect) Rect {
	w := Rect{
		X:      r.X + in.Left,
		Y:      r.Y + in.Top,
		Width:  r.Width - in.Left - in.Right,
		Height: r.Height - in.Top - in.Bottom,
	}
	if w.Empty() {
		return r
	}
	return w
}
