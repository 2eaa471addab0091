package overlay

import (
	"log"

	"papermem-capture/src/screen"
)

// Surface is the presentation layer that renders the overlay content. The
// presenter drives it; it never changes state on its own.
type Surface interface {
	Place(bounds screen.Rect) error
	Show() error
	Hide() error
	// SetPassthrough toggles click-through so a hidden overlay never
	// intercepts clicks meant for other applications.
	SetPassthrough(passthrough bool) error
}

// Actions are the user interactions a surface reports back. Callbacks run on
// the surface's own thread and must only hand off to the event loop.
type Actions struct {
	Save    func()
	Dismiss func()
	// Touch is any interaction that should extend visibility, such as hover.
	Touch func()
}

// Interactive surfaces accept action callbacks.
type Interactive interface {
	Surface
	SetActions(Actions)
}

// LogSurface only logs transitions. It is the fallback where no native
// overlay window is available; the host application renders its own content.
type LogSurface struct{}

func (LogSurface) Place(b screen.Rect) error {
	log.Printf("overlay: place at %d,%d %dx%d", b.X, b.Y, b.Width, b.Height)
	return nil
}

func (LogSurface) Show() error {
	log.Printf("overlay: show")
	return nil
}

func (LogSurface) Hide() error {
	log.Printf("overlay: hide")
	return nil
}

func (LogSurface) SetPassthrough(passthrough bool) error { return nil }
