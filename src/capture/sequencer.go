// Package capture runs the copy → wait → read clipboard sequence that turns a
// drag-select gesture into captured text.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"papermem-capture/src/automation"
	"papermem-capture/src/screen"
	"papermem-capture/src/selection"
)

const (
	DefaultSettle   = 50 * time.Millisecond
	DefaultGrace    = 120 * time.Millisecond
	DefaultMinChars = 4
)

// ErrClipboardTooShort means the clipboard held no usable selection.
var ErrClipboardTooShort = errors.New("clipboard empty or too short")

// ClipboardReader reads the system clipboard's text.
type ClipboardReader interface {
	ReadText() (string, error)
}

// Settings are the empirical timings of the sequence.
type Settings struct {
	// Settle is waited before the copy command so the foreign application
	// finishes handling its own mouse-up.
	Settle time.Duration
	// Grace is waited between the copy command and the clipboard read.
	Grace    time.Duration
	MinChars int
}

func DefaultSettings() Settings {
	return Settings{Settle: DefaultSettle, Grace: DefaultGrace, MinChars: DefaultMinChars}
}

// Request describes one capture, scoped to the token current when it started.
type Request struct {
	Token    uint64
	Release  screen.Point
	Settings Settings
}

// Outcome is posted back to the event loop. Err is nil on success.
type Outcome struct {
	Token     uint64
	Release   screen.Point
	Selection selection.Captured
	Err       error
}

// Sequencer performs capture requests. It never touches engine state; the
// event loop decides whether an outcome is still current.
type Sequencer struct {
	copier automation.Copier
	clip   ClipboardReader
	now    func() time.Time
}

func NewSequencer(copier automation.Copier, clip ClipboardReader) *Sequencer {
	return &Sequencer{copier: copier, clip: clip, now: time.Now}
}

// Capture runs the sequence. It returns early with ctx's error when ctx ends.
func (s *Sequencer) Capture(ctx context.Context, req Request) Outcome {
	out := Outcome{Token: req.Token, Release: req.Release}

	if err := wait(ctx, req.Settings.Settle); err != nil {
		out.Err = err
		return out
	}
	if err := s.copier.CopySelection(); err != nil {
		out.Err = err
		return out
	}
	if err := wait(ctx, req.Settings.Grace); err != nil {
		out.Err = err
		return out
	}
	raw, err := s.clip.ReadText()
	if err != nil {
		out.Err = fmt.Errorf("read clipboard: %w", err)
		return out
	}
	text, err := Validate(raw, req.Settings.MinChars)
	if err != nil {
		out.Err = err
		return out
	}
	out.Selection = selection.New(text, s.now())
	return out
}

// Validate trims raw and requires at least minChars characters.
func Validate(raw string, minChars int) (string, error) {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	text := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(text); n < minChars {
		return "", fmt.Errorf("%w: %d of %d characters", ErrClipboardTooShort, n, minChars)
	}
	return text, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
