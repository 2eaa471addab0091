package clipboard

import (
	"errors"
	"sync"

	"golang.design/x/clipboard"
)

// ErrNotInitialized is returned when Init has not succeeded.
var ErrNotInitialized = errors.New("clipboard not initialized")

var (
	mu    sync.Mutex
	ready bool
)

// Init must succeed before any read or write.
func Init() error {
	mu.Lock()
	defer mu.Unlock()
	if ready {
		return nil
	}
	if err := clipboard.Init(); err != nil {
		return err
	}
	ready = true
	return nil
}

// ReadText returns the clipboard's text content. A clipboard without text
// yields an empty string.
func ReadText() (string, error) {
	mu.Lock()
	defer mu.Unlock()
	if !ready {
		return "", ErrNotInitialized
	}
	return string(clipboard.Read(clipboard.FmtText)), nil
}

// System adapts the package functions to the reader interface used by the
// capture sequencer.
type System struct{}

func (System) ReadText() (string, error) { return ReadText() }
