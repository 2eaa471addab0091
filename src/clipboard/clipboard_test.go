package clipboard

import (
	"errors"
	"testing"
)

func TestReadBeforeInitFails(t *testing.T) {
	mu.Lock()
	prev := ready
	ready = false
	mu.Unlock()
	defer func() {
		mu.Lock()
		ready = prev
		mu.Unlock()
	}()

	if _, err := (System{}).ReadText(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Expected ErrNotInitialized, got %v", err)
	}
}

func TestReadAfterInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Skipf("clipboard unavailable (expected in headless environment): %v", err)
	}
	if _, err := (System{}).ReadText(); err != nil {
		t.Fatalf("ReadText failed: %v", err)
	}
}
