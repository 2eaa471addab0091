package inputbridge

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
	"golang.org/x/time/rate"

	"papermem-capture/src/screen"
)

// DefaultCapacity bounds the queue between the hook goroutine and the event loop.
const DefaultCapacity = 64

// primaryButton is libuiohook's MOUSE_BUTTON1.
const primaryButton = 1

// ErrPermissionDenied is returned when the OS refuses global input observation.
var ErrPermissionDenied = errors.New("global input observation not permitted")

// PermissionError describes why the hook could not be installed.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%v: %s", ErrPermissionDenied, e.Reason)
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

type Kind int

const (
	Down Kind = iota
	Up
)

func (k Kind) String() string {
	if k == Down {
		return "down"
	}
	return "up"
}

// PointerSample is one normalized primary-button transition.
type PointerSample struct {
	Kind  Kind
	Point screen.Point
	At    time.Time
}

// Hook is the OS-global event source.
type Hook interface {
	Start() chan hook.Event
	End()
}

type gohookSource struct{}

func (gohookSource) Start() chan hook.Event { return hook.Start() }
func (gohookSource) End()                   { hook.End() }

// Bridge forwards OS pointer events into a bounded channel. The forwarding
// goroutine never blocks: when the channel is full the sample is dropped.
type Bridge struct {
	hook  Hook
	out   chan PointerSample
	drops rate.Sometimes

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// New returns a bridge over the gohook global hook.
func New() *Bridge { return NewWithHook(gohookSource{}, DefaultCapacity) }

// NewWithHook returns a bridge over h with a queue of the given capacity.
func NewWithHook(h Hook, capacity int) *Bridge {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bridge{
		hook:  h,
		out:   make(chan PointerSample, capacity),
		drops: rate.Sometimes{Interval: 5 * time.Second},
	}
}

// Events is the channel consumed by the event loop. It is never closed.
func (b *Bridge) Events() <-chan PointerSample { return b.out }

func (b *Bridge) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Start installs the global hook. Calling Start on a running bridge is a no-op.
func (b *Bridge) Start() (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("inputbridge: PANIC while starting hook: %v", r)
			err = &PermissionError{Reason: fmt.Sprint(r)}
		}
	}()

	evChan := b.hook.Start()
	if evChan == nil {
		return &PermissionError{Reason: "hook returned no event channel"}
	}

	b.running = true
	b.done = make(chan struct{})
	go b.forward(evChan, b.done)
	log.Printf("inputbridge: global pointer hook started")
	return nil
}

// Stop removes the global hook. It is safe to call repeatedly.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	close(b.done)
	b.mu.Unlock()

	b.hook.End()
	log.Printf("inputbridge: global pointer hook stopped")
}

func (b *Bridge) forward(evChan chan hook.Event, done chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in inputbridge goroutine: %v", r)
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-evChan:
			if !ok {
				b.markStopped(done, "event channel closed")
				return
			}
			if ev.Kind == hook.HookDisabled {
				b.markStopped(done, "hook disabled by OS")
				return
			}
			sample, ok := normalize(ev)
			if !ok {
				continue
			}
			select {
			case b.out <- sample:
			default:
				b.drops.Do(func() {
					log.Printf("inputbridge: event queue full, dropping %s at %d,%d", sample.Kind, sample.Point.X, sample.Point.Y)
				})
			}
		}
	}
}

func (b *Bridge) markStopped(done chan struct{}, why string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running && b.done == done {
		b.running = false
		close(b.done)
		log.Printf("inputbridge: %s", why)
	}
}

// normalize maps a gohook event to a sample. gohook names follow libuiohook's
// numbering: MouseHold is the press and MouseDown the release.
func normalize(ev hook.Event) (PointerSample, bool) {
	if ev.Button != primaryButton {
		return PointerSample{}, false
	}
	var kind Kind
	switch ev.Kind {
	case hook.MouseHold:
		kind = Down
	case hook.MouseDown:
		kind = Up
	default:
		return PointerSample{}, false
	}
	return PointerSample{
		Kind:  kind,
		Point: screen.Point{X: int(ev.X), Y: int(ev.Y)},
		At:    time.Now(),
	}, true
}
