package gesture

import (
	"papermem-capture/src/screen"
)

// DefaultThreshold is the minimum press-to-release distance, in logical
// pixels, for a gesture to count as a drag-select.
const DefaultThreshold = 12.0

type Kind int

const (
	Click Kind = iota
	DragSelect
)

func (k Kind) String() string {
	switch k {
	case Click:
		return "click"
	case DragSelect:
		return "drag-select"
	default:
		return "unknown"
	}
}

// Result is the classification of one press/release pair.
type Result struct {
	Kind     Kind
	Origin   screen.Point
	Release  screen.Point
	Distance float64
}

// Classify compares the release distance against threshold.
func Classify(origin, release screen.Point, threshold float64) Result {
	d := screen.Distance(origin, release)
	kind := Click
	if d >= threshold {
		kind = DragSelect
	}
	return Result{Kind: kind, Origin: origin, Release: release, Distance: d}
}

// DownOutcome tells the caller how a press was interpreted.
type DownOutcome struct {
	// Dismiss is set when the overlay was visible and the press landed outside it.
	Dismiss bool
	// OnOverlay is set when the press landed on the visible overlay. No
	// gesture is tracked for it.
	OnOverlay bool
	// Tracked is set when the press was recorded as a new gesture origin.
	Tracked bool
}

// Tracker pairs each press with the next release.
type Tracker struct {
	threshold float64
	origin    *screen.Point
}

func NewTracker(threshold float64) *Tracker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Tracker{threshold: threshold}
}

func (t *Tracker) SetThreshold(threshold float64) {
	if threshold > 0 {
		t.threshold = threshold
	}
}

func (t *Tracker) Threshold() float64 { return t.threshold }

// Down records a press. overlayBounds is only consulted while overlayVisible.
func (t *Tracker) Down(p screen.Point, overlayVisible bool, overlayBounds screen.Rect) DownOutcome {
	if overlayVisible {
		if overlayBounds.Contains(p) {
			t.origin = nil
			return DownOutcome{OnOverlay: true}
		}
		t.origin = &p
		return DownOutcome{Dismiss: true, Tracked: true}
	}
	t.origin = &p
	return DownOutcome{Tracked: true}
}

// Up completes the pending gesture. It reports false when no press is pending.
func (t *Tracker) Up(p screen.Point) (Result, bool) {
	if t.origin == nil {
		return Result{}, false
	}
	origin := *t.origin
	t.origin = nil
	return Classify(origin, p, t.threshold), true
}

// Pending reports whether a press is waiting for its release.
func (t *Tracker) Pending() bool { return t.origin != nil }
