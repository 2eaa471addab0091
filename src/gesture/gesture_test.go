package gesture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papermem-capture/src/screen"
)

func TestClassify(t *testing.T) {
	origin := screen.Point{X: 100, Y: 100}
	tests := []struct {
		name    string
		release screen.Point
		want    Kind
	}{
		{"same point", screen.Point{X: 100, Y: 100}, Click},
		{"jitter", screen.Point{X: 103, Y: 98}, Click},
		{"just under", screen.Point{X: 108, Y: 108}, Click}, // ~11.31
		{"exactly threshold", screen.Point{X: 112, Y: 100}, DragSelect},
		{"diagonal drag", screen.Point{X: 109, Y: 109}, DragSelect}, // ~12.73
		{"long drag left", screen.Point{X: 10, Y: 100}, DragSelect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Classify(origin, tt.release, DefaultThreshold)
			assert.Equal(t, tt.want, r.Kind)
			assert.Equal(t, origin, r.Origin)
			assert.Equal(t, tt.release, r.Release)
		})
	}
}

func TestClassifyProperty(t *testing.T) {
	origin := screen.Point{X: 500, Y: 500}
	for dx := -20; dx <= 20; dx++ {
		for dy := -20; dy <= 20; dy++ {
			r := Classify(origin, screen.Point{X: 500 + dx, Y: 500 + dy}, DefaultThreshold)
			d := math.Hypot(float64(dx), float64(dy))
			if d < DefaultThreshold {
				require.Equal(t, Click, r.Kind, "dx=%d dy=%d", dx, dy)
			} else {
				require.Equal(t, DragSelect, r.Kind, "dx=%d dy=%d", dx, dy)
			}
		}
	}
}

func TestTrackerPairsDownAndUp(t *testing.T) {
	tr := NewTracker(0)
	assert.Equal(t, DefaultThreshold, tr.Threshold())

	_, ok := tr.Up(screen.Point{X: 1, Y: 1})
	assert.False(t, ok, "release without press is ignored")

	out := tr.Down(screen.Point{X: 10, Y: 10}, false, screen.Rect{})
	assert.Equal(t, DownOutcome{Tracked: true}, out)
	assert.True(t, tr.Pending())

	r, ok := tr.Up(screen.Point{X: 60, Y: 10})
	require.True(t, ok)
	assert.Equal(t, DragSelect, r.Kind)
	assert.False(t, tr.Pending())

	_, ok = tr.Up(screen.Point{X: 60, Y: 10})
	assert.False(t, ok, "second release has no origin")
}

func TestTrackerOverlayInteraction(t *testing.T) {
	tr := NewTracker(DefaultThreshold)
	overlay := screen.Rect{X: 835, Y: 434, Width: 70, Height: 32}

	out := tr.Down(screen.Point{X: 850, Y: 440}, true, overlay)
	assert.True(t, out.OnOverlay)
	assert.False(t, out.Dismiss)
	assert.False(t, out.Tracked)
	_, ok := tr.Up(screen.Point{X: 900, Y: 460})
	assert.False(t, ok, "press on overlay must not start a gesture")

	out = tr.Down(screen.Point{X: 100, Y: 100}, true, overlay)
	assert.True(t, out.Dismiss)
	assert.True(t, out.Tracked)
	r, ok := tr.Up(screen.Point{X: 200, Y: 100})
	require.True(t, ok)
	assert.Equal(t, DragSelect, r.Kind)
}

func TestTrackerSetThreshold(t *testing.T) {
	tr := NewTracker(DefaultThreshold)
	tr.SetThreshold(30)
	tr.Down(screen.Point{}, false, screen.Rect{})
	r, _ := tr.Up(screen.Point{X: 20})
	assert.Equal(t, Click, r.Kind)

	tr.SetThreshold(-1)
	assert.Equal(t, 30.0, tr.Threshold())
}
