package overlay

import (
	"testing"
	"time"

	"papermem-capture/src/screen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSurface struct {
	calls       []string
	bounds      screen.Rect
	visible     bool
	passthrough bool
}

func (r *recordingSurface) Place(b screen.Rect) error {
	r.calls = append(r.calls, "place")
	r.bounds = b
	return nil
}

func (r *recordingSurface) Show() error {
	r.calls = append(r.calls, "show")
	r.visible = true
	return nil
}

func (r *recordingSurface) Hide() error {
	r.calls = append(r.calls, "hide")
	r.visible = false
	return nil
}

func (r *recordingSurface) SetPassthrough(p bool) error {
	r.passthrough = p
	return nil
}

type counter struct{ n uint64 }

func (c *counter) Advance() uint64 {
	c.n++
	return c.n
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct{ timers []*fakeTimer }

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) last() *fakeTimer { return s.timers[len(s.timers)-1] }

type fixture struct {
	p       *Presenter
	surface *recordingSurface
	sched   *fakeScheduler
	now     time.Time
	expired []uint64
	hidden  []bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		surface: &recordingSurface{},
		sched:   &fakeScheduler{},
		now:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.p = NewPresenter(Config{
		Surface: f.surface,
		Layout: screen.Static{{
			Bounds:   screen.Rect{Width: 1920, Height: 1080},
			WorkArea: screen.Rect{Width: 1920, Height: 1040},
		}},
		Tokens:    &counter{},
		Scheduler: f.sched,
		Now:       func() time.Time { return f.now },
		Expire:    func(tok uint64) { f.expired = append(f.expired, tok) },
		OnHidden:  func(clear bool) { f.hidden = append(f.hidden, clear) },
	})
	return f
}

func TestNewPresenterStartsHiddenAndPassthrough(t *testing.T) {
	f := newFixture(t)
	st := f.p.State()
	assert.False(t, st.Visible)
	assert.True(t, st.Passthrough)
	assert.True(t, f.surface.passthrough)
}

func TestShowAtPlacesRightOfAnchor(t *testing.T) {
	f := newFixture(t)
	f.p.ShowAt(screen.Point{X: 800, Y: 450})

	st := f.p.State()
	require.True(t, st.Visible)
	assert.Equal(t, screen.Rect{X: 835, Y: 434, Width: 70, Height: 32}, st.Bounds)
	assert.Equal(t, st.Bounds, f.surface.bounds)
	assert.False(t, st.Passthrough)
	assert.False(t, f.surface.passthrough)
	assert.True(t, f.surface.visible)
	assert.Equal(t, f.now.Add(DefaultAutoHide), st.Deadline)
}

func TestShowAtClampsIntoWorkArea(t *testing.T) {
	f := newFixture(t)
	f.p.ShowAt(screen.Point{X: 1910, Y: 5})
	b := f.p.State().Bounds
	assert.Equal(t, 1920-70, b.X)
	assert.Equal(t, 0, b.Y)

	f.p.ShowAt(screen.Point{X: 10, Y: 1079})
	b = f.p.State().Bounds
	assert.Equal(t, 45, b.X)
	assert.Equal(t, 1040-32, b.Y)
}

func TestShowAtWithoutDisplaysStillShows(t *testing.T) {
	f := newFixture(t)
	f.p.layout = screen.Static{}
	f.p.ShowAt(screen.Point{X: 100, Y: 100})
	assert.True(t, f.p.State().Visible)
	assert.Equal(t, screen.Rect{X: 135, Y: 84, Width: 70, Height: 32}, f.p.State().Bounds)
}

func TestHideIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.p.Hide()
	assert.Empty(t, f.hidden)

	f.p.ShowAt(screen.Point{X: 10, Y: 10})
	f.p.Hide()
	f.p.Hide()
	assert.Equal(t, []bool{true}, f.hidden)
	assert.False(t, f.p.State().Visible)
	assert.True(t, f.p.State().Passthrough)
	assert.True(t, f.surface.passthrough)
	assert.True(t, f.sched.last().stopped)
}

func TestHideRetainingReportsNoClear(t *testing.T) {
	f := newFixture(t)
	f.p.ShowAt(screen.Point{X: 10, Y: 10})
	f.p.HideRetaining()
	assert.Equal(t, []bool{false}, f.hidden)
}

func TestAutoHideFiresWithArmedToken(t *testing.T) {
	f := newFixture(t)
	f.p.ShowAt(screen.Point{X: 10, Y: 10})
	tm := f.sched.last()
	assert.Equal(t, DefaultAutoHide, tm.d)

	tm.f()
	require.Len(t, f.expired, 1)
	tok := f.expired[0]
	assert.Equal(t, f.p.State().Token, tok)

	f.now = f.now.Add(DefaultAutoHide)
	assert.True(t, f.p.Expire(tok))
	assert.False(t, f.p.State().Visible)
	assert.Equal(t, []bool{true}, f.hidden)
}

func TestExpireNotBeforeDeadline(t *testing.T) {
	f := newFixture(t)
	f.p.ShowAt(screen.Point{X: 10, Y: 10})
	tok := f.p.State().Token

	f.now = f.now.Add(DefaultAutoHide - time.Millisecond)
	assert.False(t, f.p.Expire(tok))
	assert.True(t, f.p.State().Visible)
}

func TestStaleExpiryIgnored(t *testing.T) {
	f := newFixture(t)
	f.p.ShowAt(screen.Point{X: 10, Y: 10})
	first := f.p.State().Token

	f.now = f.now.Add(time.Second)
	f.p.ShowAt(screen.Point{X: 300, Y: 300})
	assert.True(t, f.sched.timers[0].stopped)

	f.now = f.now.Add(DefaultAutoHide - time.Second)
	assert.False(t, f.p.Expire(first))
	assert.True(t, f.p.State().Visible)

	f.p.Hide()
	assert.False(t, f.p.Expire(f.p.State().Token))
	assert.Len(t, f.hidden, 1)
}

func TestExtendPushesDeadline(t *testing.T) {
	f := newFixture(t)
	f.p.Extend()
	assert.Empty(t, f.sched.timers)

	f.p.ShowAt(screen.Point{X: 10, Y: 10})
	before := f.p.State()
	f.now = f.now.Add(2 * time.Second)
	f.p.Extend()
	after := f.p.State()

	assert.NotEqual(t, before.Token, after.Token)
	assert.Equal(t, f.now.Add(DefaultAutoHide), after.Deadline)
	assert.False(t, f.p.Expire(before.Token))
}

func TestContainsOnlyWhenVisible(t *testing.T) {
	f := newFixture(t)
	f.p.ShowAt(screen.Point{X: 800, Y: 450})
	assert.True(t, f.p.Contains(screen.Point{X: 840, Y: 440}))
	assert.False(t, f.p.Contains(screen.Point{X: 800, Y: 450}))
	f.p.Hide()
	assert.False(t, f.p.Contains(screen.Point{X: 840, Y: 440}))
}

func TestSetSettingsAppliesOnNextShow(t *testing.T) {
	f := newFixture(t)
	f.p.SetSettings(Settings{Width: 100, Height: 40, AutoHide: time.Second})
	f.p.ShowAt(screen.Point{X: 800, Y: 450})
	assert.Equal(t, screen.Rect{X: 850, Y: 430, Width: 100, Height: 40}, f.p.State().Bounds)
	assert.Equal(t, time.Second, f.sched.last().d)

	f.p.SetSettings(Settings{})
	assert.Equal(t, DefaultSettings(), f.p.Settings())
}
