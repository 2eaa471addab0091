package overlay

import (
	"log"
	"time"

	"papermem-capture/src/screen"
)

const (
	DefaultWidth    = 70
	DefaultHeight   = 32
	DefaultAutoHide = 5 * time.Second
)

// Settings control the overlay geometry and lifetime.
type Settings struct {
	Width    int
	Height   int
	AutoHide time.Duration
}

func DefaultSettings() Settings {
	return Settings{Width: DefaultWidth, Height: DefaultHeight, AutoHide: DefaultAutoHide}
}

func (s Settings) normalized() Settings {
	d := DefaultSettings()
	if s.Width <= 0 {
		s.Width = d.Width
	}
	if s.Height <= 0 {
		s.Height = d.Height
	}
	if s.AutoHide <= 0 {
		s.AutoHide = d.AutoHide
	}
	return s
}

// State is the presenter's view of the overlay. Visible is true exactly when
// Deadline is set.
type State struct {
	Visible     bool
	Bounds      screen.Rect
	Passthrough bool
	Deadline    time.Time
	Token       uint64
}

// TokenSource hands out sequence tokens. Every new token invalidates all
// earlier ones.
type TokenSource interface {
	Advance() uint64
}

// Timer is a pending auto-hide.
type Timer interface {
	Stop() bool
}

// Scheduler arms auto-hide timers.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Config wires a Presenter.
type Config struct {
	Surface   Surface
	Layout    screen.Layout
	Tokens    TokenSource
	Scheduler Scheduler
	Now       func() time.Time
	Settings  Settings
	// Expire is invoked from the timer goroutine with the token the timer was
	// armed under. It must hand the token to the owning goroutine, which then
	// calls Presenter.Expire.
	Expire func(token uint64)
	// OnHidden is invoked after every Visible→Hidden transition. clear is
	// false for HideRetaining.
	OnHidden func(clear bool)
}

// Presenter owns the overlay's visible/hidden state machine. All methods must
// be called from the event loop goroutine.
type Presenter struct {
	surface  Surface
	layout   screen.Layout
	tokens   TokenSource
	sched    Scheduler
	now      func() time.Time
	settings Settings
	expire   func(uint64)
	onHidden func(bool)

	state State
	timer Timer
}

func NewPresenter(cfg Config) *Presenter {
	p := &Presenter{
		surface:  cfg.Surface,
		layout:   cfg.Layout,
		tokens:   cfg.Tokens,
		sched:    cfg.Scheduler,
		now:      cfg.Now,
		settings: cfg.Settings.normalized(),
		expire:   cfg.Expire,
		onHidden: cfg.OnHidden,
	}
	if p.surface == nil {
		p.surface = LogSurface{}
	}
	if p.sched == nil {
		p.sched = realScheduler{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	p.state.Passthrough = true
	p.call("passthrough", p.surface.SetPassthrough(true))
	p.call("hide", p.surface.Hide())
	return p
}

func (p *Presenter) State() State { return p.state }

func (p *Presenter) Settings() Settings { return p.settings }

// SetSettings takes effect on the next ShowAt or Extend.
func (p *Presenter) SetSettings(s Settings) { p.settings = s.normalized() }

// Contains reports whether pt is on the visible overlay.
func (p *Presenter) Contains(pt screen.Point) bool {
	return p.state.Visible && p.state.Bounds.Contains(pt)
}

// BoundsFor computes the overlay rectangle for an anchor point: offset right
// of and vertically centred on the anchor, clamped into the work area of the
// monitor nearest the anchor.
func (p *Presenter) BoundsFor(anchor screen.Point) screen.Rect {
	r := screen.Rect{
		X:      anchor.X + p.settings.Width/2,
		Y:      anchor.Y - p.settings.Height/2,
		Width:  p.settings.Width,
		Height: p.settings.Height,
	}
	if p.layout == nil {
		return r
	}
	area, err := screen.WorkAreaAt(p.layout, anchor)
	if err != nil {
		log.Printf("overlay: cannot resolve work area: %v", err)
		return r
	}
	return screen.Clamp(r, area)
}

// ShowAt places the overlay near anchor, makes it interactive and (re)arms
// the auto-hide deadline under a fresh token.
func (p *Presenter) ShowAt(anchor screen.Point) {
	bounds := p.BoundsFor(anchor)
	p.call("place", p.surface.Place(bounds))
	p.call("passthrough", p.surface.SetPassthrough(false))
	p.call("show", p.surface.Show())
	p.state.Visible = true
	p.state.Bounds = bounds
	p.state.Passthrough = false
	p.arm()
}

// Extend re-arms the auto-hide deadline of a visible overlay.
func (p *Presenter) Extend() {
	if !p.state.Visible {
		return
	}
	p.arm()
}

// Expire handles an elapsed auto-hide timer. Stale tokens are ignored. It
// reports whether the overlay was hidden.
func (p *Presenter) Expire(token uint64) bool {
	if !p.state.Visible || token != p.state.Token {
		return false
	}
	if p.now().Before(p.state.Deadline) {
		return false
	}
	p.hide(true)
	return true
}

// Hide hides the overlay and asks the owner to clear the captured selection.
// Hiding a hidden overlay does nothing.
func (p *Presenter) Hide() { p.hide(true) }

// HideRetaining hides the overlay but keeps the captured selection.
func (p *Presenter) HideRetaining() { p.hide(false) }

func (p *Presenter) hide(clear bool) {
	if !p.state.Visible {
		return
	}
	p.disarm()
	p.call("hide", p.surface.Hide())
	p.call("passthrough", p.surface.SetPassthrough(true))
	p.state.Visible = false
	p.state.Passthrough = true
	p.state.Deadline = time.Time{}
	if p.onHidden != nil {
		p.onHidden(clear)
	}
}

func (p *Presenter) arm() {
	p.disarm()
	token := p.tokens.Advance()
	p.state.Token = token
	p.state.Deadline = p.now().Add(p.settings.AutoHide)
	expire := p.expire
	p.timer = p.sched.AfterFunc(p.settings.AutoHide, func() {
		if expire != nil {
			expire(token)
		}
	})
}

func (p *Presenter) disarm() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Presenter) call(op string, err error) {
	if err != nil {
		log.Printf("overlay: surface %s failed: %v", op, err)
	}
}
