package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"papermem-capture/src/inputbridge"
	"papermem-capture/src/permission"
	"papermem-capture/src/saveapi"
	"papermem-capture/src/screen"
)

// Start checks the input permission and installs the pointer hook. A
// permission failure leaves the loop in degraded mode: Run still serves host
// calls but no gestures are observed.
func (l *Loop) Start() error {
	l.lifeMu.Lock()
	defer l.lifeMu.Unlock()
	if l.started {
		return nil
	}

	status := l.gate.Check()
	if status != permission.Granted {
		status = l.gate.RequestIfNeeded()
	}
	l.permission = status

	if !permission.Allowed(l.gate, status) {
		l.degraded = true
		log.Printf("eventloop: input permission %s, capture disabled: %s", status, l.gate.Advice())
		return &inputbridge.PermissionError{Reason: l.gate.Advice()}
	}
	if status != permission.Granted {
		log.Printf("eventloop: input permission %s (advisory): %s", status, l.gate.Advice())
	}

	if err := l.source.Start(); err != nil {
		l.degraded = true
		log.Printf("eventloop: pointer hook failed, capture disabled: %v", err)
		return err
	}
	l.degraded = false
	l.started = true
	return nil
}

// Stop removes the pointer hook. Safe to call repeatedly and before Start.
func (l *Loop) Stop() {
	l.lifeMu.Lock()
	started := l.started
	l.started = false
	l.lifeMu.Unlock()
	if started {
		l.source.Stop()
	}
	l.tryPost(l.presenter.Hide)
}

// Save saves the current selection to the active project and waits for the
// outcome. Failures are *saveapi.Error values.
func (l *Loop) Save(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := l.post(ctx, func() { l.startSave(reply) }); err != nil {
		return saveapi.NetworkError(err)
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return saveapi.NetworkError(ctx.Err())
	case <-l.done:
		return saveapi.NetworkError(ErrStopped)
	}
}

// requestSave is the overlay's Save button. It never blocks.
func (l *Loop) requestSave() {
	l.tryPost(func() { l.startSave(nil) })
}

// Hide hides the overlay and clears the selection.
func (l *Loop) Hide(ctx context.Context) error {
	return l.post(ctx, l.presenter.Hide)
}

// SetActiveProject sets the project that saves go to. An empty id clears it.
func (l *Loop) SetActiveProject(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	return l.post(ctx, func() {
		l.store.SetActiveProject(id)
		log.Printf("eventloop: active project set to %q", id)
	})
}

// SetCaptureEnabled pauses or resumes capturing. Pausing hides the overlay.
func (l *Loop) SetCaptureEnabled(ctx context.Context, enabled bool) error {
	return l.post(ctx, func() {
		l.settings.CaptureEnabled = enabled
		if !enabled {
			l.presenter.Hide()
			l.setStatus("Capture paused")
		} else {
			l.setStatus("Capture enabled")
		}
	})
}

// ApplySettings replaces the tunables, e.g. after a config reload.
func (l *Loop) ApplySettings(ctx context.Context, s Settings) error {
	return l.post(ctx, func() { l.applySettings(s) })
}

// Status is a snapshot of the engine.
type Status struct {
	HookRunning    bool
	Degraded       bool
	Permission     permission.Status
	CaptureEnabled bool
	OverlayVisible bool
	OverlayBounds  screen.Rect
	HasSelection   bool
	SelectionChars int
	ActiveProject  string
	SavesInFlight  int
	CapturesRun    uint64
	LastStatus     string
}

// String renders the snapshot as key=value lines.
func (s Status) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "hook=%t\n", s.HookRunning)
	fmt.Fprintf(&b, "degraded=%t\n", s.Degraded)
	fmt.Fprintf(&b, "permission=%s\n", s.Permission)
	fmt.Fprintf(&b, "capture_enabled=%t\n", s.CaptureEnabled)
	fmt.Fprintf(&b, "overlay_visible=%t\n", s.OverlayVisible)
	if s.OverlayVisible {
		r := s.OverlayBounds
		fmt.Fprintf(&b, "overlay_bounds=%d,%d,%d,%d\n", r.X, r.Y, r.Width, r.Height)
	}
	fmt.Fprintf(&b, "selection_chars=%d\n", s.SelectionChars)
	fmt.Fprintf(&b, "project=%s\n", s.ActiveProject)
	fmt.Fprintf(&b, "saves_in_flight=%d\n", s.SavesInFlight)
	fmt.Fprintf(&b, "captures=%d\n", s.CapturesRun)
	if s.LastStatus != "" {
		fmt.Fprintf(&b, "last=%s\n", s.LastStatus)
	}
	return b.String()
}

// Status returns a snapshot taken on the loop goroutine.
func (l *Loop) Status(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	if err := l.post(ctx, func() { reply <- l.snapshot() }); err != nil {
		return Status{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	case <-l.done:
		return Status{}, ErrStopped
	}
}

func (l *Loop) snapshot() Status {
	l.lifeMu.Lock()
	perm, degraded, started := l.permission, l.degraded, l.started
	l.lifeMu.Unlock()

	st := l.presenter.State()
	cur, has := l.store.Get()
	project, _ := l.store.ActiveProject()
	return Status{
		HookRunning:    started,
		Degraded:       degraded,
		Permission:     perm,
		CaptureEnabled: l.settings.CaptureEnabled,
		OverlayVisible: st.Visible,
		OverlayBounds:  st.Bounds,
		HasSelection:   has,
		SelectionChars: len([]rune(cur.Text)),
		ActiveProject:  project,
		SavesInFlight:  l.savesInFlight(),
		CapturesRun:    l.capturesRun,
		LastStatus:     l.lastStatus,
	}
}

// post hands fn to the loop goroutine.
func (l *Loop) post(ctx context.Context, fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.calls <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// tryPost is post for callers that must never block, such as OS callbacks.
func (l *Loop) tryPost(fn func()) {
	select {
	case <-l.done:
		return
	case l.calls <- fn:
	default:
		log.Printf("eventloop: call dropped, loop busy")
	}
}

// IsPermissionError reports whether err came from a missing input grant.
func IsPermissionError(err error) bool {
	return errors.Is(err, inputbridge.ErrPermissionDenied)
}
