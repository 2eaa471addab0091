package eventloop

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"papermem-capture/src/automation"
	"papermem-capture/src/capture"
	"papermem-capture/src/clipboard"
	"papermem-capture/src/config"
	"papermem-capture/src/gesture"
	"papermem-capture/src/inputbridge"
	"papermem-capture/src/logutil"
	"papermem-capture/src/overlay"
	"papermem-capture/src/permission"
	"papermem-capture/src/saveapi"
	"papermem-capture/src/screen"
	"papermem-capture/src/selection"
	"papermem-capture/src/worker"

	"golang.org/x/time/rate"
)

// ErrStopped is returned by calls made after Run has returned.
var ErrStopped = errors.New("capture engine stopped")

var errBusy = errors.New("busy, please retry")

// PointerSource delivers normalized pointer samples. *inputbridge.Bridge is
// the production source.
type PointerSource interface {
	Start() error
	Stop()
	Events() <-chan inputbridge.PointerSample
}

// Saver persists a captured selection.
type Saver interface {
	Save(ctx context.Context, text, projectID, requestID string) error
}

// Settings are the tunables the loop applies. They can be replaced while
// running with ApplySettings.
type Settings struct {
	DragThreshold  float64
	Capture        capture.Settings
	Overlay        overlay.Settings
	SaveTimeout    time.Duration
	CaptureEnabled bool
	ActiveProject  string
}

func DefaultSettings() Settings {
	return Settings{
		DragThreshold:  gesture.DefaultThreshold,
		Capture:        capture.DefaultSettings(),
		Overlay:        overlay.DefaultSettings(),
		SaveTimeout:    saveapi.DefaultTimeout,
		CaptureEnabled: true,
	}
}

// SettingsFromConfig maps the loaded configuration onto loop settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}
	s.DragThreshold = cfg.DragThresholdPx
	s.Capture = capture.Settings{
		Settle:   cfg.CaptureSettle(),
		Grace:    cfg.CaptureGrace(),
		MinChars: cfg.MinSelectionChars,
	}
	s.Overlay = overlay.Settings{
		Width:    cfg.OverlayWidth,
		Height:   cfg.OverlayHeight,
		AutoHide: cfg.OverlayAutoHide(),
	}
	s.SaveTimeout = cfg.SaveTimeout()
	s.CaptureEnabled = cfg.CaptureEnabled
	s.ActiveProject = cfg.ActiveProject
	return s
}

// Options wire a Loop. Nil fields get production defaults.
type Options struct {
	Source    PointerSource
	Gate      permission.Gate
	Copier    automation.Copier
	Clipboard capture.ClipboardReader
	Surface   overlay.Surface
	Layout    screen.Layout
	Scheduler overlay.Scheduler
	Saver     Saver
	Now       func() time.Time
	Settings  Settings
	// OnStatus receives short human-readable status lines, e.g. for the tray.
	// It is called on the loop goroutine and must not block.
	OnStatus func(status string)

	CaptureWorkers int
	SaveWorkers    int
}

type saveResult struct {
	id    string
	err   error
	reply chan error
}

// Loop is the single-threaded coordinator of the capture engine. It owns the
// gesture tracker, the overlay presenter and the selection store; everything
// else talks to it through channels.
type Loop struct {
	source    PointerSource
	gate      permission.Gate
	sequencer *capture.Sequencer
	saver     Saver
	presenter *overlay.Presenter
	tracker   *gesture.Tracker
	store     *selection.Store
	onStatus  func(string)

	capturePool *worker.Pool
	savePool    *worker.Pool

	captures chan capture.Outcome
	expiries chan uint64
	saves    chan saveResult
	calls    chan func()
	done     chan struct{}
	stopOnce sync.Once

	// loop goroutine state
	runCtx        context.Context
	settings      Settings
	applied       Settings
	shownID       string
	saving        map[string]int
	captureCancel context.CancelFunc
	capturesRun   uint64
	lastStatus    string
	dropLog       rate.Sometimes
	rejectLog     rate.Sometimes

	lifeMu     sync.Mutex
	permission permission.Status
	degraded   bool
	started    bool
}

// New builds a loop. Call Start to install the input hook and Run to
// process events.
func New(opts Options) *Loop {
	if opts.Settings == (Settings{}) {
		opts.Settings = DefaultSettings()
	}
	if opts.Source == nil {
		opts.Source = inputbridge.New()
	}
	if opts.Gate == nil {
		opts.Gate = permission.New()
	}
	if opts.Copier == nil {
		opts.Copier = automation.New()
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.System{}
	}
	if opts.Layout == nil {
		opts.Layout = screen.NewLayout()
	}
	if opts.Saver == nil {
		opts.Saver = saveapi.New(saveapi.DefaultBaseURL, opts.Settings.SaveTimeout)
	}
	if opts.Settings.DragThreshold <= 0 {
		opts.Settings.DragThreshold = gesture.DefaultThreshold
	}
	if opts.Settings.SaveTimeout <= 0 {
		opts.Settings.SaveTimeout = saveapi.DefaultTimeout
	}
	if opts.CaptureWorkers <= 0 {
		opts.CaptureWorkers = 2
	}
	if opts.SaveWorkers <= 0 {
		opts.SaveWorkers = 2
	}

	l := &Loop{
		source:      opts.Source,
		gate:        opts.Gate,
		sequencer:   capture.NewSequencer(opts.Copier, opts.Clipboard),
		saver:       opts.Saver,
		tracker:     gesture.NewTracker(opts.Settings.DragThreshold),
		store:       selection.NewStore(),
		onStatus:    opts.OnStatus,
		capturePool: worker.New("capture", opts.CaptureWorkers, 2*opts.CaptureWorkers),
		savePool:    worker.New("save", opts.SaveWorkers, opts.SaveWorkers),
		captures:    make(chan capture.Outcome, 4),
		expiries:    make(chan uint64, 4),
		saves:       make(chan saveResult, 4),
		calls:       make(chan func(), 16),
		done:        make(chan struct{}),
		settings:    opts.Settings,
		applied:     opts.Settings,
		saving:      make(map[string]int),
		dropLog:     rate.Sometimes{Interval: 5 * time.Second},
		rejectLog:   rate.Sometimes{Interval: 5 * time.Second},
		permission:  permission.NotGranted,
	}
	if id := opts.Settings.ActiveProject; id != "" {
		l.store.SetActiveProject(id)
	}
	l.presenter = overlay.NewPresenter(overlay.Config{
		Surface:   opts.Surface,
		Layout:    opts.Layout,
		Tokens:    l.store,
		Scheduler: opts.Scheduler,
		Now:       opts.Now,
		Settings:  opts.Settings.Overlay,
		Expire:    l.postExpiry,
		OnHidden:  l.onHidden,
	})
	if s, ok := opts.Surface.(overlay.Interactive); ok {
		s.SetActions(overlay.Actions{
			Save:    l.requestSave,
			Dismiss: func() { l.tryPost(l.presenter.Hide) },
			Touch:   func() { l.tryPost(l.presenter.Extend) },
		})
	}
	return l
}

// Run processes events until ctx is cancelled. It blocks.
func (l *Loop) Run(ctx context.Context) error {
	l.runCtx = ctx
	events := l.source.Events()
	log.Printf("eventloop: running (threshold=%.0fpx, auto-hide=%s)", l.tracker.Threshold(), l.presenter.Settings().AutoHide)

	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()
		case s := <-events:
			l.handleSample(s)
		case out := <-l.captures:
			l.handleCapture(out)
		case tok := <-l.expiries:
			l.presenter.Expire(tok)
		case res := <-l.saves:
			l.handleSaveResult(res)
		case fn := <-l.calls:
			fn()
		}
	}
}

func (l *Loop) shutdown() {
	l.cancelCapture()
	l.presenter.Hide()
	l.stopOnce.Do(func() { close(l.done) })
	l.capturePool.Close()
	l.savePool.Close()
	l.store.Clear()
	log.Printf("eventloop: stopped")
}

func (l *Loop) handleSample(s inputbridge.PointerSample) {
	switch s.Kind {
	case inputbridge.Down:
		st := l.presenter.State()
		out := l.tracker.Down(s.Point, st.Visible, st.Bounds)
		if out.OnOverlay {
			return
		}
		l.store.Advance()
		l.cancelCapture()
		if out.Dismiss {
			l.presenter.Hide()
		}
	case inputbridge.Up:
		res, ok := l.tracker.Up(s.Point)
		if !ok || res.Kind != gesture.DragSelect {
			return
		}
		if !l.settings.CaptureEnabled {
			return
		}
		l.startCapture(res.Release)
	}
}

func (l *Loop) startCapture(release screen.Point) {
	req := capture.Request{
		Token:    l.store.Token(),
		Release:  release,
		Settings: l.settings.Capture,
	}
	l.cancelCapture()
	ctx, cancel := context.WithCancel(l.runCtx)
	evicted, ok := l.capturePool.SubmitNewest(ctx, func(ctx context.Context) {
		out := l.sequencer.Capture(ctx, req)
		select {
		case l.captures <- out:
		case <-l.done:
		}
	})
	if !ok {
		cancel()
		l.dropLog.Do(func() { log.Printf("eventloop: capture dropped, workers stopped") })
		return
	}
	if evicted > 0 {
		l.dropLog.Do(func() { log.Printf("eventloop: %d stale captures evicted", evicted) })
	}
	l.captureCancel = cancel
	l.capturesRun++
}

// cancelCapture stops the latest capture before its copy keystroke or
// clipboard read, if it has not reached them yet.
func (l *Loop) cancelCapture() {
	if l.captureCancel != nil {
		l.captureCancel()
		l.captureCancel = nil
	}
}

func (l *Loop) handleCapture(out capture.Outcome) {
	if out.Token != l.store.Token() {
		return
	}
	if out.Err != nil {
		l.rejectLog.Do(func() { log.Printf("eventloop: capture rejected: %v", out.Err) })
		return
	}
	l.store.Set(out.Selection)
	l.shownID = out.Selection.ID
	l.presenter.ShowAt(out.Release)
	log.Printf("eventloop: captured %d chars at %d,%d: %q", len([]rune(out.Selection.Text)),
		out.Release.X, out.Release.Y, logutil.Sanitize(out.Selection.Text))
}

// onHidden runs on the loop goroutine after every Visible→Hidden transition.
// The selection is kept while a save for that same selection is in flight;
// the save result decides its fate.
func (l *Loop) onHidden(clear bool) {
	l.shownID = ""
	if !clear {
		return
	}
	if cur, ok := l.store.Get(); ok && l.saving[cur.ID] > 0 {
		return
	}
	l.store.Clear()
}

func (l *Loop) savesInFlight() int {
	n := 0
	for _, c := range l.saving {
		n += c
	}
	return n
}

func (l *Loop) saveDone(id string) {
	if l.saving[id] <= 1 {
		delete(l.saving, id)
		return
	}
	l.saving[id]--
}

func (l *Loop) postExpiry(tok uint64) {
	select {
	case l.expiries <- tok:
	case <-l.done:
	}
}

// startSave validates and dispatches a save of the current selection. reply
// may be nil.
func (l *Loop) startSave(reply chan error) {
	cur, _ := l.store.Get()
	project, _ := l.store.ActiveProject()
	if err := saveapi.Check(cur.Text, project); err != nil {
		l.setStatus("Save failed: " + err.Error())
		respond(reply, err)
		return
	}

	ctx, cancel := context.WithTimeout(l.runCtx, l.settings.SaveTimeout)
	l.saving[cur.ID]++
	ok := l.savePool.Submit(ctx, func(ctx context.Context) {
		err := l.saver.Save(ctx, cur.Text, project, cur.ID)
		cancel()
		select {
		case l.saves <- saveResult{id: cur.ID, err: err, reply: reply}:
		case <-l.done:
		}
	})
	if !ok {
		cancel()
		l.saveDone(cur.ID)
		err := saveapi.NetworkError(errBusy)
		l.presenter.HideRetaining()
		l.setStatus("Save failed: " + errBusy.Error())
		respond(reply, err)
		return
	}
	l.setStatus("Saving...")
	log.Printf("eventloop: saving %d chars to project %s (request %s)", len([]rune(cur.Text)), project, cur.ID)
}

func (l *Loop) handleSaveResult(res saveResult) {
	l.saveDone(res.id)
	showing := l.presenter.State().Visible && l.shownID == res.id
	if res.err == nil {
		l.store.ClearIf(res.id)
		if showing {
			l.presenter.Hide()
		}
		l.setStatus("Saved")
		log.Printf("eventloop: save %s succeeded", res.id)
	} else {
		if showing {
			l.presenter.HideRetaining()
		}
		l.setStatus("Save failed, selection kept")
		log.Printf("eventloop: save %s failed: %v", res.id, res.err)
	}
	respond(res.reply, res.err)
}

// applySettings takes new tunables. The active project and the capture
// toggle only change when the new settings change them, so values set at
// runtime by the host or the tray survive unrelated reloads.
func (l *Loop) applySettings(s Settings) {
	prev := l.applied
	l.applied = s

	if s.ActiveProject != prev.ActiveProject && s.ActiveProject != "" {
		l.store.SetActiveProject(s.ActiveProject)
	}
	if s.CaptureEnabled == prev.CaptureEnabled {
		s.CaptureEnabled = l.settings.CaptureEnabled
	}
	if s.SaveTimeout <= 0 {
		s.SaveTimeout = saveapi.DefaultTimeout
	}
	l.tracker.SetThreshold(s.DragThreshold)
	l.presenter.SetSettings(s.Overlay)
	if !s.CaptureEnabled {
		l.presenter.Hide()
	}
	l.settings = s
	log.Printf("eventloop: settings applied (threshold=%.0fpx, grace=%s, auto-hide=%s)",
		l.tracker.Threshold(), s.Capture.Grace, l.presenter.Settings().AutoHide)
}

func (l *Loop) setStatus(status string) {
	l.lastStatus = status
	if l.onStatus != nil {
		l.onStatus(status)
	}
}

func respond(reply chan error, err error) {
	if reply != nil {
		reply <- err
	}
}
