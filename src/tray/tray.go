package tray

import (
	"log"
	"sync"

	"github.com/getlantern/systray"
)

// Config wires tray menu actions.
type Config struct {
	Title          string
	Tooltip        string
	CaptureEnabled bool
	// OnToggleCapture is called from the tray goroutine with the new state.
	OnToggleCapture func(enabled bool)
	OnQuit          func()
}

// Tray is the system tray icon with a status line, a capture toggle and quit.
type Tray struct {
	cfg Config

	mu      sync.Mutex
	ready   bool
	quit    bool
	status  string
	enabled bool
	mStatus *systray.MenuItem
	mToggle *systray.MenuItem
}

func New(cfg Config) *Tray {
	if cfg.Title == "" {
		cfg.Title = "Papermem Capture"
	}
	if cfg.Tooltip == "" {
		cfg.Tooltip = cfg.Title
	}
	return &Tray{cfg: cfg, enabled: cfg.CaptureEnabled, status: "Ready"}
}

// Run blocks on the tray event loop; it must be called from the main
// goroutine. onReady runs once the tray is up.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.setup()
		if onReady != nil {
			onReady()
		}
	}, func() {
		log.Printf("tray: exited")
	})
}

// Quit ends Run. Called before the tray is ready, it takes effect once setup
// completes.
func (t *Tray) Quit() {
	t.mu.Lock()
	ready := t.ready
	t.quit = !ready
	t.mu.Unlock()
	if ready {
		systray.Quit()
	}
}

func (t *Tray) setup() {
	t.mu.Lock()
	enabled, status := t.enabled, t.status
	t.mu.Unlock()

	systray.SetIcon(Icon(enabled))
	systray.SetTitle("")
	systray.SetTooltip(tooltip(t.cfg.Tooltip, status))

	mStatus := systray.AddMenuItem(status, "Last capture engine status")
	mStatus.Disable()
	mToggle := systray.AddMenuItemCheckbox("Capture selections", "Show the save overlay after selecting text", enabled)
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	t.mu.Lock()
	t.mStatus, t.mToggle, t.ready = mStatus, mToggle, true
	quit := t.quit
	t.mu.Unlock()
	if quit {
		systray.Quit()
		return
	}

	go func() {
		for {
			select {
			case <-mToggle.ClickedCh:
				on := !mToggle.Checked()
				t.SetCaptureEnabled(on)
				if t.cfg.OnToggleCapture != nil {
					t.cfg.OnToggleCapture(on)
				}
			case <-mQuit.ClickedCh:
				log.Printf("tray: quit requested")
				if t.cfg.OnQuit != nil {
					t.cfg.OnQuit()
				}
				systray.Quit()
				return
			}
		}
	}()
}

// SetStatus shows a short status line in the tooltip and menu.
func (t *Tray) SetStatus(status string) {
	t.mu.Lock()
	t.status = status
	ready, item := t.ready, t.mStatus
	t.mu.Unlock()
	if !ready {
		return
	}
	item.SetTitle(status)
	systray.SetTooltip(tooltip(t.cfg.Tooltip, status))
}

// SetCaptureEnabled reflects the capture state in the icon and checkbox.
func (t *Tray) SetCaptureEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	ready, item := t.ready, t.mToggle
	t.mu.Unlock()
	if !ready {
		return
	}
	if enabled {
		item.Check()
	} else {
		item.Uncheck()
	}
	systray.SetIcon(Icon(enabled))
}

func tooltip(title, status string) string {
	if status == "" {
		return title
	}
	return title + ": " + status
}
