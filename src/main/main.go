package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"papermem-capture/src/config"
	"papermem-capture/src/eventloop"
	"papermem-capture/src/hostlink"
	"papermem-capture/src/notification"
	"papermem-capture/src/overlay"
	"papermem-capture/src/runtimeinit"
	"papermem-capture/src/saveapi"
	"papermem-capture/src/screen"
	"papermem-capture/src/tray"
)

const appTitle = "Papermem Capture"

type mainOptions struct {
	envFile string
	apiBase string
	project string
	verbose bool
	noTray  bool
}

func (o mainOptions) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		EnvFileOverride: o.envFile,
		APIBaseOverride: o.apiBase,
		ProjectOverride: o.project,
	}
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics.
	enableDPIAwareness()

	// The tray event loop must own the main OS thread.
	runtime.LockOSThread()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"papermem-capture"}
	}
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "papermem-capture",
		Short:         "Capture selected text anywhere and save it to papermem",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResident(*opts)
		},
	}

	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Path to env file (highest precedence)")
	cmd.Flags().StringVar(&opts.apiBase, "api-base", "", "Base URL of the save API")
	cmd.Flags().StringVar(&opts.project, "project", "", "Active project id")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")
	cmd.Flags().BoolVar(&opts.noTray, "no-tray", false, "Run without a tray icon")

	return cmd
}

func runResident(opts mainOptions) error {
	cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: opts.loadOptions(),
		Verbose:     opts.verbose,
	})
	if err != nil {
		notification.ShowBlockingError(appTitle+" - Configuration", err.Error())
		return err
	}

	rng := hostlink.Range{Start: cfg.HostLinkPortStart, End: cfg.HostLinkPortEnd}.Normalized()
	if err := checkSingleInstance(rng.Start); err != nil {
		log.Printf("Pre-flight: %v", err)
		fmt.Printf("one is already running on port %d\n", rng.Start)
		notification.ShowBlockingError(appTitle, fmt.Sprintf("%s is already running (port %d).", appTitle, rng.Start))
		return err
	}
	log.Printf("Pre-flight: port %d free", rng.Start)
	logMonitorConfiguration(screen.NewLayout())

	surface, err := overlay.NewPlatformSurface()
	if err != nil {
		log.Printf("Overlay surface unavailable, using log surface: %v", err)
		surface = overlay.LogSurface{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var loop *eventloop.Loop
	var icon *tray.Tray
	if !opts.noTray {
		icon = tray.New(tray.Config{
			Title:          appTitle,
			CaptureEnabled: cfg.CaptureEnabled,
			OnToggleCapture: func(enabled bool) {
				if err := loop.SetCaptureEnabled(ctx, enabled); err != nil {
					log.Printf("Tray: toggle capture: %v", err)
				}
			},
			OnQuit: cancel,
		})
	}

	loop = eventloop.New(eventloop.Options{
		Surface:  surface,
		Saver:    saveapi.New(cfg.APIBase, cfg.SaveTimeout()),
		Settings: eventloop.SettingsFromConfig(cfg),
		OnStatus: func(status string) {
			if icon != nil {
				icon.SetStatus(status)
			}
		},
	})

	srv := hostlink.NewServer(rng)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("host link: %w", err)
	}
	defer srv.Close()
	go loop.Serve(ctx, srv)

	if err := loop.Start(); err != nil {
		if eventloop.IsPermissionError(err) {
			notification.ShowWarning(appTitle+" - Permission required", err.Error())
		} else {
			notification.ShowWarning(appTitle, fmt.Sprintf("Selection capture is disabled: %v", err))
		}
	}
	defer loop.Stop()

	if cfg.EnvPath != "" {
		watcher, err := config.NewWatcher(cfg.EnvPath, opts.loadOptions())
		if err != nil {
			log.Printf("Config watcher unavailable: %v", err)
		} else {
			watcher.OnChange(func(next *config.Config) {
				if err := loop.ApplySettings(ctx, eventloop.SettingsFromConfig(next)); err != nil {
					log.Printf("Config reload not applied: %v", err)
				}
			})
			if err := watcher.Start(); err != nil {
				log.Printf("Config watcher failed to start: %v", err)
			} else {
				defer watcher.Stop()
			}
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("Received %s, shutting down", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- loop.Run(ctx)
		if icon != nil {
			icon.Quit()
		}
	}()

	if icon != nil {
		icon.Run(func() { log.Printf("Tray ready") })
		cancel()
	}

	if err := <-loopErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Printf("Shutdown complete")
	return nil
}

// checkSingleInstance claims the host link start port briefly. A busy port
// means another resident already owns it.
func checkSingleInstance(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("port %d busy, a resident instance already exists: %w", port, err)
	}
	return lis.Close()
}

func logMonitorConfiguration(layout screen.Layout) {
	monitors, err := layout.Monitors()
	if err != nil {
		log.Printf("MONITOR: enumeration failed: %v", err)
		return
	}
	log.Printf("MONITOR: Detected %d monitors", len(monitors))
	for i, m := range monitors {
		log.Printf("MONITOR: #%d bounds=%+v work=%+v", i, m.Bounds, m.WorkArea)
	}
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	long := []string{"env-file", "api-base", "project", "verbose", "no-tray"}
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range long {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}
