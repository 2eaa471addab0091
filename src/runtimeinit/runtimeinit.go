package runtimeinit

import (
	"fmt"
	"log"

	"papermem-capture/src/clipboard"
	"papermem-capture/src/config"
	"papermem-capture/src/logutil"
)

type Options struct {
	LoadOptions config.LoadOptions
	// Verbose mirrors logs to stderr regardless of ENABLE_FILE_LOGGING.
	Verbose bool
	// SetupLogging replaces logutil.Setup; used by tests.
	SetupLogging func(logutil.Options)
	// SkipClipboard leaves the clipboard uninitialized.
	SkipClipboard bool
}

// Bootstrap loads configuration, configures logging and initializes the
// clipboard. A clipboard failure is logged, not returned: the engine can
// still serve host requests without it.
func Bootstrap(opts Options) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	setup := opts.SetupLogging
	if setup == nil {
		setup = logutil.Setup
	}
	setup(logutil.Options{EnableFileLogging: cfg.EnableFileLogging, Verbose: opts.Verbose})

	if cfg.EnvPath != "" {
		log.Printf("Configuration loaded from %s", cfg.EnvPath)
	} else {
		log.Printf("No env file found, using environment and defaults")
	}
	log.Printf("API base: %s, save timeout: %s", cfg.APIBase, cfg.SaveTimeout())

	if !opts.SkipClipboard {
		if err := clipboard.Init(); err != nil {
			log.Printf("Clipboard unavailable, selections cannot be captured: %v", err)
		}
	}

	return cfg, nil
}
