package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvPathEnvVar = "PAPERMEM_CAPTURE_ENV"

	DefaultAPIBase           = "http://127.0.0.1:8000"
	DefaultSaveTimeoutSec    = 10
	DefaultDragThresholdPx   = 12.0
	DefaultCaptureSettleMs   = 50
	DefaultCaptureGraceMs    = 120
	DefaultMinSelectionChars = 4
	DefaultOverlayAutoHideMs = 5000
	DefaultOverlayWidth      = 70
	DefaultOverlayHeight     = 32
	DefaultHostLinkPortStart = 49600
	DefaultHostLinkPortEnd   = 49650
)

type LoadOptions struct {
	EnvFileOverride string
	APIBaseOverride string
	ProjectOverride string
}

type Config struct {
	EnvPath           string
	APIBase           string
	SaveTimeoutSec    int
	DragThresholdPx   float64
	CaptureSettleMs   int
	CaptureGraceMs    int
	MinSelectionChars int
	OverlayAutoHideMs int
	OverlayWidth      int
	OverlayHeight     int
	ActiveProject     string
	EnableFileLogging bool
	CaptureEnabled    bool
	HostLinkPortStart int
	HostLinkPortEnd   int
}

func (c *Config) SaveTimeout() time.Duration { return time.Duration(c.SaveTimeoutSec) * time.Second }

func (c *Config) CaptureSettle() time.Duration {
	return time.Duration(c.CaptureSettleMs) * time.Millisecond
}

func (c *Config) CaptureGrace() time.Duration {
	return time.Duration(c.CaptureGraceMs) * time.Millisecond
}

func (c *Config) OverlayAutoHide() time.Duration {
	return time.Duration(c.OverlayAutoHideMs) * time.Millisecond
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) explicit --env-file
	// 2) .env in the application (executable) directory
	// 3) the file named by PAPERMEM_CAPTURE_ENV
	// Process environment values win over file values.
	envPath := resolveEnvPath(opts.EnvFileOverride)
	if opts.EnvFileOverride != "" && envPath == "" {
		return nil, fmt.Errorf("env file %s not found", opts.EnvFileOverride)
	}
	src := source{file: readDotenvValues(envPath)}

	cfg := &Config{
		EnvPath:           envPath,
		APIBase:           strings.TrimRight(src.str("API_BASE", DefaultAPIBase), "/"),
		SaveTimeoutSec:    src.positiveInt("SAVE_TIMEOUT_SEC", DefaultSaveTimeoutSec),
		DragThresholdPx:   src.positiveFloat("DRAG_THRESHOLD_PX", DefaultDragThresholdPx),
		CaptureSettleMs:   src.nonNegativeInt("CAPTURE_SETTLE_MS", DefaultCaptureSettleMs),
		CaptureGraceMs:    src.nonNegativeInt("CAPTURE_GRACE_MS", DefaultCaptureGraceMs),
		MinSelectionChars: src.positiveInt("MIN_SELECTION_CHARS", DefaultMinSelectionChars),
		OverlayAutoHideMs: src.positiveInt("OVERLAY_AUTO_HIDE_MS", DefaultOverlayAutoHideMs),
		OverlayWidth:      src.positiveInt("OVERLAY_WIDTH", DefaultOverlayWidth),
		OverlayHeight:     src.positiveInt("OVERLAY_HEIGHT", DefaultOverlayHeight),
		ActiveProject:     src.str("ACTIVE_PROJECT", ""),
		EnableFileLogging: src.boolean("ENABLE_FILE_LOGGING", false),
		CaptureEnabled:    src.boolean("CAPTURE_ENABLED", true),
		HostLinkPortStart: src.positiveInt("HOSTLINK_PORT_START", DefaultHostLinkPortStart),
		HostLinkPortEnd:   src.positiveInt("HOSTLINK_PORT_END", DefaultHostLinkPortEnd),
	}

	if override := strings.TrimSpace(opts.APIBaseOverride); override != "" {
		cfg.APIBase = strings.TrimRight(override, "/")
	}
	if override := strings.TrimSpace(opts.ProjectOverride); override != "" {
		cfg.ActiveProject = override
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot start with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBase)
	if err != nil {
		return fmt.Errorf("invalid API_BASE %q: %w", c.APIBase, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid API_BASE %q: scheme must be http or https", c.APIBase)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid API_BASE %q: missing host", c.APIBase)
	}
	return nil
}

func resolveEnvPath(override string) string {
	if override = strings.TrimSpace(override); override != "" {
		if _, err := os.Stat(override); err == nil {
			return override
		}
		return ""
	}

	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

// source resolves a key from the process environment, then the env file.
type source struct {
	file map[string]string
}

func (s source) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	if v := strings.TrimSpace(s.file[key]); v != "" {
		return v, true
	}
	return "", false
}

func (s source) str(key, def string) string {
	if v, ok := s.lookup(key); ok {
		return v
	}
	return def
}

func (s source) boolean(key string, def bool) bool {
	v, ok := s.lookup(key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	return def
}

func (s source) positiveInt(key string, def int) int {
	if v, ok := s.lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func (s source) nonNegativeInt(key string, def int) int {
	if v, ok := s.lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func (s source) positiveFloat(key string, def float64) float64 {
	if v, ok := s.lookup(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}
