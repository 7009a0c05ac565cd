package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/example/viewport-sync/internal/prefs"
	"github.com/example/viewport-sync/internal/types"
)

// ErrInvalidConfig is returned when an environment value cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration sourced from the environment.
type Config struct {
	AppName         string
	MetricsAddr     string
	MonitorAddr     string
	OTLPEndpoint    string
	ShutdownTimeout time.Duration
	FrameInterval   time.Duration

	SyncMode           types.ScopeMode
	SyncPaused         bool
	SyncDuringPlayback bool
	SyncInCameraView   bool

	SimWorkspaces         int
	SimWindows            int
	SimViewportsPerWindow int
	SimClosedScreens      int
}

// Load reads configuration from the environment while applying sensible defaults
// for local development.
func Load() (Config, error) {
	cfg := Config{
		AppName:         getEnv("APP_NAME", "viewport-sync"),
		MetricsAddr:     getEnv("METRICS_LISTEN_ADDR", ":9090"),
		MonitorAddr:     getEnv("MONITOR_LISTEN_ADDR", ":8080"),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		FrameInterval:   getDuration("FRAME_INTERVAL", time.Second/30),

		SyncPaused:         getBool("SYNC_PAUSED", false),
		SyncDuringPlayback: getBool("SYNC_DURING_PLAYBACK", false),
		SyncInCameraView:   getBool("SYNC_IN_CAMERA_VIEW", false),

		SimWorkspaces:         getInt("SIM_WORKSPACES", 2),
		SimWindows:            getInt("SIM_WINDOWS", 3),
		SimViewportsPerWindow: getInt("SIM_VIEWPORTS_PER_WINDOW", 2),
		SimClosedScreens:      getInt("SIM_CLOSED_SCREENS", 1),
	}

	mode, err := types.ParseScopeMode(getEnv("SYNC_MODE", types.ScopeWindow.String()))
	if err != nil {
		return Config{}, fmt.Errorf("%w: SYNC_MODE: %w", ErrInvalidConfig, err)
	}
	cfg.SyncMode = mode

	if cfg.FrameInterval <= 0 {
		return Config{}, fmt.Errorf("%w: FRAME_INTERVAL must be positive", ErrInvalidConfig)
	}
	if cfg.SimWindows < 1 || cfg.SimViewportsPerWindow < 1 || cfg.SimWorkspaces < 1 {
		return Config{}, fmt.Errorf("%w: simulated session needs at least one workspace, window and viewport", ErrInvalidConfig)
	}
	if cfg.SimClosedScreens < 0 {
		return Config{}, fmt.Errorf("%w: SIM_CLOSED_SCREENS must not be negative", ErrInvalidConfig)
	}

	return cfg, nil
}

// Policy returns the sync preferences the engine starts with.
func (c Config) Policy() prefs.Policy {
	return prefs.Policy{
		Paused:             c.SyncPaused,
		SyncDuringPlayback: c.SyncDuringPlayback,
		SyncInCameraView:   c.SyncInCameraView,
		Mode:               c.SyncMode,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
