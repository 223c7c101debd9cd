// Package startup reads the engine configuration from the environment and
// validates it before anything else spins up.
package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"media-index/internal/logging"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultPort          = "8080"
	DefaultMetricsPort   = "9090"
	DefaultSyncInterval  = 5 * time.Minute
	DefaultSweepInterval = time.Hour
	DefaultRetention     = 30 * 24 * time.Hour
)

// Config holds everything main needs to wire the engine together.
type Config struct {
	MediaDir    string
	DatabaseDir string

	Port        string
	MetricsPort string

	SyncInterval   time.Duration
	SweepInterval  time.Duration
	TrashRetention time.Duration
}

// DatabasePath returns the full path of the index database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DatabaseDir, "media-index.db")
}

// Load reads configuration from the environment. The media directory must
// exist; the database directory is created if missing.
func Load() (*Config, error) {
	cfg := &Config{
		MediaDir:       getEnv("MEDIA_DIR", "./media"),
		DatabaseDir:    getEnv("DATABASE_DIR", "./data"),
		Port:           getEnv("PORT", DefaultPort),
		MetricsPort:    getEnv("METRICS_PORT", DefaultMetricsPort),
		SyncInterval:   getDurationEnv("SYNC_INTERVAL", DefaultSyncInterval),
		SweepInterval:  getDurationEnv("SWEEP_INTERVAL", DefaultSweepInterval),
		TrashRetention: getDurationEnv("TRASH_RETENTION", DefaultRetention),
	}

	mediaDir, err := filepath.Abs(cfg.MediaDir)
	if err != nil {
		return nil, fmt.Errorf("resolving media dir: %w", err)
	}
	cfg.MediaDir = mediaDir

	info, err := os.Stat(cfg.MediaDir)
	if err != nil {
		return nil, fmt.Errorf("media dir %s: %w", cfg.MediaDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("media dir %s is not a directory", cfg.MediaDir)
	}

	dbDir, err := filepath.Abs(cfg.DatabaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving database dir: %w", err)
	}
	cfg.DatabaseDir = dbDir

	if err := os.MkdirAll(cfg.DatabaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database dir %s: %w", cfg.DatabaseDir, err)
	}

	if cfg.SyncInterval <= 0 {
		return nil, fmt.Errorf("SYNC_INTERVAL must be positive, got %s", cfg.SyncInterval)
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", cfg.SweepInterval)
	}
	if cfg.TrashRetention <= 0 {
		return nil, fmt.Errorf("TRASH_RETENTION must be positive, got %s", cfg.TrashRetention)
	}

	return cfg, nil
}

// LogSummary prints the effective configuration at startup.
func (c *Config) LogSummary() {
	logging.Info("media dir: %s", c.MediaDir)
	logging.Info("database: %s", c.DatabasePath())
	logging.Info("listen port: %s, metrics port: %s", c.Port, c.MetricsPort)
	logging.Info("sync every %s, sweep every %s, trash retention %s",
		c.SyncInterval, c.SweepInterval, c.TrashRetention)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDurationEnv accepts Go duration syntax ("15m") or a bare integer
// interpreted as seconds.
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	logging.Warn("invalid %s value %q, using %s", key, v, fallback)
	return fallback
}
