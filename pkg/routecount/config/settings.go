package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/randalmurphal/routecount/pkg/routecount"
	"github.com/randalmurphal/routecount/pkg/routecount/checkpoint"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Settings configures a counting run.
type Settings struct {
	CheckpointDir         string        `env:"ROUTECOUNT_CHECKPOINT_DIR"`
	Store                 string        `env:"ROUTECOUNT_STORE"`
	SQLitePath            string        `env:"ROUTECOUNT_SQLITE_PATH"`
	CheckpointInterval    time.Duration `env:"ROUTECOUNT_CHECKPOINT_INTERVAL"`
	FailOnCheckpointError bool          `env:"ROUTECOUNT_FAIL_ON_CHECKPOINT_ERROR"`
	CheckpointAttempts    int           `env:"ROUTECOUNT_CHECKPOINT_ATTEMPTS"`

	Fingerprints   bool   `env:"ROUTECOUNT_FINGERPRINTS"`
	FingerprintDir string `env:"ROUTECOUNT_FINGERPRINT_DIR"`

	Workers       int      `env:"ROUTECOUNT_WORKERS"`
	MaxExtensions int64    `env:"ROUTECOUNT_MAX_EXTENSIONS"`
	Jobs          []string `env:"ROUTECOUNT_JOBS" envSeparator:","`

	LogLevel string `env:"ROUTECOUNT_LOG_LEVEL"`
	Metrics  bool   `env:"ROUTECOUNT_METRICS"`
	Tracing  bool   `env:"ROUTECOUNT_TRACING"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		CheckpointDir:      "checkpoints",
		Store:              StoreFile,
		CheckpointInterval: routecount.DefaultCheckpointInterval,
		CheckpointAttempts: routecount.DefaultRetry.MaxAttempts,
		Workers:            1,
		LogLevel:           "info",
	}
}

// ApplyEnv overrides s with any ROUTECOUNT_* variables that are set.
func (s *Settings) ApplyEnv() error {
	if err := env.Parse(s); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate reports every invalid setting.
func (s Settings) Validate() error {
	var errs []error
	if s.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", s.Workers))
	}
	if s.CheckpointInterval <= 0 {
		errs = append(errs, fmt.Errorf("checkpoint interval must be positive, got %s", s.CheckpointInterval))
	}
	if s.CheckpointAttempts < 1 {
		errs = append(errs, fmt.Errorf("checkpoint attempts must be positive, got %d", s.CheckpointAttempts))
	}
	if s.MaxExtensions < 0 {
		errs = append(errs, fmt.Errorf("max extensions cannot be negative, got %d", s.MaxExtensions))
	}
	switch s.Store {
	case StoreFile:
		if s.CheckpointDir == "" {
			errs = append(errs, errors.New("checkpoint dir is required for the file store"))
		}
	case StoreSQLite:
		if s.SQLitePath == "" && s.CheckpointDir == "" {
			errs = append(errs, errors.New("sqlite path or checkpoint dir is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q (want %q or %q)", s.Store, StoreFile, StoreSQLite))
	}
	if _, err := s.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (s Settings) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s.LogLevel, err)
	}
	return level, nil
}

// OpenStore builds the configured checkpoint store.
func (s Settings) OpenStore(logger *slog.Logger) (checkpoint.Store, error) {
	switch s.Store {
	case StoreFile:
		return checkpoint.NewFileStore(s.CheckpointDir, checkpoint.WithLogger(logger))
	case StoreSQLite:
		path := s.SQLitePath
		if path == "" {
			path = filepath.Join(s.CheckpointDir, "routes.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		return checkpoint.NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store %q", s.Store)
	}
}

// Options converts the settings into orchestrator options.
func (s Settings) Options(logger *slog.Logger) []routecount.Option {
	retry := routecount.DefaultRetry
	retry.MaxAttempts = s.CheckpointAttempts
	opts := []routecount.Option{
		routecount.WithCheckpointRetry(retry),
		routecount.WithWorkers(s.Workers),
		routecount.WithCheckpointInterval(s.CheckpointInterval),
		routecount.WithMaxExtensions(s.MaxExtensions),
		routecount.WithCheckpointFailureFatal(s.FailOnCheckpointError),
		routecount.WithLogger(logger),
		routecount.WithMetrics(s.Metrics),
		routecount.WithTracing(s.Tracing),
	}
	if s.Fingerprints {
		dir := s.FingerprintDir
		if dir == "" {
			dir = s.CheckpointDir
		}
		opts = append(opts, routecount.WithFingerprintDir(dir))
	}
	if len(s.Jobs) > 0 {
		opts = append(opts, routecount.WithJobs(s.Jobs...))
	}
	return opts
}
