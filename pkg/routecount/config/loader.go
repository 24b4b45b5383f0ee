package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromFile loads settings from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json. Keys the file does not name
// keep their Default values.
func FromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Settings{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML settings.
func FromYAML(data []byte) (Settings, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parse yaml: %w", err)
	}
	return fromValues(NewValues(m)), nil
}

// FromJSON parses JSON settings.
func FromJSON(data []byte) (Settings, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parse json: %w", err)
	}
	return fromValues(NewValues(m)), nil
}

// fromValues overlays a decoded document on Default.
//
//	checkpoint:
//	  dir: ./checkpoints
//	  store: file            # or sqlite
//	  sqlite_path: ./checkpoints/routes.db
//	  interval: 30s
//	  fail_on_error: false
//	  attempts: 3
//	fingerprints:
//	  enabled: true
//	  dir: ./fingerprints
//	workers: 8
//	max_extensions: 0
//	jobs: [0, 12]
//	log_level: info
//	metrics: false
//	tracing: false
func fromValues(v Values) Settings {
	s := Default()

	cp := v.Section("checkpoint")
	s.CheckpointDir = cp.String("dir", s.CheckpointDir)
	s.Store = cp.String("store", s.Store)
	s.SQLitePath = cp.String("sqlite_path", s.SQLitePath)
	s.CheckpointInterval = cp.Duration("interval", s.CheckpointInterval)
	s.FailOnCheckpointError = cp.Bool("fail_on_error", s.FailOnCheckpointError)
	s.CheckpointAttempts = cp.Int("attempts", s.CheckpointAttempts)

	fp := v.Section("fingerprints")
	s.Fingerprints = fp.Bool("enabled", s.Fingerprints)
	s.FingerprintDir = fp.String("dir", s.FingerprintDir)

	s.Workers = v.Int("workers", s.Workers)
	s.MaxExtensions = int64(v.Int("max_extensions", int(s.MaxExtensions)))
	s.Jobs = v.Strings("jobs", s.Jobs)
	s.LogLevel = v.String("log_level", s.LogLevel)
	s.Metrics = v.Bool("metrics", s.Metrics)
	s.Tracing = v.Bool("tracing", s.Tracing)
	return s
}
