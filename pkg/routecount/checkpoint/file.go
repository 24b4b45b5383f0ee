package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/randalmurphal/routecount/pkg/routecount/observability"
)

// backupSuffix is appended to a checkpoint path to name its backup.
const backupSuffix = ".bak"

// FileStore persists each job's checkpoint as a JSON file in a directory.
//
// Save moves the existing file to a backup before writing the new content,
// so after a crash at most one of {current, backup} is incomplete. Load
// falls back to the backup when the current file is missing or damaged.
type FileStore struct {
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	closed bool
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithLogger sets the logger used to report backup recovery.
func WithLogger(logger *slog.Logger) FileOption {
	return func(s *FileStore) {
		s.logger = logger
	}
}

// NewFileStore creates a file checkpoint store rooted at dir.
// The directory is created if needed.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	s := &FileStore{
		dir:    dir,
		logger: slog.Default(),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the checkpoint file path for key.
func (s *FileStore) Path(key Key) string {
	return filepath.Join(s.dir, key.String()+".json")
}

// BackupPath returns the backup file path for key.
func (s *FileStore) BackupPath(key Key) string {
	return s.Path(key) + backupSuffix
}

// lock returns the held per-key mutex. Callers must unlock it.
func (s *FileStore) lock(key Key) (*sync.Mutex, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	name := key.String()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l, nil
}

// Save implements Store.
func (s *FileStore) Save(key Key, cp *Checkpoint) error {
	path := s.Path(key)
	wrap := func(err error) error {
		return &Error{Op: "save", JobID: key.JobID, Path: path, Err: err}
	}

	if err := checkIdentity(key, cp); err != nil {
		return wrap(err)
	}
	data, err := cp.Marshal()
	if err != nil {
		return wrap(fmt.Errorf("marshal: %w", err))
	}

	l, err := s.lock(key)
	if err != nil {
		return wrap(err)
	}
	defer l.Unlock()

	// Rename replaces any prior backup atomically.
	if err := os.Rename(path, s.BackupPath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return wrap(fmt.Errorf("rotate backup: %w", err))
	}
	if err := writeFresh(path, data); err != nil {
		return wrap(err)
	}
	return nil
}

// writeFresh creates path, writes data and syncs both file and directory.
func writeFresh(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if dir, err := os.Open(filepath.Dir(path)); err == nil {
		_ = dir.Sync()
		dir.Close()
	}
	return nil
}

// Load implements Store.
func (s *FileStore) Load(key Key) (*Checkpoint, error) {
	path := s.Path(key)
	backup := s.BackupPath(key)

	l, err := s.lock(key)
	if err != nil {
		return nil, &Error{Op: "load", JobID: key.JobID, Path: path, Err: err}
	}
	defer l.Unlock()

	cp, curErr := readFile(path, key)
	if curErr == nil {
		return cp, nil
	}
	if errors.Is(curErr, ErrIncompatible) {
		return nil, &Error{Op: "load", JobID: key.JobID, Path: path, Err: curErr}
	}

	prior, bakErr := readFile(backup, key)
	switch {
	case bakErr == nil:
		observability.LogCheckpointRecovered(s.logger, key.JobID, backup, curErr)
		return prior, nil
	case errors.Is(bakErr, fs.ErrNotExist) && errors.Is(curErr, fs.ErrNotExist):
		return nil, &Error{Op: "load", JobID: key.JobID, Path: path, Err: ErrNotFound}
	case errors.Is(bakErr, fs.ErrNotExist):
		return nil, &Error{Op: "load", JobID: key.JobID, Path: path, Err: curErr}
	default:
		return nil, &Error{Op: "load", JobID: key.JobID, Path: backup, Err: bakErr}
	}
}

// readFile reads and validates one checkpoint file.
func readFile(path string, key Key) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read: %v", ErrCorrupt, err)
	}
	cp, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if err := checkIdentity(key, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

// Delete implements Store.
func (s *FileStore) Delete(key Key) error {
	path := s.Path(key)
	l, err := s.lock(key)
	if err != nil {
		return &Error{Op: "delete", JobID: key.JobID, Path: path, Err: err}
	}
	defer l.Unlock()

	for _, p := range []string{path, s.BackupPath(key)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &Error{Op: "delete", JobID: key.JobID, Path: p, Err: err}
		}
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
