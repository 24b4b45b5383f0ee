package checkpoint

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Slot names for the two rows a job can hold.
const (
	slotCurrent = "current"
	slotBackup  = "backup"
)

// SQLiteStore persists checkpoints to SQLite.
// Rotation of the current checkpoint into the backup slot and insertion of
// the new one happen in a single transaction.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite checkpoint store.
// The path should be a file path (e.g., "./checkpoints.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS route_checkpoints (
			shape TEXT NOT NULL,
			size INTEGER NOT NULL,
			job_id TEXT NOT NULL,
			slot TEXT NOT NULL,
			saved_at TEXT NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (shape, size, job_id, slot)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database location of key's checkpoint.
func (s *SQLiteStore) Path(key Key) string {
	return s.path + "#" + key.String()
}

// Save implements Store.
func (s *SQLiteStore) Save(key Key, cp *Checkpoint) error {
	wrap := func(err error) error {
		return &Error{Op: "save", JobID: key.JobID, Path: s.path, Err: err}
	}
	if err := checkIdentity(key, cp); err != nil {
		return wrap(err)
	}
	data, err := cp.Marshal()
	if err != nil {
		return wrap(fmt.Errorf("marshal: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return wrap(ErrStoreClosed)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return wrap(fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(`
		DELETE FROM route_checkpoints
		WHERE shape = ? AND size = ? AND job_id = ? AND slot = ?
	`, key.Shape, key.Size, key.JobID, slotBackup); err != nil {
		return wrap(fmt.Errorf("drop backup: %w", err))
	}
	if _, err := tx.Exec(`
		UPDATE route_checkpoints SET slot = ?
		WHERE shape = ? AND size = ? AND job_id = ? AND slot = ?
	`, slotBackup, key.Shape, key.Size, key.JobID, slotCurrent); err != nil {
		return wrap(fmt.Errorf("rotate backup: %w", err))
	}
	if _, err := tx.Exec(`
		INSERT INTO route_checkpoints (shape, size, job_id, slot, saved_at, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`, key.Shape, key.Size, key.JobID, slotCurrent, time.Now().UTC().Format(time.RFC3339Nano), data); err != nil {
		return wrap(fmt.Errorf("insert: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return wrap(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(key Key) (*Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wrap := func(err error) error {
		return &Error{Op: "load", JobID: key.JobID, Path: s.path, Err: err}
	}
	if s.closed {
		return nil, wrap(ErrStoreClosed)
	}

	var data []byte
	err := s.db.QueryRow(`
		SELECT data FROM route_checkpoints
		WHERE shape = ? AND size = ? AND job_id = ? AND slot = ?
	`, key.Shape, key.Size, key.JobID, slotCurrent).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wrap(ErrNotFound)
	}
	if err != nil {
		return nil, wrap(fmt.Errorf("query: %w", err))
	}

	cp, err := Unmarshal(data)
	if err != nil {
		return nil, wrap(err)
	}
	if err := checkIdentity(key, cp); err != nil {
		return nil, wrap(err)
	}
	return cp, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		DELETE FROM route_checkpoints
		WHERE shape = ? AND size = ? AND job_id = ?
	`, key.Shape, key.Size, key.JobID)
	if err != nil {
		return &Error{Op: "delete", JobID: key.JobID, Path: s.path, Err: err}
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
