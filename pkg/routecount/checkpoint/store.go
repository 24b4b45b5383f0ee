// Package checkpoint provides durable per-job checkpoint storage for
// resumable route counting.
package checkpoint

import (
	"errors"
	"fmt"
	"strconv"
)

// Store persists one checkpoint per job.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save replaces the checkpoint for key. The previous checkpoint is kept
	// as a backup until the new one is complete.
	Save(key Key, cp *Checkpoint) error

	// Load retrieves the checkpoint for key.
	// Returns ErrNotFound if the job has never been checkpointed,
	// ErrIncompatible if the stored board identity differs from key,
	// and ErrCorrupt if no intact checkpoint can be read.
	Load(key Key) (*Checkpoint, error)

	// Delete removes the checkpoint and its backup.
	// Returns nil if nothing is stored.
	Delete(key Key) error

	// Close releases any resources (connections, files).
	Close() error
}

// Key identifies one job's checkpoint.
type Key struct {
	Shape string
	Size  int
	JobID string
}

// String renders the key as "shape-size-job", which is also the file stem
// used by FileStore.
func (k Key) String() string {
	return k.Shape + "-" + strconv.Itoa(k.Size) + "-" + k.JobID
}

// Location returns where s keeps the checkpoint for key, for messages.
// Stores that implement Path(Key) string report that; others report the key.
func Location(s Store, key Key) string {
	if p, ok := s.(interface{ Path(Key) string }); ok {
		return p.Path(key)
	}
	return key.String()
}

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates no checkpoint exists; the job starts fresh.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")

	// ErrIncompatible indicates the checkpoint belongs to a different board.
	ErrIncompatible = errors.New("incompatible checkpoint")

	// ErrCorrupt indicates a checkpoint exists but is malformed.
	ErrCorrupt = errors.New("corrupt checkpoint")
)

// Error attaches job and location context to a store failure.
type Error struct {
	// Op is the operation that failed ("save", "load", "delete").
	Op string
	// JobID is the job the checkpoint belongs to.
	JobID string
	// Path is the file path or database location.
	Path string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("checkpoint %s job %s (%s): %v", e.Op, e.JobID, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// checkIdentity rejects a checkpoint whose board identity differs from key.
func checkIdentity(key Key, cp *Checkpoint) error {
	if cp.Shape != key.Shape || cp.Size != key.Size {
		return fmt.Errorf("%w: stored board %s/%d, running %s/%d",
			ErrIncompatible, cp.Shape, cp.Size, key.Shape, key.Size)
	}
	return nil
}
