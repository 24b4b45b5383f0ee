package routecount

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/routecount/pkg/routecount/checkpoint"
	"github.com/randalmurphal/routecount/pkg/routecount/fingerprint"
)

// Sentinel errors for checkpoint compatibility.
// They alias the checkpoint and fingerprint packages' sentinels so
// errors.Is works across package boundaries.
var (
	// ErrIncompatibleCheckpoint indicates a checkpoint was written for a
	// different board or job. Fatal for that job.
	ErrIncompatibleCheckpoint = checkpoint.ErrIncompatible

	// ErrCorruptCheckpoint indicates a malformed checkpoint. Fatal for that
	// job; never treated as "no checkpoint".
	ErrCorruptCheckpoint = checkpoint.ErrCorrupt

	// ErrCacheUnavailable indicates the fingerprint cache cannot be used.
	// Recoverable: the job continues without pruning.
	ErrCacheUnavailable = fingerprint.ErrUnavailable
)

// Sentinel errors for configuration.
var (
	// ErrNilBoard indicates a nil Board was supplied.
	ErrNilBoard = errors.New("board cannot be nil")

	// ErrNilStore indicates a nil checkpoint store was supplied.
	ErrNilStore = errors.New("checkpoint store cannot be nil")

	// ErrNilContext indicates Run was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrUnknownJob indicates a requested job id has no terminal pairs.
	ErrUnknownJob = errors.New("unknown job")
)

// DecodeError reports the footprint at which decoding failed.
type DecodeError struct {
	// Index is the position of the footprint in the checkpoint array.
	Index int
	// ID is the footprint's id.
	ID int64
	// Err is the underlying error; it wraps ErrCorruptCheckpoint.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode step %d (id %d): %v", e.Index, e.ID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// CheckpointError wraps errors from writing a checkpoint during exploration.
type CheckpointError struct {
	// Final is true for the checkpoint taken when exploration stops.
	Final bool
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CheckpointError) Error() string {
	if e.Final {
		return fmt.Sprintf("final checkpoint: %v", e.Err)
	}
	return fmt.Sprintf("checkpoint: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CheckpointError) Unwrap() error {
	return e.Err
}

// JobError attaches job identity and checkpoint location to a job failure.
type JobError struct {
	// JobID is the failed job.
	JobID string
	// Path is the job's checkpoint location.
	Path string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *JobError) Error() string {
	return fmt.Sprintf("job %s (%s): %v", e.JobID, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *JobError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised inside a job.
type PanicError struct {
	// JobID is the job that panicked.
	JobID string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("job %s panicked: %v", e.JobID, e.Value)
}
