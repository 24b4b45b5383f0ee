package routecount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/routecount/pkg/routecount/checkpoint"
	"github.com/randalmurphal/routecount/pkg/routecount/fingerprint"
	"github.com/randalmurphal/routecount/pkg/routecount/observability"
)

// Orchestrator runs one job per start terminal of a board, concurrently,
// each with its own checkpoint in a Store.
type Orchestrator struct {
	board Board
	store checkpoint.Store
	cfg   config
}

// NewOrchestrator creates an Orchestrator for b persisting to store.
func NewOrchestrator(b Board, store checkpoint.Store, opts ...Option) (*Orchestrator, error) {
	if b == nil {
		return nil, ErrNilBoard
	}
	if store == nil {
		return nil, ErrNilStore
	}
	return &Orchestrator{board: b, store: store, cfg: newConfig(opts)}, nil
}

// Jobs returns the jobs a Run would execute, honoring WithJobs.
func (o *Orchestrator) Jobs() ([]Job, error) {
	all := PlanJobs(o.board)
	if len(o.cfg.jobs) == 0 {
		return all, nil
	}
	selected := make([]Job, 0, len(o.cfg.jobs))
	for _, id := range o.cfg.jobs {
		i := slices.IndexFunc(all, func(j Job) bool { return j.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownJob, id)
		}
		if !slices.ContainsFunc(selected, func(j Job) bool { return j.ID == id }) {
			selected = append(selected, all[i])
		}
	}
	return selected, nil
}

// Key returns the store key of job.
func (o *Orchestrator) Key(job Job) checkpoint.Key {
	return checkpoint.Key{Shape: o.board.Name(), Size: o.board.Size(), JobID: job.ID}
}

// Run executes every job under ctx and waits for all of them.
//
// Jobs fail independently: a failed job is reported in its JobResult and
// the others continue. The returned error joins every job's error.
// Cancelling ctx stops all jobs after a final checkpoint; that is not an error.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	if ctx == nil {
		return Result{}, ErrNilContext
	}

	runID := o.cfg.runID
	if runID == "" {
		runID = uuid.New().String()
	}
	jobs, err := o.Jobs()
	if err != nil {
		return Result{RunID: runID}, err
	}

	ctx, span := o.cfg.spans.StartRunSpan(ctx, o.board.Name(), runID)
	observability.LogRunStart(o.cfg.logger, runID, o.board.Name(), len(jobs))

	results := make([]JobResult, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = o.runJob(ctx, runID, job)
		}()
	}
	wg.Wait()

	res := Result{RunID: runID, Jobs: results, Progress: Aggregate(results)}
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	runErr := errors.Join(errs...)

	observability.LogRunComplete(o.cfg.logger, runID, res.Progress.Routes, res.Progress.Elapsed, len(errs))
	o.cfg.spans.EndSpanWithError(span, runErr)
	return res, runErr
}

// runJob runs one job to completion, cancellation, or failure.
func (o *Orchestrator) runJob(ctx context.Context, runID string, job Job) (res JobResult) {
	key := o.Key(job)
	res = JobResult{Job: job, Path: checkpoint.Location(o.store, key)}
	logger := observability.EnrichLogger(o.cfg.logger, runID)
	started := time.Now()

	ctx, span := o.cfg.spans.StartJobSpan(ctx, job.ID)

	defer func() {
		if r := recover(); r != nil {
			res.Err = &PanicError{JobID: job.ID, Value: r, Stack: string(debug.Stack())}
		}
		res.Err = jobError(job.ID, res.Path, res.Err)
		duration := time.Since(started)
		err := guard(job.ID, func() {
			o.cfg.observer.OnJobFinish(ctx, &JobFinishEvent{
				RunID:    runID,
				JobID:    job.ID,
				Path:     res.Path,
				Progress: res.Progress,
				Done:     res.Done,
				Duration: duration,
				Err:      res.Err,
			})
		})
		if err != nil && res.Err == nil {
			res.Err = jobError(job.ID, res.Path, err)
		}

		if res.Err != nil {
			observability.LogJobError(logger, job.ID, res.Path, res.Err)
		} else {
			observability.LogJobComplete(logger, job.ID, res.Progress.Routes, res.Progress.Elapsed, res.Done)
		}
		err = guard(job.ID, func() {
			o.cfg.metrics.RecordJob(ctx, job.ID, res.status(), duration)
			o.cfg.spans.EndSpanWithError(span, res.Err)
		})
		if err != nil {
			observability.LogJobError(logger, job.ID, res.Path, err)
		}
	}()

	work, resumed, err := o.prepare(key, job)
	if err != nil {
		res.Err = err
		return res
	}
	res.Resumed = resumed
	res.Progress = work.Progress

	observability.LogJobStart(logger, job.ID, resumed, len(work.Frontier), work.Progress.Routes)
	err = guard(job.ID, func() {
		o.cfg.observer.OnJobStart(ctx, &JobStartEvent{
			RunID:    runID,
			JobID:    job.ID,
			Start:    job.Start,
			Targets:  job.Targets,
			Resumed:  resumed,
			Frontier: len(work.Frontier),
			Progress: work.Progress,
		})
	})
	if err != nil {
		res.Err = err
		return res
	}

	save := o.persist(runID, key, job, res.Path, logger)
	if !resumed {
		err := save(ctx, Snapshot{Frontier: work.Frontier, Progress: work.Progress})
		if err != nil {
			observability.LogCheckpointError(logger, job.ID, "initial", err)
			if o.cfg.failureFatal {
				res.Err = &CheckpointError{Err: err}
				return res
			}
		}
	}

	cache := o.openCache(key, logger)
	defer func() {
		if err := cache.Close(); err != nil {
			observability.LogCheckpointError(logger, job.ID, "fingerprints", err)
		}
	}()

	opts := []Option{
		WithWorkers(o.cfg.workers),
		WithCheckpointInterval(o.cfg.interval),
		WithCheckpointFunc(save),
		WithFingerprints(cache),
		WithMaxExtensions(o.cfg.maxExtensions),
		WithCheckpointFailureFatal(o.cfg.failureFatal),
		WithJobID(job.ID),
		WithLogger(logger),
		withMetricsRecorder(o.cfg.metrics),
	}
	ex, err := NewExplorer(o.board, opts...)
	if err != nil {
		res.Err = err
		return res
	}

	out, err := ex.Run(ctx, work)
	res.Progress = out.Progress
	res.Done = out.Done
	res.Extensions = out.Extensions
	res.Pruned = out.Pruned
	res.Err = err

	o.cfg.spans.AddSpanEvent(ctx, "job.explored",
		attribute.Int64("routes", out.Progress.Routes),
		attribute.Int64("extensions", out.Extensions),
		attribute.Bool("done", out.Done),
	)
	return res
}

// prepare loads the job's checkpoint, or builds fresh roots when there is none.
func (o *Orchestrator) prepare(key checkpoint.Key, job Job) (Work, bool, error) {
	cp, err := o.store.Load(key)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return Work{Frontier: Roots(o.board, job.Start), Targets: job.Targets}, false, nil
	}
	if err != nil {
		return Work{}, false, err
	}

	if want := job.terminalNodes(); !slices.Equal(cp.TerminalNodes, want) {
		return Work{}, false, fmt.Errorf("%w: terminals %v, job expects %v",
			ErrIncompatibleCheckpoint, cp.TerminalNodes, want)
	}

	frontier, err := Decode(cp.Steps, o.board)
	if err != nil {
		return Work{}, false, err
	}
	return Work{
		Frontier: frontier,
		Targets:  job.Targets,
		Progress: Progress{
			Routes:  cp.Progress.RouteCount,
			Elapsed: time.Duration(cp.Progress.ElapsedTime),
		},
	}, true, nil
}

// persist returns the checkpoint callback for job.
func (o *Orchestrator) persist(runID string, key checkpoint.Key, job Job, path string, logger *slog.Logger) CheckpointFunc {
	terminals := job.terminalNodes()
	return func(ctx context.Context, snap Snapshot) error {
		steps := Encode(snap.Frontier)
		cp := checkpoint.New(o.board.Name(), o.board.Size(), terminals, checkpoint.Progress{
			RouteCount:  snap.Progress.Routes,
			ElapsedTime: checkpoint.Duration(roundElapsed(snap.Progress.Elapsed)),
		}, steps)

		attempts, err := retry(ctx, o.cfg.retry, func() error {
			return o.store.Save(key, cp)
		})
		o.cfg.observer.OnCheckpoint(ctx, &CheckpointEvent{
			RunID:    runID,
			JobID:    job.ID,
			Path:     path,
			Steps:    len(steps),
			Progress: snap.Progress,
			Final:    snap.Final,
			Attempts: attempts,
			Err:      err,
		})
		if err != nil {
			return err
		}
		if attempts > 1 {
			logger.Warn("checkpoint saved after retry",
				slog.String("job_id", job.ID),
				slog.Int("attempts", attempts),
			)
		}
		observability.LogCheckpoint(logger, job.ID, len(steps), snap.Progress.Routes)
		o.cfg.metrics.RecordCheckpoint(ctx, job.ID, len(steps))
		return nil
	}
}

// openCache opens the job's fingerprint cache. Pruning is disabled (nil
// cache) when no directory is configured or the file cannot be used.
func (o *Orchestrator) openCache(key checkpoint.Key, logger *slog.Logger) *fingerprint.Cache {
	if o.cfg.fingerprintDir == "" {
		return nil
	}
	path := filepath.Join(o.cfg.fingerprintDir, key.String()+".fingerprints")
	cache, err := fingerprint.Open(path)
	if err != nil {
		observability.LogCacheUnavailable(logger, key.JobID, err)
		return nil
	}
	if n := cache.Skipped(); n > 0 {
		logger.Warn("fingerprint cache had damaged lines",
			slog.String("path", path),
			slog.Int("skipped", n),
		)
	}
	return cache
}

// guard runs fn, turning a panic into a *PanicError for jobID.
func guard(jobID string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{JobID: jobID, Value: r, Stack: string(debug.Stack())}
		}
	}()
	fn()
	return nil
}

// jobError wraps err in a *JobError unless it already is one.
func jobError(jobID, path string, err error) error {
	if err == nil {
		return nil
	}
	var je *JobError
	if errors.As(err, &je) {
		return err
	}
	return &JobError{JobID: jobID, Path: path, Err: err}
}
