package routecount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/routecount/pkg/routecount/observability"
)

// Progress is the running total of a job.
type Progress struct {
	// Routes is the number of completed routes counted so far.
	Routes int64
	// Elapsed is the cumulative exploration time across all sessions.
	Elapsed time.Duration
}

// Work is the input to Explorer.Run.
type Work struct {
	// Frontier is the set of steps still to explore: fresh Roots or a decoded checkpoint.
	Frontier []*Step
	// Targets are the end terminals routes are counted to.
	Targets []Position
	// Progress is carried over from earlier sessions.
	Progress Progress
}

// Snapshot is a consistent view of an exploration: the remaining frontier
// and the progress of everything already removed from it.
type Snapshot struct {
	Frontier []*Step
	Progress Progress
	// Final marks the snapshot taken when Run stops.
	Final bool
}

// CheckpointFunc persists a snapshot. It is called from a single goroutine,
// in snapshot order.
type CheckpointFunc func(ctx context.Context, snap Snapshot) error

// Outcome is the result of Explorer.Run.
type Outcome struct {
	// Progress includes the carried-over progress.
	Progress Progress
	// Frontier is what remains; empty when Done.
	Frontier []*Step
	// Done is true when the frontier was exhausted.
	Done bool
	// Extensions is the number of steps expanded in this session.
	Extensions int64
	// Pruned is the number of steps skipped by fingerprint.
	Pruned int64
}

// Explorer counts routes by expanding a frontier to exhaustion with a pool
// of workers, checkpointing periodically.
//
// Routes never pass through a terminal: a continuation onto a target counts
// one route, and a continuation onto any other terminal is dropped.
//
// An Explorer is reusable; each Run is independent.
type Explorer struct {
	board Board
	cfg   config
}

// NewExplorer creates an Explorer for b.
func NewExplorer(b Board, opts ...Option) (*Explorer, error) {
	if b == nil {
		return nil, ErrNilBoard
	}
	return &Explorer{board: b, cfg: newConfig(opts)}, nil
}

// Run explores work.Frontier until it is exhausted, ctx is cancelled, or the
// extension budget runs out.
//
// Cancellation is not an error: steps already taken finish, a final
// checkpoint is written, and the partial Outcome is returned with a nil error.
// Run fails when a worker panics, when the final checkpoint cannot be written,
// or when a periodic checkpoint fails under WithCheckpointFailureFatal.
func (e *Explorer) Run(ctx context.Context, work Work) (Outcome, error) {
	if ctx == nil {
		return Outcome{}, ErrNilContext
	}

	targets := make([]bool, e.board.Positions())
	for _, t := range work.Targets {
		if !validPosition(e.board, int(t)) {
			return Outcome{}, fmt.Errorf("target %d out of range [0,%d)", t, e.board.Positions())
		}
		targets[t] = true
	}

	cfg := e.cfg
	logger := cfg.logger
	budget := int64(-1)
	if cfg.maxExtensions > 0 {
		budget = cfg.maxExtensions
	}

	start := time.Now()
	var routes, pruned atomic.Int64
	routes.Store(work.Progress.Routes)
	progress := func() Progress {
		return Progress{
			Routes:  routes.Load(),
			Elapsed: work.Progress.Elapsed + time.Since(start),
		}
	}

	list := newWorklist(cfg.workers, work.Frontier, budget)
	if ctx.Err() != nil {
		list.close()
	}
	stop := context.AfterFunc(ctx, list.close)
	defer stop()

	w := newSnapshotWriter(context.WithoutCancel(ctx), cfg, logger, list.close)

	var (
		panicOnce sync.Once
		panicErr  error
	)

	var workers sync.WaitGroup
	for i := range list.shards {
		workers.Add(1)
		go func(id int) {
			defer workers.Done()
			x := newExpander(e.board, targets, cfg.cache)
			for {
				s, ok := list.take(id)
				if !ok {
					return
				}
				out, err := expandSafely(x, s, cfg.jobID)
				if err != nil {
					// Put the step back so the frontier stays complete.
					list.put(id, []*Step{s})
					panicOnce.Do(func() { panicErr = err })
					list.close()
					return
				}
				if out.pruned {
					pruned.Add(1)
				}
				routes.Add(out.routes)
				list.put(id, out.children)
			}
		}(i)
	}

	ticks := make(chan struct{})
	var ticker sync.WaitGroup
	if cfg.checkpointFn != nil {
		ticker.Add(1)
		go func() {
			defer ticker.Done()
			t := time.NewTicker(cfg.interval)
			defer t.Stop()
			for {
				select {
				case <-ticks:
					return
				case <-t.C:
					frontier, ok := list.pause()
					if !ok {
						return
					}
					snap := Snapshot{Frontier: frontier, Progress: progress()}
					list.resume()
					w.submit(snap)
				}
			}
		}()
	}

	workers.Wait()
	close(ticks)
	ticker.Wait()

	frontier := list.remaining()
	out := Outcome{
		Progress:   progress(),
		Frontier:   frontier,
		Done:       len(frontier) == 0,
		Extensions: list.extensions(),
		Pruned:     pruned.Load(),
	}

	w.submit(Snapshot{Frontier: frontier, Progress: out.Progress, Final: true})
	ckErr := w.close()

	cfg.metrics.RecordRoutes(ctx, cfg.jobID, out.Progress.Routes-work.Progress.Routes)
	cfg.metrics.RecordExtensions(ctx, cfg.jobID, out.Extensions)
	if cfg.cache != nil {
		if err := cfg.cache.Flush(); err != nil {
			logger.Warn("fingerprint flush failed",
				slog.String("job_id", cfg.jobID),
				slog.String("error", err.Error()),
			)
		}
	}

	return out, errors.Join(panicErr, ckErr)
}

// expandSafely runs one expansion, turning a panic into a *PanicError.
func expandSafely(x *expander, s *Step, jobID string) (out expansion, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{JobID: jobID, Value: r, Stack: string(debug.Stack())}
		}
	}()
	return x.expand(s), nil
}

// snapshotWriter hands snapshots to the checkpoint callback on its own
// goroutine. Only the newest waiting snapshot is kept; the final one is
// always written.
type snapshotWriter struct {
	ctx    context.Context
	fn     CheckpointFunc
	logger *slog.Logger
	jobID  string
	fatal  bool
	abort  func()

	mu      sync.Mutex
	cond    *sync.Cond
	next    *Snapshot
	closing bool

	done chan struct{}
	err  error
}

func newSnapshotWriter(ctx context.Context, cfg config, logger *slog.Logger, abort func()) *snapshotWriter {
	w := &snapshotWriter{
		ctx:    ctx,
		fn:     cfg.checkpointFn,
		logger: logger,
		jobID:  cfg.jobID,
		fatal:  cfg.failureFatal,
		abort:  abort,
		done:   make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.loop()
	return w
}

func (w *snapshotWriter) submit(snap Snapshot) {
	w.mu.Lock()
	if w.next == nil || !w.next.Final {
		w.next = &snap
	}
	w.cond.Signal()
	w.mu.Unlock()
}

// close waits for every submitted snapshot to be handled and returns the
// first error that stops the job.
func (w *snapshotWriter) close() error {
	w.mu.Lock()
	w.closing = true
	w.cond.Signal()
	w.mu.Unlock()
	<-w.done
	return w.err
}

func (w *snapshotWriter) loop() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for w.next == nil && !w.closing {
			w.cond.Wait()
		}
		snap := w.next
		w.next = nil
		w.mu.Unlock()

		if snap == nil {
			return
		}
		w.write(*snap)
	}
}

// save calls the checkpoint callback, turning a panic into a *PanicError.
func (w *snapshotWriter) save(snap Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{JobID: w.jobID, Value: r, Stack: string(debug.Stack())}
		}
	}()
	return w.fn(w.ctx, snap)
}

// write saves snap. A panicking callback stops the job like a final failure.
func (w *snapshotWriter) write(snap Snapshot) {
	if w.fn == nil {
		return
	}
	err := w.save(snap)
	if err == nil {
		return
	}
	op := "periodic"
	if snap.Final {
		op = "final"
	}
	observability.LogCheckpointError(w.logger, w.jobID, op, err)

	var pe *PanicError
	if snap.Final || w.fatal || errors.As(err, &pe) {
		if w.err == nil {
			w.err = &CheckpointError{Final: snap.Final, Err: err}
		}
		w.abort()
	}
}
