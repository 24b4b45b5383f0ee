package routecount

import (
	"context"
	"log/slog"
	"time"
)

// Observer receives job lifecycle notifications from an Orchestrator.
//
// Jobs run concurrently, so implementations must be safe for concurrent use.
// Callbacks run on the job's own goroutines; slow observers slow the job.
type Observer interface {
	OnJobStart(ctx context.Context, ev *JobStartEvent)
	OnCheckpoint(ctx context.Context, ev *CheckpointEvent)
	OnJobFinish(ctx context.Context, ev *JobFinishEvent)
}

// JobStartEvent is sent when a job has loaded its frontier.
type JobStartEvent struct {
	RunID    string
	JobID    string
	Start    Position
	Targets  []Position
	Resumed  bool
	Frontier int
	Progress Progress
}

// CheckpointEvent is sent after each checkpoint save attempt.
type CheckpointEvent struct {
	RunID    string
	JobID    string
	Path     string
	Steps    int
	Progress Progress
	Final    bool
	// Attempts is how many saves were tried, see WithCheckpointRetry.
	Attempts int
	// Err is set when the last attempt failed.
	Err error
}

// JobFinishEvent is sent when a job stops for any reason.
type JobFinishEvent struct {
	RunID    string
	JobID    string
	Path     string
	Progress Progress
	Done     bool
	Duration time.Duration
	Err      error
}

// NoopObserver ignores every notification.
type NoopObserver struct{}

var _ Observer = NoopObserver{}

// OnJobStart implements Observer.
func (NoopObserver) OnJobStart(context.Context, *JobStartEvent) {}

// OnCheckpoint implements Observer.
func (NoopObserver) OnCheckpoint(context.Context, *CheckpointEvent) {}

// OnJobFinish implements Observer.
func (NoopObserver) OnJobFinish(context.Context, *JobFinishEvent) {}

// MultiObserver fans notifications out to several observers in order.
type MultiObserver []Observer

var _ Observer = MultiObserver(nil)

// OnJobStart implements Observer.
func (m MultiObserver) OnJobStart(ctx context.Context, ev *JobStartEvent) {
	for _, o := range m {
		o.OnJobStart(ctx, ev)
	}
}

// OnCheckpoint implements Observer.
func (m MultiObserver) OnCheckpoint(ctx context.Context, ev *CheckpointEvent) {
	for _, o := range m {
		o.OnCheckpoint(ctx, ev)
	}
}

// OnJobFinish implements Observer.
func (m MultiObserver) OnJobFinish(ctx context.Context, ev *JobFinishEvent) {
	for _, o := range m {
		o.OnJobFinish(ctx, ev)
	}
}

// SlogObserver logs every notification at Level. Failures are logged at
// slog.LevelError regardless of Level. A nil *SlogObserver logs nothing.
type SlogObserver struct {
	Logger *slog.Logger
	Level  slog.Level
}

var _ Observer = (*SlogObserver)(nil)

// NewSlogObserver returns an observer logging to logger at level.
func NewSlogObserver(logger *slog.Logger, level slog.Level) *SlogObserver {
	return &SlogObserver{Logger: logger, Level: level}
}

// OnJobStart implements Observer.
func (o *SlogObserver) OnJobStart(ctx context.Context, ev *JobStartEvent) {
	if o == nil {
		return
	}
	o.log(ctx, o.Level, "job start",
		slog.String("run_id", ev.RunID),
		slog.String("job_id", ev.JobID),
		slog.Int("start", int(ev.Start)),
		slog.Int("targets", len(ev.Targets)),
		slog.Bool("resumed", ev.Resumed),
		slog.Int("frontier", ev.Frontier),
		slog.Int64("routes", ev.Progress.Routes),
	)
}

// OnCheckpoint implements Observer.
func (o *SlogObserver) OnCheckpoint(ctx context.Context, ev *CheckpointEvent) {
	if o == nil {
		return
	}
	level := o.Level
	attrs := []slog.Attr{
		slog.String("run_id", ev.RunID),
		slog.String("job_id", ev.JobID),
		slog.String("path", ev.Path),
		slog.Int("steps", ev.Steps),
		slog.Int64("routes", ev.Progress.Routes),
		slog.Bool("final", ev.Final),
		slog.Int("attempts", ev.Attempts),
	}
	if ev.Err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", ev.Err.Error()))
	}
	o.log(ctx, level, "job checkpoint", attrs...)
}

// OnJobFinish implements Observer.
func (o *SlogObserver) OnJobFinish(ctx context.Context, ev *JobFinishEvent) {
	if o == nil {
		return
	}
	level := o.Level
	attrs := []slog.Attr{
		slog.String("run_id", ev.RunID),
		slog.String("job_id", ev.JobID),
		slog.Int64("routes", ev.Progress.Routes),
		slog.Duration("elapsed", ev.Progress.Elapsed),
		slog.Bool("done", ev.Done),
		slog.Duration("duration", ev.Duration),
	}
	if ev.Err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", ev.Err.Error()))
	}
	o.log(ctx, level, "job finish", attrs...)
}

func (o *SlogObserver) log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	if o.Logger == nil {
		return
	}
	o.Logger.LogAttrs(ctx, level, msg, attrs...)
}
