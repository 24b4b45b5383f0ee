package routecount

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/randalmurphal/routecount/pkg/routecount/fingerprint"
	"github.com/randalmurphal/routecount/pkg/routecount/observability"
)

// DefaultCheckpointInterval is how often a running job is checkpointed
// unless WithCheckpointInterval says otherwise.
const DefaultCheckpointInterval = time.Minute

// Option configures an Explorer or an Orchestrator.
type Option func(*config)

// config holds settings for explorers and orchestrators.
type config struct {
	workers       int
	interval      time.Duration
	checkpointFn  CheckpointFunc
	cache         *fingerprint.Cache
	maxExtensions int64
	failureFatal  bool
	retry         RetryPolicy

	jobID          string
	runID          string
	jobs           []string
	fingerprintDir string

	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	observer Observer
}

func defaultConfig() config {
	return config{
		workers:  runtime.NumCPU(),
		interval: DefaultCheckpointInterval,
		retry:    DefaultRetry,
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		observer: NoopObserver{},
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithWorkers sets how many goroutines expand steps. Each job of an
// Orchestrator gets this many. Values below 1 are ignored.
// Default: runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithCheckpointInterval sets the period between checkpoints.
// Non-positive values are ignored. Default: DefaultCheckpointInterval.
func WithCheckpointInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithCheckpointFunc sets the callback that persists snapshots.
// Explorer only; an Orchestrator installs its own.
func WithCheckpointFunc(fn CheckpointFunc) Option {
	return func(c *config) {
		c.checkpointFn = fn
	}
}

// WithFingerprints enables pruning with the given cache. A cache may only
// be reused for the same board and targets.
// Explorer only; an Orchestrator opens one cache per job, see WithFingerprintDir.
func WithFingerprints(cache *fingerprint.Cache) Option {
	return func(c *config) {
		c.cache = cache
	}
}

// WithFingerprintDir enables pruning, keeping one cache file per job in dir.
// Orchestrator only.
func WithFingerprintDir(dir string) Option {
	return func(c *config) {
		c.fingerprintDir = dir
	}
}

// WithMaxExtensions stops exploration after n steps have been expanded,
// exactly as if the context had been cancelled. Zero means unlimited.
func WithMaxExtensions(n int64) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxExtensions = n
		}
	}
}

// WithCheckpointFailureFatal makes a failed periodic checkpoint stop the job
// with an error. By default failures are logged and exploration continues.
// A failed final checkpoint is always an error.
func WithCheckpointFailureFatal(fatal bool) Option {
	return func(c *config) {
		c.failureFatal = fatal
	}
}

// WithCheckpointRetry sets how failed checkpoint saves are retried before
// they count as failures. Orchestrator only. Default: DefaultRetry.
func WithCheckpointRetry(p RetryPolicy) Option {
	return func(c *config) {
		c.retry = p
	}
}

// WithJobID labels an Explorer's logs and metrics. Explorer only.
func WithJobID(id string) Option {
	return func(c *config) {
		c.jobID = id
	}
}

// WithRunID sets the run id. Orchestrator only; default is a random UUID.
func WithRunID(id string) Option {
	return func(c *config) {
		c.runID = id
	}
}

// WithJobs restricts an Orchestrator to the given job ids.
func WithJobs(ids ...string) Option {
	return func(c *config) {
		c.jobs = append([]string(nil), ids...)
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables OpenTelemetry metrics recording.
// The recorder uses the global meter provider.
func WithMetrics(enabled bool) Option {
	return func(c *config) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// withMetricsRecorder shares an already built recorder.
func withMetricsRecorder(m observability.MetricsRecorder) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithTracing enables OpenTelemetry tracing. Orchestrator only.
// The span manager uses the global tracer provider.
func WithTracing(enabled bool) Option {
	return func(c *config) {
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithObserver sets the job lifecycle observer. Orchestrator only.
func WithObserver(o Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observer = o
		}
	}
}
