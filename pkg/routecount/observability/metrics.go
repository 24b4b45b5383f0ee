package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records route counting metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordRoutes adds completed routes found by a job.
	RecordRoutes(ctx context.Context, jobID string, n int64)

	// RecordExtensions adds expanded steps for a job.
	RecordExtensions(ctx context.Context, jobID string, n int64)

	// RecordJob records a job ending with the given status.
	RecordJob(ctx context.Context, jobID, status string, duration time.Duration)

	// RecordCheckpoint records a checkpoint save and its frontier size.
	RecordCheckpoint(ctx context.Context, jobID string, steps int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	routes          metric.Int64Counter
	extensions      metric.Int64Counter
	jobRuns         metric.Int64Counter
	jobLatency      metric.Float64Histogram
	checkpointSteps metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the shared OTel instruments.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("routecount")

	routes, err := meter.Int64Counter("routecount.routes",
		metric.WithDescription("Number of completed routes counted"),
	)
	if err != nil {
		return nil, err
	}

	extensions, err := meter.Int64Counter("routecount.extensions",
		metric.WithDescription("Number of frontier steps expanded"),
	)
	if err != nil {
		return nil, err
	}

	jobRuns, err := meter.Int64Counter("routecount.job.runs",
		metric.WithDescription("Number of job executions by final status"),
	)
	if err != nil {
		return nil, err
	}

	jobLatency, err := meter.Float64Histogram("routecount.job.latency_ms",
		metric.WithDescription("Job execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	checkpointSteps, err := meter.Int64Histogram("routecount.checkpoint.steps",
		metric.WithDescription("Encoded steps per checkpoint"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		routes:          routes,
		extensions:      extensions,
		jobRuns:         jobRuns,
		jobLatency:      jobLatency,
		checkpointSteps: checkpointSteps,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func jobAttrs(jobID string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("job_id", jobID))
}

// RecordRoutes records completed routes.
func (m *otelMetrics) RecordRoutes(ctx context.Context, jobID string, n int64) {
	if n == 0 {
		return
	}
	m.routes.Add(ctx, n, jobAttrs(jobID))
}

// RecordExtensions records expanded steps.
func (m *otelMetrics) RecordExtensions(ctx context.Context, jobID string, n int64) {
	if n == 0 {
		return
	}
	m.extensions.Add(ctx, n, jobAttrs(jobID))
}

// RecordJob records a job ending.
func (m *otelMetrics) RecordJob(ctx context.Context, jobID, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("job_id", jobID),
		attribute.String("status", status),
	)
	m.jobRuns.Add(ctx, 1, attrs)
	m.jobLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordCheckpoint records a checkpoint save.
func (m *otelMetrics) RecordCheckpoint(ctx context.Context, jobID string, steps int) {
	m.checkpointSteps.Record(ctx, int64(steps), jobAttrs(jobID))
}
