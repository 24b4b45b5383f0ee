// Package observability provides structured logging, metrics, and tracing
// for route counting runs.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
// Every Log helper tolerates a nil logger.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds run context to a logger. Job helpers below add job_id
// themselves, so the result is shared by every job of the run.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123")
//	LogJobStart(enriched, "7", false, 2, 0) // includes run_id, job_id
func EnrichLogger(logger *slog.Logger, runID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("run_id", runID))
}

// LogRunStart logs the start of a counting run.
func LogRunStart(logger *slog.Logger, runID, board string, jobs int) {
	if logger == nil {
		return
	}
	logger.Info("route count starting",
		slog.String("run_id", runID),
		slog.String("board", board),
		slog.Int("jobs", jobs),
	)
}

// LogRunComplete logs the end of a counting run.
func LogRunComplete(logger *slog.Logger, runID string, routes int64, elapsed time.Duration, failed int) {
	if logger == nil {
		return
	}
	logger.Info("route count finished",
		slog.String("run_id", runID),
		slog.Int64("routes", routes),
		slog.Duration("elapsed", elapsed),
		slog.Int("failed_jobs", failed),
	)
}

// LogJobStart logs a job starting, fresh or resumed.
func LogJobStart(logger *slog.Logger, jobID string, resumed bool, frontier int, routes int64) {
	if logger == nil {
		return
	}
	logger.Info("job starting",
		slog.String("job_id", jobID),
		slog.Bool("resumed", resumed),
		slog.Int("frontier", frontier),
		slog.Int64("routes", routes),
	)
}

// LogJobComplete logs a job that stopped without error.
// done is false when the job was cancelled or ran out of budget.
func LogJobComplete(logger *slog.Logger, jobID string, routes int64, elapsed time.Duration, done bool) {
	if logger == nil {
		return
	}
	msg := "job completed"
	if !done {
		msg = "job paused"
	}
	logger.Info(msg,
		slog.String("job_id", jobID),
		slog.Int64("routes", routes),
		slog.Duration("elapsed", elapsed),
	)
}

// LogJobError logs a failed job.
func LogJobError(logger *slog.Logger, jobID, path string, err error) {
	if logger == nil {
		return
	}
	logger.Error("job failed",
		slog.String("job_id", jobID),
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
}

// LogCheckpoint logs a checkpoint write.
func LogCheckpoint(logger *slog.Logger, jobID string, steps int, routes int64) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("job_id", jobID),
		slog.Int("steps", steps),
		slog.Int64("routes", routes),
	)
}

// LogCheckpointError logs a checkpoint failure (non-fatal).
func LogCheckpointError(logger *slog.Logger, jobID string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("checkpoint failed",
		slog.String("job_id", jobID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogCheckpointRecovered logs a load that fell back to the backup file.
func LogCheckpointRecovered(logger *slog.Logger, jobID, path string, cause error) {
	if logger == nil {
		return
	}
	logger.Warn("checkpoint recovered from backup",
		slog.String("job_id", jobID),
		slog.String("path", path),
		slog.String("cause", cause.Error()),
	)
}

// LogCacheUnavailable logs a fingerprint cache that could not be used.
func LogCacheUnavailable(logger *slog.Logger, jobID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("fingerprint cache unavailable, pruning disabled",
		slog.String("job_id", jobID),
		slog.String("error", err.Error()),
	)
}
