/*
Package routecount counts simple-path routes between terminals on a board,
resumably.

# Overview

A route is a path from a start terminal to one of its target terminals that
never revisits a position. The search can take hours, so it is split into
one job per start terminal, each checkpointed on its own. A run that is
stopped and restarted any number of times reports the same counts as one
that ran straight through.

The package is organised around:
  - Step: an immutable node of a partial path, linked to its predecessor
  - Encode/Decode: the compact checkpoint form of a frontier of steps
  - Explorer: concurrent expansion of a frontier with periodic snapshots
  - Orchestrator: per-start-terminal jobs, persistence, aggregation

# Basic Usage

	b := board.NewGrid(5, board.Cell(5, 0, 0), board.Cell(5, 4, 4))

	store, err := checkpoint.NewFileStore("./checkpoints")
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

	orch, err := routecount.NewOrchestrator(b, store,
	    routecount.WithWorkers(8),
	    routecount.WithCheckpointInterval(30*time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

	res, err := orch.Run(ctx)
	fmt.Println(res.Progress.Routes, res.Done())

Cancelling ctx is the normal way to stop: every job finishes the steps it
is working on, writes a final checkpoint, and Run returns without error.
The next Run picks up where the checkpoints left off.

# Checkpoints

Each job's checkpoint holds its route count, elapsed time, terminal
identity and frontier. The frontier is stored as footprints: every step
gets an id, and each footprint names its predecessor's id, so shared
prefixes are stored once. Loading a checkpoint written for another board
or another set of terminals fails with ErrIncompatibleCheckpoint; a damaged
one fails with ErrCorruptCheckpoint. Neither is ever treated as "start over".

A failed save is retried according to WithCheckpointRetry before it counts
as a failure. Failed periodic checkpoints are logged and exploration goes
on, unless WithCheckpointFailureFatal is set; a failed final checkpoint
always fails the job.

# Explorer Consistency

Workers pause between steps when a checkpoint is due. A snapshot is taken
only when no step is in flight, so the saved route count and the saved
frontier always agree: every route counted has been removed from the
frontier, and every route not yet counted is still reachable from it.

# Fingerprint Pruning

With WithFingerprintDir, a job records a fingerprint for every subtree that
was fully explored and produced no routes, and skips matching subtrees
later. The cache file is advisory; if it cannot be used the job runs
without it.

# Observability

	orch, _ := routecount.NewOrchestrator(b, store,
	    routecount.WithLogger(slog.Default()),
	    routecount.WithMetrics(true),
	    routecount.WithTracing(true),
	    routecount.WithObserver(routecount.NewSlogObserver(logger, slog.LevelInfo)),
	)

Metrics and traces use the global OpenTelemetry providers.
*/
package routecount
