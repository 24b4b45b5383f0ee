/*
Package config loads settings for a route counting run.

# Overview

Settings come from three layers, later ones winning:
  - Default()
  - a YAML or JSON file (FromFile)
  - ROUTECOUNT_* environment variables (ApplyEnv)

File values are read tolerantly: a missing key or a value of the wrong type
keeps the default rather than failing the load. Validate catches values that
are present but unusable.

# Basic Usage

	s, err := config.FromFile("routecount.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	if err := s.ApplyEnv(); err != nil {
	    log.Fatal(err)
	}
	if err := s.Validate(); err != nil {
	    log.Fatal(err)
	}

	store, err := s.OpenStore(logger)
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

	orch, err := routecount.NewOrchestrator(b, store, s.Options(logger)...)

# Environment

	ROUTECOUNT_CHECKPOINT_DIR            checkpoint directory
	ROUTECOUNT_STORE                     file | sqlite
	ROUTECOUNT_SQLITE_PATH               database file (default <dir>/routes.db)
	ROUTECOUNT_CHECKPOINT_INTERVAL       e.g. 30s
	ROUTECOUNT_FAIL_ON_CHECKPOINT_ERROR  stop a job when a checkpoint fails
	ROUTECOUNT_CHECKPOINT_ATTEMPTS       save attempts before a checkpoint fails
	ROUTECOUNT_FINGERPRINTS              enable fingerprint pruning
	ROUTECOUNT_FINGERPRINT_DIR           cache directory (default checkpoint dir)
	ROUTECOUNT_WORKERS                   workers per job
	ROUTECOUNT_MAX_EXTENSIONS            stop each job after this many steps
	ROUTECOUNT_JOBS                      comma-separated job ids
	ROUTECOUNT_LOG_LEVEL                 debug | info | warn | error
	ROUTECOUNT_METRICS                   enable OpenTelemetry metrics
	ROUTECOUNT_TRACING                   enable OpenTelemetry tracing
*/
package config
