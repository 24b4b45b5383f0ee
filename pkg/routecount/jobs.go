package routecount

import (
	"cmp"
	"slices"
	"strconv"
	"time"
)

// Job counts routes from one start terminal to all of its targets.
type Job struct {
	// ID is the decimal start position.
	ID      string
	Start   Position
	Targets []Position
}

// terminalNodes is the job's terminal identity as stored in checkpoints:
// the start followed by the sorted targets.
func (j Job) terminalNodes() []int {
	out := make([]int, 0, len(j.Targets)+1)
	out = append(out, int(j.Start))
	for _, t := range j.Targets {
		out = append(out, int(t))
	}
	return out
}

// PlanJobs groups b's terminal pairs by start terminal. Jobs are ordered by
// start; targets are deduplicated and sorted. Pairs whose start equals their
// end are ignored.
func PlanJobs(b Board) []Job {
	targets := make(map[Position][]Position)
	for _, p := range b.TerminalPairs() {
		if p.Start == p.End {
			continue
		}
		targets[p.Start] = append(targets[p.Start], p.End)
	}

	jobs := make([]Job, 0, len(targets))
	for start, ends := range targets {
		slices.Sort(ends)
		jobs = append(jobs, Job{
			ID:      strconv.Itoa(int(start)),
			Start:   start,
			Targets: slices.Compact(ends),
		})
	}
	slices.SortFunc(jobs, func(a, b Job) int { return cmp.Compare(a.Start, b.Start) })
	return jobs
}

// JobResult is the outcome of one job.
type JobResult struct {
	Job Job
	// Path is where the job's checkpoint lives.
	Path     string
	Progress Progress
	// Done is true when the job's search space is exhausted.
	Done bool
	// Resumed is true when the job started from a checkpoint.
	Resumed    bool
	Extensions int64
	Pruned     int64
	// Err is a *JobError when the job failed.
	Err error
}

// Failed reports whether the job ended with an error.
func (r JobResult) Failed() bool {
	return r.Err != nil
}

// Result is the outcome of an Orchestrator run.
type Result struct {
	RunID string
	Jobs  []JobResult
	// Progress aggregates the jobs that did not fail.
	Progress Progress
}

// Done reports whether every job exhausted its search space.
func (r Result) Done() bool {
	for _, j := range r.Jobs {
		if !j.Done {
			return false
		}
	}
	return true
}

// Failed returns the jobs that ended with an error.
func (r Result) Failed() []JobResult {
	var out []JobResult
	for _, j := range r.Jobs {
		if j.Failed() {
			out = append(out, j)
		}
	}
	return out
}

// Aggregate combines job results: route counts are summed and the elapsed
// time is the longest, since jobs run concurrently. Failed jobs are excluded.
func Aggregate(results []JobResult) Progress {
	var total Progress
	for _, r := range results {
		if r.Failed() {
			continue
		}
		total.Routes += r.Progress.Routes
		total.Elapsed = max(total.Elapsed, r.Progress.Elapsed)
	}
	return total
}

// status names a job ending for metrics.
func (r JobResult) status() string {
	switch {
	case r.Failed():
		return "failed"
	case r.Done:
		return "done"
	default:
		return "paused"
	}
}

// roundElapsed trims an elapsed duration for storage.
func roundElapsed(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
