package routecount_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/randalmurphal/routecount/pkg/routecount"
	"github.com/randalmurphal/routecount/pkg/routecount/board"
)

func TestPlanJobs(t *testing.T) {
	tests := []struct {
		name string
		b    routecount.Board
		want []routecount.Job
	}{
		{
			name: "grid pairs every terminal both ways",
			b:    board.NewGrid(3, 8, 0, 2),
			want: []routecount.Job{
				{ID: "0", Start: 0, Targets: []routecount.Position{2, 8}},
				{ID: "2", Start: 2, Targets: []routecount.Position{0, 8}},
				{ID: "8", Start: 8, Targets: []routecount.Position{0, 2}},
			},
		},
		{
			name: "one-way pairs",
			b: board.NewGraph("g", 5, 5, 1).
				Pair(3, 1).
				Pair(3, 0).
				Pair(1, 4),
			want: []routecount.Job{
				{ID: "1", Start: 1, Targets: []routecount.Position{4}},
				{ID: "3", Start: 3, Targets: []routecount.Position{0, 1}},
			},
		},
		{
			name: "self pairs are ignored",
			b:    board.NewGraph("g", 2, 2, 1).Pair(1, 1).Pair(0, 1),
			want: []routecount.Job{
				{ID: "0", Start: 0, Targets: []routecount.Position{1}},
			},
		},
		{
			name: "no pairs",
			b:    board.NewGraph("g", 2, 2, 1).Terminal(0, 1),
			want: []routecount.Job{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, routecount.PlanJobs(tt.b))
		})
	}
}

func TestResult(t *testing.T) {
	res := routecount.Result{Jobs: []routecount.JobResult{
		{Job: routecount.Job{ID: "0"}, Done: true},
		{Job: routecount.Job{ID: "1"}, Done: false},
	}}
	assert.False(t, res.Done())
	assert.Empty(t, res.Failed())

	res.Jobs[1].Done = true
	assert.True(t, res.Done())

	res.Jobs[1].Err = errors.New("boom")
	res.Jobs[1].Done = false
	failed := res.Failed()
	if assert.Len(t, failed, 1) {
		assert.Equal(t, "1", failed[0].Job.ID)
	}
}
