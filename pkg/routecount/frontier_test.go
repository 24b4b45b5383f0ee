package routecount_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/routecount/pkg/routecount"
	"github.com/randalmurphal/routecount/pkg/routecount/board"
	"github.com/randalmurphal/routecount/pkg/routecount/checkpoint"
)

// sampleFrontier returns a frontier with shared prefixes on a 3x3 grid.
func sampleFrontier(g routecount.Board) []*routecount.Step {
	r := routecount.Root(0, board.East)
	a := r.Extend(g, 1, board.East)
	return []*routecount.Step{
		a.Extend(g, 2, board.East),
		a.Extend(g, 4, board.South),
		routecount.Root(0, board.South).Extend(g, 3, board.South),
	}
}

func assertSameFrontier(t *testing.T, want, got []*routecount.Step) {
	t.Helper()
	require.Len(t, got, len(want))
	keys := func(steps []*routecount.Step) []string {
		out := make([]string, len(steps))
		for i, s := range steps {
			out[i] = s.Key()
		}
		return out
	}
	assert.ElementsMatch(t, keys(want), keys(got))
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	g := board.NewGrid(3, 0, 8)

	tests := []struct {
		name     string
		frontier []*routecount.Step
		encoded  int
	}{
		{name: "empty", frontier: nil, encoded: 0},
		{name: "single root", frontier: []*routecount.Step{routecount.Root(0, board.East)}, encoded: 1},
		{name: "shared prefixes", frontier: sampleFrontier(g), encoded: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fps := routecount.Encode(tt.frontier)
			assert.Len(t, fps, tt.encoded)

			got, err := routecount.Decode(fps, g)
			require.NoError(t, err)
			assertSameFrontier(t, tt.frontier, got)
		})
	}
}

func TestEncode_ReferencesEarlierIDs(t *testing.T) {
	g := board.NewGrid(3, 0, 8)
	fps := routecount.Encode(sampleFrontier(g))

	seen := map[int64]bool{}
	var last int64
	for _, fp := range fps {
		assert.Greater(t, fp.ID, last, "ids ascend")
		last = fp.ID
		if fp.PreviousID != 0 {
			assert.True(t, seen[fp.PreviousID], "previous id %d defined earlier", fp.PreviousID)
		}
		seen[fp.ID] = true
	}
}

func TestEncode_DeduplicatesEqualPrefixes(t *testing.T) {
	g := board.NewGrid(3, 0, 8)

	// Two distinct chains for the same prefix 0 -> 1.
	a := routecount.Root(0, board.East).Extend(g, 1, board.East).Extend(g, 2, board.East)
	b := routecount.Root(0, board.East).Extend(g, 1, board.East).Extend(g, 4, board.South)

	fps := routecount.Encode([]*routecount.Step{a, b})
	assert.Len(t, fps, 4, "root and first extension written once")

	got, err := routecount.Decode(fps, g)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Same(t, got[0].Previous(), got[1].Previous(), "decoded chains share the prefix")
}

func TestEncode_Deterministic(t *testing.T) {
	g := board.NewGrid(3, 0, 8)
	front := sampleFrontier(g)
	reversed := []*routecount.Step{front[2], front[1], front[0]}

	assert.Equal(t, routecount.Encode(front), routecount.Encode(sampleFrontier(g)))
	assert.Equal(t, routecount.Encode(front), routecount.Encode(reversed), "input order does not matter")
}

func TestEncode_FrontierStepOnAnotherPath(t *testing.T) {
	g := board.NewGrid(3, 0, 8)
	a := routecount.Root(0, board.East).Extend(g, 1, board.East)
	b := a.Extend(g, 2, board.East)

	// a is both a frontier step and b's ancestor; after decoding only the
	// unreferenced footprint remains on the frontier.
	fps := routecount.Encode([]*routecount.Step{a, b})
	assert.Len(t, fps, 3)

	got, err := routecount.Decode(fps, g)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, routecount.Equal(b, got[0]))
}

func TestDecode_Errors(t *testing.T) {
	g := board.NewGrid(3, 0, 8)

	tests := []struct {
		name  string
		fps   []checkpoint.Footprint
		index int
	}{
		{
			name: "ids not ascending",
			fps: []checkpoint.Footprint{
				{ID: 2, Position: 0},
				{ID: 1, PreviousID: 2, Position: 1},
			},
			index: 1,
		},
		{
			name:  "zero id",
			fps:   []checkpoint.Footprint{{ID: 0, Position: 0}},
			index: 0,
		},
		{
			name: "forward reference",
			fps: []checkpoint.Footprint{
				{ID: 1, Position: 0},
				{ID: 2, PreviousID: 3, Position: 1},
				{ID: 3, PreviousID: 1, Position: 1},
			},
			index: 1,
		},
		{
			name:  "position out of range",
			fps:   []checkpoint.Footprint{{ID: 1, Position: 9}},
			index: 0,
		},
		{
			name:  "negative position",
			fps:   []checkpoint.Footprint{{ID: 1, Position: -1}},
			index: 0,
		},
		{
			name: "direction out of range",
			fps: []checkpoint.Footprint{
				{ID: 1, Position: 0},
				{ID: 2, PreviousID: 1, Position: 1, Direction: 4},
			},
			index: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := routecount.Decode(tt.fps, g)
			require.Error(t, err)
			assert.True(t, errors.Is(err, routecount.ErrCorruptCheckpoint))

			var de *routecount.DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.index, de.Index)
			assert.Equal(t, tt.fps[tt.index].ID, de.ID)
		})
	}
}
