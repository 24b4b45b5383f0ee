package routecount_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/routecount/pkg/routecount"
	"github.com/randalmurphal/routecount/pkg/routecount/board"
)

func TestRoot(t *testing.T) {
	s := routecount.Root(4, board.South)

	assert.Equal(t, routecount.Position(4), s.Position())
	assert.Equal(t, board.South, s.Direction())
	assert.Equal(t, routecount.Turn(0), s.Turn())
	assert.Nil(t, s.Previous())
	assert.Zero(t, s.Length())
	assert.True(t, s.IsRoot())
}

func TestExtend(t *testing.T) {
	g := board.NewGrid(3, 0, 8)
	root := routecount.Root(0, board.East)

	a := root.Extend(g, 1, board.East)
	assert.Equal(t, routecount.Turn(0), a.Turn(), "straight on")
	assert.Same(t, root, a.Previous())
	assert.Equal(t, 1, a.Length())
	assert.False(t, a.IsRoot())

	b := a.Extend(g, 4, board.South)
	assert.Equal(t, routecount.Turn(1), b.Turn(), "east to south")

	c := b.Extend(g, 3, board.West)
	d := c.Extend(g, 0, board.North)
	assert.Equal(t, routecount.Turn(1), d.Turn())

	back := routecount.Root(1, board.North).Extend(g, 0, board.West)
	assert.Equal(t, routecount.Turn(3), back.Turn(), "north to west wraps")
}

func TestChainAndVisits(t *testing.T) {
	g := board.NewGrid(3, 0, 8)
	s := routecount.Root(0, board.East).
		Extend(g, 1, board.East).
		Extend(g, 2, board.East).
		Extend(g, 5, board.South)

	chain := s.Chain()
	require.Len(t, chain, 4)
	positions := make([]routecount.Position, len(chain))
	for i, st := range chain {
		positions[i] = st.Position()
	}
	assert.Equal(t, []routecount.Position{0, 1, 2, 5}, positions)
	assert.Same(t, s, chain[3])

	assert.True(t, s.Visits(0))
	assert.True(t, s.Visits(5))
	assert.False(t, s.Visits(4))

	assert.Equal(t, "0:0/1:0/2:0/5:1", s.Key())
	assert.Equal(t, s.Key(), s.String())

	var nilStep *routecount.Step
	assert.Equal(t, "<nil>", nilStep.String())
}

func TestEqual(t *testing.T) {
	g := board.NewGrid(3, 0, 8)
	build := func() *routecount.Step {
		return routecount.Root(0, board.East).Extend(g, 1, board.East).Extend(g, 4, board.South)
	}

	a, b := build(), build()
	assert.NotSame(t, a, b)
	assert.True(t, routecount.Equal(a, b), "distinct objects, same chain")
	assert.True(t, routecount.Equal(a, a))
	assert.True(t, routecount.Equal(nil, nil))
	assert.False(t, routecount.Equal(a, nil))

	shared := routecount.Root(0, board.East).Extend(g, 1, board.East)
	x := shared.Extend(g, 4, board.South)
	y := shared.Extend(g, 2, board.East)
	assert.False(t, routecount.Equal(x, y))

	otherRoot := routecount.Root(0, board.South).Extend(g, 1, board.East).Extend(g, 4, board.South)
	assert.False(t, routecount.Equal(a, otherRoot), "roots differ in direction")

	shorter := routecount.Root(1, board.East).Extend(g, 4, board.South)
	assert.False(t, routecount.Equal(a, shorter))
}

func TestRoots(t *testing.T) {
	tests := []struct {
		name  string
		start routecount.Position
		want  []routecount.Direction
	}{
		{name: "corner", start: board.Cell(3, 0, 0), want: []routecount.Direction{board.East, board.South}},
		{name: "edge", start: board.Cell(3, 1, 0), want: []routecount.Direction{board.East, board.West, board.South}},
		{name: "centre", start: board.Cell(3, 1, 1), want: []routecount.Direction{board.East, board.South, board.West, board.North}},
	}

	g := board.NewGrid(3, 0, 8)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roots := routecount.Roots(g, tt.start)
			got := make([]routecount.Direction, len(roots))
			for i, r := range roots {
				assert.True(t, r.IsRoot())
				assert.Equal(t, tt.start, r.Position())
				got[i] = r.Direction()
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}

	t.Run("parallel links share a root", func(t *testing.T) {
		g := board.NewGraph("multi", 3, 3, 2).
			Link(0, 1, 0).
			Link(0, 2, 0).
			Link(0, 2, 1)
		assert.Len(t, routecount.Roots(g, 0), 2)
	})

	t.Run("isolated start", func(t *testing.T) {
		g := board.NewGraph("lonely", 1, 1, 1)
		assert.Empty(t, routecount.Roots(g, 0))
	})
}
