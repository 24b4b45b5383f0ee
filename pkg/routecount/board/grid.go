package board

import (
	"fmt"

	"github.com/randalmurphal/routecount/pkg/routecount"
)

// GridShape is the board name of square grids.
const GridShape = "grid"

// Grid directions, clockwise from east.
const (
	East routecount.Direction = iota
	South
	West
	North
)

// Cell returns the position of column x, row y on an n by n grid.
func Cell(n, x, y int) routecount.Position {
	return routecount.Position(y*n + x)
}

// NewGrid returns an n by n lattice of positions with links to the four
// orthogonal neighbours. Every ordered pair of distinct terminals is a
// terminal pair.
func NewGrid(n int, terminals ...routecount.Position) *Graph {
	if n < 1 {
		panic(fmt.Sprintf("board: invalid grid size %d", n))
	}
	g := NewGraph(GridShape, n, n*n, 4)
	for y := range n {
		for x := range n {
			p := Cell(n, x, y)
			if x+1 < n {
				g.Connect(p, Cell(n, x+1, y), East, West)
			}
			if y+1 < n {
				g.Connect(p, Cell(n, x, y+1), South, North)
			}
		}
	}
	for _, a := range terminals {
		for _, b := range terminals {
			if a != b {
				g.Pair(a, b)
			}
		}
	}
	g.Terminal(terminals...)
	return g
}
