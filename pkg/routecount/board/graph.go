// Package board provides concrete boards for route counting.
//
// Graph is a board with explicitly listed links; Grid builds the common
// square lattice on top of it.
package board

import (
	"fmt"
	"slices"

	"github.com/randalmurphal/routecount/pkg/routecount"
)

// Graph is a board defined link by link.
//
// Build it fully before handing it to an explorer; a Graph is safe for
// concurrent reads but not for concurrent modification.
type Graph struct {
	name       string
	size       int
	directions int
	links      [][]routecount.Link
	terminal   []bool
	pairs      []routecount.TerminalPair
}

var _ routecount.Board = (*Graph)(nil)

// NewGraph creates a board with the given identity, number of positions and
// number of directions. It has no links and no terminals.
func NewGraph(name string, size, positions, directions int) *Graph {
	if positions < 0 || directions < 1 {
		panic(fmt.Sprintf("board: invalid graph shape: %d positions, %d directions", positions, directions))
	}
	return &Graph{
		name:       name,
		size:       size,
		directions: directions,
		links:      make([][]routecount.Link, positions),
		terminal:   make([]bool, positions),
	}
}

// Link adds a one-way link from one position to another along d.
// Panics if any argument is out of range.
func (g *Graph) Link(from, to routecount.Position, d routecount.Direction) *Graph {
	g.checkPosition(from)
	g.checkPosition(to)
	if d < 0 || int(d) >= g.directions {
		panic(fmt.Sprintf("board: direction %d out of range [0,%d)", d, g.directions))
	}
	g.links[from] = append(g.links[from], routecount.Link{Direction: d, To: to})
	return g
}

// Connect links a and b both ways: a to b along d, b to a along back.
func (g *Graph) Connect(a, b routecount.Position, d, back routecount.Direction) *Graph {
	return g.Link(a, b, d).Link(b, a, back)
}

// Terminal marks positions as terminals.
func (g *Graph) Terminal(ps ...routecount.Position) *Graph {
	for _, p := range ps {
		g.checkPosition(p)
		g.terminal[p] = true
	}
	return g
}

// Pair adds an ordered terminal pair to count routes between. Both
// positions are marked as terminals.
func (g *Graph) Pair(start, end routecount.Position) *Graph {
	g.Terminal(start, end)
	pair := routecount.TerminalPair{Start: start, End: end}
	if !slices.Contains(g.pairs, pair) {
		g.pairs = append(g.pairs, pair)
	}
	return g
}

func (g *Graph) checkPosition(p routecount.Position) {
	if p < 0 || int(p) >= len(g.links) {
		panic(fmt.Sprintf("board: position %d out of range [0,%d)", p, len(g.links)))
	}
}

// Name implements routecount.Board.
func (g *Graph) Name() string { return g.name }

// Size implements routecount.Board.
func (g *Graph) Size() int { return g.size }

// Positions implements routecount.Board.
func (g *Graph) Positions() int { return len(g.links) }

// Directions implements routecount.Board.
func (g *Graph) Directions() int { return g.directions }

// Links implements routecount.Board. The returned slice must not be modified.
func (g *Graph) Links(p routecount.Position) []routecount.Link {
	if p < 0 || int(p) >= len(g.links) {
		return nil
	}
	return g.links[p]
}

// IsTerminal implements routecount.Board.
func (g *Graph) IsTerminal(p routecount.Position) bool {
	return p >= 0 && int(p) < len(g.terminal) && g.terminal[p]
}

// TerminalPairs implements routecount.Board.
func (g *Graph) TerminalPairs() []routecount.TerminalPair {
	return slices.Clone(g.pairs)
}

// Delta implements routecount.Board: the number of direction steps from
// one heading to the other, modulo the direction count.
func (g *Graph) Delta(from, to routecount.Direction) routecount.Turn {
	n := g.directions
	return routecount.Turn(((int(to)-int(from))%n + n) % n)
}
