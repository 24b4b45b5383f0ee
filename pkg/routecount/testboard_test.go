package routecount

// testBoard is a minimal Board for tests inside the package; the board
// package cannot be imported here.
type testBoard struct {
	dirs     int
	links    [][]Link
	terminal []bool
	pairs    []TerminalPair
}

var _ Board = (*testBoard)(nil)

// newLattice returns an n by n grid with 4 directions (east, south, west,
// north) and terminals at the given positions, paired start to end.
func newLattice(n int, start, end Position) *testBoard {
	b := &testBoard{
		dirs:     4,
		links:    make([][]Link, n*n),
		terminal: make([]bool, n*n),
		pairs:    []TerminalPair{{Start: start, End: end}},
	}
	add := func(from, to int, d Direction) {
		b.links[from] = append(b.links[from], Link{Direction: d, To: Position(to)})
	}
	for y := range n {
		for x := range n {
			p := y*n + x
			if x+1 < n {
				add(p, p+1, 0)
				add(p+1, p, 2)
			}
			if y+1 < n {
				add(p, p+n, 1)
				add(p+n, p, 3)
			}
		}
	}
	b.terminal[start] = true
	b.terminal[end] = true
	return b
}

func (b *testBoard) Name() string                  { return "lattice" }
func (b *testBoard) Size() int                     { return len(b.links) }
func (b *testBoard) Positions() int                { return len(b.links) }
func (b *testBoard) Directions() int               { return b.dirs }
func (b *testBoard) Links(p Position) []Link       { return b.links[p] }
func (b *testBoard) IsTerminal(p Position) bool    { return b.terminal[p] }
func (b *testBoard) TerminalPairs() []TerminalPair { return b.pairs }

func (b *testBoard) Delta(from, to Direction) Turn {
	return Turn(((int(to)-int(from))%b.dirs + b.dirs) % b.dirs)
}
