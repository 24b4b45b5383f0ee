package routecount

// Position is a board location, addressed by index in [0, Board.Positions()).
type Position int

// Direction is a move direction, in [0, Board.Directions()).
type Direction int

// Turn is the change of heading between two consecutive steps.
type Turn int

// Link is one outgoing edge of a position.
type Link struct {
	Direction Direction
	To        Position
}

// TerminalPair is an ordered (start, end) pair of terminal positions
// between which routes are counted.
type TerminalPair struct {
	Start Position
	End   Position
}

// Board is the capability set the explorer and checkpoint logic depend on.
// Concrete shapes live outside this package (see package board).
//
// Implementations must be safe for concurrent reads: the explorer calls
// Links and IsTerminal from several goroutines.
type Board interface {
	// Name identifies the board shape (e.g. "grid").
	Name() string

	// Size is the shape-specific size parameter.
	// Name and Size together are the board identity checked on resume.
	Size() int

	// Positions returns the number of positions on the board.
	Positions() int

	// Directions returns the number of distinct directions.
	Directions() int

	// Links returns the outgoing links of a position.
	Links(p Position) []Link

	// IsTerminal reports whether p is a terminal position.
	IsTerminal(p Position) bool

	// TerminalPairs lists the ordered terminal pairs to count routes between.
	TerminalPairs() []TerminalPair

	// Delta returns the turn taken when heading changes from one direction to another.
	Delta(from, to Direction) Turn
}

// validPosition reports whether p is in range for b.
func validPosition(b Board, p int) bool {
	return p >= 0 && p < b.Positions()
}

// validDirection reports whether d is in range for b.
func validDirection(b Board, d int) bool {
	return d >= 0 && d < b.Directions()
}
