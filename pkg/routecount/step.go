package routecount

import (
	"strconv"
	"strings"
)

// Step is one position of a partially built path, linked to its predecessor.
//
// Steps are immutable once created. Paths that agree up to a point share the
// Step for that point, so a frontier of many paths is a forest of Steps.
type Step struct {
	position  Position
	direction Direction
	turn      Turn
	previous  *Step
	length    int

	// track is set by the explorer when the step is expanded with
	// fingerprint pruning enabled. It is never part of equality.
	track *subtree
}

// Root returns the first step of a path. A root sits on the start terminal;
// its direction is the heading the path leaves along.
func Root(p Position, d Direction) *Step {
	return &Step{position: p, direction: d}
}

// Extend returns the step reached by moving from s to p along d.
// The turn is computed with b.Delta from s's direction.
func (s *Step) Extend(b Board, p Position, d Direction) *Step {
	return &Step{
		position:  p,
		direction: d,
		turn:      b.Delta(s.direction, d),
		previous:  s,
		length:    s.length + 1,
	}
}

// Position returns where the step is.
func (s *Step) Position() Position { return s.position }

// Direction returns the direction taken to arrive (for a root, the leaving heading).
func (s *Step) Direction() Direction { return s.direction }

// Turn returns the heading change from the predecessor. Zero for a root.
func (s *Step) Turn() Turn { return s.turn }

// Previous returns the predecessor, or nil for a root.
func (s *Step) Previous() *Step { return s.previous }

// Length returns the number of steps from the chain's root.
func (s *Step) Length() int { return s.length }

// IsRoot reports whether s starts its chain.
func (s *Step) IsRoot() bool { return s.previous == nil }

// Chain returns the steps from the root to s inclusive.
func (s *Step) Chain() []*Step {
	chain := make([]*Step, s.length+1)
	for cur := s; cur != nil; cur = cur.previous {
		chain[cur.length] = cur
	}
	return chain
}

// Visits reports whether p occurs anywhere on the chain ending at s.
func (s *Step) Visits(p Position) bool {
	for cur := s; cur != nil; cur = cur.previous {
		if cur.position == p {
			return true
		}
	}
	return false
}

// Key renders the chain as "position:direction" pairs, root first.
// Two steps are Equal exactly when their keys match.
func (s *Step) Key() string {
	var b strings.Builder
	for i, st := range s.Chain() {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(strconv.Itoa(int(st.position)))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(int(st.direction)))
	}
	return b.String()
}

// String implements fmt.Stringer.
func (s *Step) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.Key()
}

// Equal reports structural equality: same position, same direction and an
// equal predecessor chain. Shared ancestors short-circuit on identity.
func Equal(a, b *Step) bool {
	for {
		if a == b {
			return true
		}
		if a == nil || b == nil {
			return false
		}
		if a.position != b.position || a.direction != b.direction || a.length != b.length {
			return false
		}
		a, b = a.previous, b.previous
	}
}

// Roots returns one root per direction leaving start.
func Roots(b Board, start Position) []*Step {
	links := b.Links(start)
	roots := make([]*Step, 0, len(links))
	seen := make(map[Direction]bool, len(links))
	for _, l := range links {
		if seen[l.Direction] {
			continue
		}
		seen[l.Direction] = true
		roots = append(roots, Root(start, l.Direction))
	}
	return roots
}
