package routecount

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/randalmurphal/routecount/pkg/routecount/fingerprint"
)

// subtree tracks an expanded step until every child has been resolved.
// It is only allocated when fingerprint pruning is enabled.
type subtree struct {
	// pending counts children not yet fully explored.
	pending atomic.Int32
	// routes accumulates routes found at or below the step.
	routes atomic.Int64
	// fp is the step's fingerprint; nil for roots.
	fp []byte
}

// expander holds one worker's scratch state for expanding steps.
type expander struct {
	board   Board
	targets []bool
	cache   *fingerprint.Cache

	// stamp[p] == epoch marks p as on the current chain.
	stamp []uint32
	epoch uint32
	bits  []byte
}

func newExpander(b Board, targets []bool, cache *fingerprint.Cache) *expander {
	n := b.Positions()
	return &expander{
		board:   b,
		targets: targets,
		cache:   cache,
		stamp:   make([]uint32, n),
		bits:    make([]byte, (n+7)/8),
	}
}

// expansion is the result of expanding one step.
type expansion struct {
	children []*Step
	routes   int64
	pruned   bool
}

// expand applies the continuation rule to s.
//
// A root continues only along its own direction. A continuation is legal
// when its position is not already on the chain. Reaching a target counts a
// route; reaching any other terminal ends the path without one.
func (x *expander) expand(s *Step) expansion {
	x.mark(s)

	var fp []byte
	if x.cache != nil && !s.IsRoot() {
		fp = x.fingerprint(s)
		if x.cache.Contains(fp) {
			x.settle(s.previous, 0)
			return expansion{pruned: true}
		}
	}

	var out expansion
	for _, l := range x.board.Links(s.position) {
		if s.IsRoot() && l.Direction != s.direction {
			continue
		}
		if x.stamp[l.To] == x.epoch {
			continue
		}
		if x.targets[l.To] {
			out.routes++
			continue
		}
		if x.board.IsTerminal(l.To) {
			continue
		}
		out.children = append(out.children, s.Extend(x.board, l.To, l.Direction))
	}

	if x.cache != nil {
		t := &subtree{fp: fp}
		t.pending.Store(int32(len(out.children)))
		t.routes.Store(out.routes)
		s.track = t
		if len(out.children) == 0 {
			x.finish(s, false)
		}
	}
	return out
}

// mark stamps every position on s's chain with a fresh epoch.
func (x *expander) mark(s *Step) {
	x.epoch++
	if x.epoch == 0 {
		clear(x.stamp)
		x.epoch = 1
	}
	for cur := s; cur != nil; cur = cur.previous {
		x.stamp[cur.position] = x.epoch
	}
}

// fingerprint encodes direction, position and the visited set of s.
// Everything reachable from s depends only on these.
func (x *expander) fingerprint(s *Step) []byte {
	clear(x.bits)
	for cur := s; cur != nil; cur = cur.previous {
		x.bits[cur.position/8] |= 1 << (cur.position % 8)
	}
	fp := make([]byte, 0, 2*binary.MaxVarintLen64+len(x.bits))
	fp = binary.AppendUvarint(fp, uint64(s.direction))
	fp = binary.AppendUvarint(fp, uint64(s.position))
	return append(fp, x.bits...)
}

// finish is called when s's whole subtree has been explored. A subtree
// that yielded no routes is recorded; the total is passed up the chain
// for as long as ancestors complete with it.
func (x *expander) finish(s *Step, expanded bool) {
	for {
		t := s.track
		routes := t.routes.Load()
		if routes == 0 && t.fp != nil && expanded {
			x.cache.Add(t.fp)
		}
		p := s.previous
		if p == nil || p.track == nil {
			return
		}
		p.track.routes.Add(routes)
		if p.track.pending.Add(-1) != 0 {
			return
		}
		s, expanded = p, true
	}
}

// settle resolves one child of parent that was skipped with routes found.
func (x *expander) settle(parent *Step, routes int64) {
	if parent == nil || parent.track == nil {
		return
	}
	parent.track.routes.Add(routes)
	if parent.track.pending.Add(-1) == 0 {
		x.finish(parent, true)
	}
}
