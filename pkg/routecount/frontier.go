package routecount

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/randalmurphal/routecount/pkg/routecount/checkpoint"
)

// footKey identifies a step by its predecessor's assigned id and its own
// position and direction. Equal steps always produce equal keys.
type footKey struct {
	prev      int64
	position  Position
	direction Direction
}

func compareFootKeys(a, b footKey) int {
	if c := cmp.Compare(a.prev, b.prev); c != 0 {
		return c
	}
	if c := cmp.Compare(a.position, b.position); c != 0 {
		return c
	}
	return cmp.Compare(a.direction, b.direction)
}

// Encode serializes a frontier into footprints.
//
// Every ancestor of every frontier step is emitted once, even when equal
// prefixes are held by distinct Step values. Ids are assigned from 1 in
// ascending length order, so each PreviousID is 0 or an earlier id.
// The output is deterministic for a given set of chains.
func Encode(frontier []*Step) []checkpoint.Footprint {
	var levels [][]*Step
	seen := make(map[*Step]struct{})
	for _, s := range frontier {
		for cur := s; cur != nil; cur = cur.previous {
			if _, ok := seen[cur]; ok {
				break
			}
			seen[cur] = struct{}{}
			for len(levels) <= cur.length {
				levels = append(levels, nil)
			}
			levels[cur.length] = append(levels[cur.length], cur)
		}
	}

	type keyed struct {
		key  footKey
		step *Step
	}

	ids := make(map[*Step]int64, len(seen))
	byKey := make(map[footKey]int64, len(seen))
	out := make([]checkpoint.Footprint, 0, len(seen))
	next := int64(1)

	for _, level := range levels {
		batch := make([]keyed, len(level))
		for i, s := range level {
			batch[i] = keyed{
				key:  footKey{prev: ids[s.previous], position: s.position, direction: s.direction},
				step: s,
			}
		}
		slices.SortFunc(batch, func(a, b keyed) int { return compareFootKeys(a.key, b.key) })

		for _, k := range batch {
			if id, ok := byKey[k.key]; ok {
				ids[k.step] = id
				continue
			}
			id := next
			next++
			byKey[k.key] = id
			ids[k.step] = id
			out = append(out, checkpoint.Footprint{
				ID:         id,
				PreviousID: k.key.prev,
				Position:   int(k.step.position),
				Direction:  int(k.step.direction),
			})
		}
	}
	return out
}

// Decode rebuilds a frontier from footprints for board b.
//
// Steps are materialized in array order, so a predecessor must appear before
// anything that references it. The returned frontier is every step that no
// other footprint names as its predecessor, in array order.
// Failures are *DecodeError wrapping ErrCorruptCheckpoint.
func Decode(footprints []checkpoint.Footprint, b Board) ([]*Step, error) {
	steps := make(map[int64]*Step, len(footprints))
	referenced := make(map[int64]struct{}, len(footprints))
	var last int64

	for i, fp := range footprints {
		fail := func(format string, args ...any) error {
			return &DecodeError{
				Index: i,
				ID:    fp.ID,
				Err:   fmt.Errorf("%w: %s", ErrCorruptCheckpoint, fmt.Sprintf(format, args...)),
			}
		}

		if fp.ID <= last {
			return nil, fail("id %d not greater than %d", fp.ID, last)
		}
		if !validPosition(b, fp.Position) {
			return nil, fail("position %d out of range [0,%d)", fp.Position, b.Positions())
		}
		if !validDirection(b, fp.Direction) {
			return nil, fail("direction %d out of range [0,%d)", fp.Direction, b.Directions())
		}

		p, d := Position(fp.Position), Direction(fp.Direction)
		var s *Step
		if fp.PreviousID == 0 {
			s = Root(p, d)
		} else {
			prev, ok := steps[fp.PreviousID]
			if !ok {
				return nil, fail("previous id %d not defined earlier", fp.PreviousID)
			}
			s = prev.Extend(b, p, d)
			referenced[fp.PreviousID] = struct{}{}
		}
		steps[fp.ID] = s
		last = fp.ID
	}

	frontier := make([]*Step, 0, len(footprints)-len(referenced))
	for _, fp := range footprints {
		if _, ok := referenced[fp.ID]; !ok {
			frontier = append(frontier, steps[fp.ID])
		}
	}
	return frontier, nil
}
