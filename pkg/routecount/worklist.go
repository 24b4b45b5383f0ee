package routecount

import (
	"sync"
)

// worklist is the live frontier shared by an explorer's workers.
//
// Steps live in per-worker shards; a worker pops from its own shard and
// steals from the fullest other shard when empty. The shared counters give
// termination detection and the checkpoint barrier: pending counts stored
// steps not yet claimed, active counts steps claimed but not yet resolved.
// A snapshot is only taken while active is zero, so no step is in flight.
type worklist struct {
	mu   sync.Mutex
	cond *sync.Cond

	shards []*shard

	pending int
	active  int
	paused  bool
	closed  bool

	// budget is the number of takes left; negative means unlimited.
	budget int64
	taken  int64
}

type shard struct {
	mu    sync.Mutex
	steps []*Step
}

func newWorklist(workers int, initial []*Step, budget int64) *worklist {
	if workers < 1 {
		workers = 1
	}
	l := &worklist{
		shards: make([]*shard, workers),
		budget: budget,
	}
	l.cond = sync.NewCond(&l.mu)
	for i := range l.shards {
		l.shards[i] = &shard{}
	}
	for i, s := range initial {
		if s == nil {
			continue
		}
		sh := l.shards[i%workers]
		sh.steps = append(sh.steps, s)
		l.pending++
	}
	return l
}

// take claims the next step for worker w. It blocks while a snapshot is in
// progress and returns false once the list is closed, exhausted, or out of budget.
func (l *worklist) take(w int) (*Step, bool) {
	l.mu.Lock()
	for {
		if l.closed {
			l.mu.Unlock()
			return nil, false
		}
		if !l.paused {
			if l.pending > 0 {
				if l.budget == 0 {
					l.closeLocked()
					l.mu.Unlock()
					return nil, false
				}
				break
			}
			if l.active == 0 {
				l.closeLocked()
				l.mu.Unlock()
				return nil, false
			}
		}
		l.cond.Wait()
	}
	l.pending--
	l.active++
	l.taken++
	if l.budget > 0 {
		l.budget--
	}
	l.mu.Unlock()

	return l.pop(w), true
}

// pop removes a step for worker w. The caller holds a claim, so the shards
// together hold at least one unclaimed step.
func (l *worklist) pop(w int) *Step {
	own := l.shards[w]
	for {
		own.mu.Lock()
		if n := len(own.steps); n > 0 {
			s := own.steps[n-1]
			own.steps[n-1] = nil
			own.steps = own.steps[:n-1]
			own.mu.Unlock()
			return s
		}
		own.mu.Unlock()

		if s := l.steal(w); s != nil {
			return s
		}
	}
}

// steal moves half of the fullest other shard's oldest steps to worker w
// and returns one of them. Oldest steps are the shallowest, so a thief gets
// the largest remaining subtrees.
func (l *worklist) steal(w int) *Step {
	victim, most := -1, 0
	for i, sh := range l.shards {
		if i == w {
			continue
		}
		sh.mu.Lock()
		n := len(sh.steps)
		sh.mu.Unlock()
		if n > most {
			victim, most = i, n
		}
	}
	if victim < 0 {
		return nil
	}

	sh := l.shards[victim]
	sh.mu.Lock()
	n := len(sh.steps)
	if n == 0 {
		sh.mu.Unlock()
		return nil
	}
	k := (n + 1) / 2
	loot := make([]*Step, k)
	copy(loot, sh.steps[:k])
	sh.steps = append(sh.steps[:0], sh.steps[k:]...)
	sh.mu.Unlock()

	s := loot[0]
	if k > 1 {
		own := l.shards[w]
		own.mu.Lock()
		own.steps = append(own.steps, loot[1:]...)
		own.mu.Unlock()
	}
	return s
}

// put stores the children of a claimed step and resolves the claim.
// Children are stored before the claim is released so that a snapshot
// never observes the parent gone and its children missing.
func (l *worklist) put(w int, children []*Step) {
	if len(children) > 0 {
		own := l.shards[w]
		own.mu.Lock()
		own.steps = append(own.steps, children...)
		own.mu.Unlock()
	}

	l.mu.Lock()
	l.pending += len(children)
	l.active--
	if len(children) > 0 || l.active == 0 {
		l.cond.Broadcast()
	}
	l.mu.Unlock()
}

// pause stops new takes and waits until no claim is outstanding, then
// returns a copy of the frontier. It returns false if the list is closed.
// A successful pause must be followed by resume.
func (l *worklist) pause() ([]*Step, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for l.paused {
		l.cond.Wait()
	}
	if l.closed {
		return nil, false
	}
	l.paused = true
	for l.active > 0 {
		l.cond.Wait()
	}
	return l.collect(), true
}

// resume lets workers take again after pause.
func (l *worklist) resume() {
	l.mu.Lock()
	l.paused = false
	l.cond.Broadcast()
	l.mu.Unlock()
}

// close stops all further takes. Claims already held still resolve.
func (l *worklist) close() {
	l.mu.Lock()
	l.closeLocked()
	l.mu.Unlock()
}

func (l *worklist) closeLocked() {
	l.closed = true
	l.cond.Broadcast()
}

// remaining returns the frontier once every worker has stopped.
func (l *worklist) remaining() []*Step {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.collect()
}

// extensions returns the number of steps claimed so far.
func (l *worklist) extensions() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.taken
}

// collect copies every shard. Callers hold l.mu with no claim outstanding.
func (l *worklist) collect() []*Step {
	out := make([]*Step, 0, l.pending)
	for _, sh := range l.shards {
		sh.mu.Lock()
		out = append(out, sh.steps...)
		sh.mu.Unlock()
	}
	return out
}
