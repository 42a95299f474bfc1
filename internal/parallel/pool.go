package parallel

import (
	"log"
	"math/rand"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/fgantt/shogi-search-engine/internal/search"
	"github.com/fgantt/shogi-search-engine/internal/tt"
)

// pool runs a fixed number of long-lived worker goroutines, each owning a
// Chase-Lev deque, cooperating through work stealing so an idle worker
// can pick up a sibling another worker hasn't reached yet. It outlives
// any single SearchRoot call so iterative deepening doesn't pay worker
// spin-up cost every depth.
type pool struct {
	table *tt.Table
	eval  search.Evaluator
	cfg   search.Config
	stop  *atomic.Bool

	pendingCap *semaphore.Weighted

	deques []*deque
	mu     sync.Mutex
	cond   *sync.Cond
	next   int
	closed bool

	wg    sync.WaitGroup
	nodes atomic.Uint64
}

// newPool builds a pool with workers goroutines, each able to hold up to
// deqCapacity queued siblings, and a cap on the number of units
// concurrently in flight across the whole pool (the splitting policy's
// "pending units below a cap").
func newPool(workers, deqCapacity int, pendingCap int64, table *tt.Table, eval search.Evaluator, cfg search.Config, stop *atomic.Bool) *pool {
	if workers < 1 {
		workers = 1
	}
	p := &pool{
		table:      table,
		eval:       eval,
		cfg:        cfg,
		stop:       stop,
		pendingCap: semaphore.NewWeighted(pendingCap),
		deques:     make([]*deque, workers),
	}
	p.cond = sync.NewCond(&p.mu)
	for i := range p.deques {
		p.deques[i] = newDeque(deqCapacity)
	}
	for i := range p.deques {
		p.wg.Add(1)
		go p.workerLoop(i)
	}
	return p
}

// publish hands u to the pool for stealing, or — when the pending-unit
// cap is already exhausted or every deque happens to be full — runs it
// synchronously on the caller's own goroutine instead of blocking the
// splitting node indefinitely.
func (p *pool) publish(u workUnit) {
	if !p.pendingCap.TryAcquire(1) {
		p.runUnit(u)
		return
	}

	p.mu.Lock()
	target := p.deques[p.next%len(p.deques)]
	p.next++
	ok := target.pushBack(u)
	p.mu.Unlock()

	if !ok {
		p.runUnit(u)
		p.pendingCap.Release(1)
		return
	}
	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *pool) workerLoop(id int) {
	defer p.wg.Done()
	own := p.deques[id]
	for {
		if u, ok := own.popFront(); ok {
			p.runUnitRecovered(u)
			continue
		}
		if u, ok := p.steal(id); ok {
			p.runUnitRecovered(u)
			continue
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		p.cond.Wait()
		p.mu.Unlock()
	}
}

func (p *pool) steal(exclude int) (workUnit, bool) {
	n := len(p.deques)
	if n <= 1 {
		return workUnit{}, false
	}
	start := rand.Intn(n)
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if idx == exclude {
			continue
		}
		if u, ok := p.deques[idx].stealFront(); ok {
			return u, true
		}
	}
	return workUnit{}, false
}

// runUnitRecovered executes one unit, recovering a panicking worker so
// the rest of the pool keeps running: the failing unit is reported as
// aborted to its split point rather than left to hang the waiter forever.
func (p *pool) runUnitRecovered(u workUnit) {
	defer p.pendingCap.Release(1)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[YBWC] worker recovered from panic on move %s: %v", u.move.String(), r)
			u.handle.abort()
		}
	}()
	p.runUnit(u)
}

func (p *pool) runUnit(u workUnit) {
	state := search.NewState(u.pos, p.table, p.eval, p.cfg, p.stop)
	score := -state.Negamax(u.depth, u.ply, u.alpha, u.beta, u.cutNode)
	p.nodes.Add(state.Nodes)
	u.handle.report(siblingResult{move: u.move, score: score})
}

// Nodes reports the total node count every worker has searched over the
// pool's lifetime, for aggregation into search-wide statistics.
func (p *pool) Nodes() uint64 { return p.nodes.Load() }

// Close stops every worker goroutine and waits for them to exit. Workers
// parked on an empty deque wake immediately via the closed flag; workers
// mid-unit finish that unit first.
func (p *pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}
