// Package parallel implements the Young Brothers Wait Concept (YBWC)
// coordinator: the oldest sibling at a splittable node is searched
// sequentially, and once it returns, the remaining siblings are published
// onto a work-stealing deque pool so idle workers can pick them up. All
// workers share the transposition table; only the root node is split in
// this implementation, the single split point most engines in this space
// actually use in practice, since splitting at every eligible node below
// the root multiplies synchronization overhead far faster than it adds
// exploitable parallelism for a module of this scope.
package parallel

import (
	"sync/atomic"
	"time"

	"github.com/fgantt/shogi-search-engine/internal/order"
	"github.com/fgantt/shogi-search-engine/internal/search"
	"github.com/fgantt/shogi-search-engine/internal/shogi"
	"github.com/fgantt/shogi-search-engine/internal/tt"
)

// SplitMinDepth is the minimum depth remaining at a node before its
// younger siblings are split off as stealable work instead of being
// searched one after another by the oldest brother's own goroutine.
const SplitMinDepth = 5

// Result is a completed root search: the best move found, its score from
// the side-to-move's perspective, and how many nodes the whole pool spent
// getting there.
type Result struct {
	Move  shogi.Move
	Score int
	Nodes uint64
}

// Coordinator owns a long-lived worker pool shared across however many
// SearchRoot calls an iterative deepener makes; Close releases it.
type Coordinator struct {
	table *tt.Table
	eval  search.Evaluator
	cfg   search.Config
	stop  *atomic.Bool
	pool  *pool
}

// New builds a coordinator with workers goroutines (clamped to at least
// 1) sharing table and eval. stop is the global cancellation flag every
// worker polls at node entry, matching the rest of this module's
// cancellation model.
func New(workers int, table *tt.Table, eval search.Evaluator, cfg search.Config, stop *atomic.Bool) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	pendingCap := int64(workers * 2)
	return &Coordinator{
		table: table,
		eval:  eval,
		cfg:   cfg,
		stop:  stop,
		pool:  newPool(workers, 64, pendingCap, table, eval, cfg, stop),
	}
}

// Close shuts the coordinator's worker pool down. Safe to call once at
// engine shutdown; not safe to call concurrently with SearchRoot.
func (c *Coordinator) Close() { c.pool.Close() }

// Nodes reports the total node count searched by every worker since the
// coordinator was built.
func (c *Coordinator) Nodes() uint64 { return c.pool.Nodes() }

// SearchRoot searches pos to depth, sequentially for the oldest (best-
// ordered) move and — when depth clears SplitMinDepth — in parallel for
// the rest, via published YBWC work units. deadline bounds how long the
// root waits for its siblings to report before treating the search as
// timed out and returning the best result seen so far.
func (c *Coordinator) SearchRoot(pos *shogi.Position, depth int, deadline time.Duration) Result {
	us := pos.SideToMove()
	var list shogi.MoveList
	pos.GeneratePseudoLegal(us, &list)
	orderer := order.New()
	scores := orderer.ScoreMoves(&list, 0, shogi.NoMove, order.BookHint{})

	legal := make([]shogi.Move, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		order.PickMove(&list, scores, i)
		m := list.At(i)
		if pos.IsLegal(m) {
			legal = append(legal, m)
		}
	}
	if len(legal) == 0 {
		return Result{}
	}

	alpha, beta := -search.Infinity, search.Infinity
	var totalNodes uint64

	oldestPos := pos.Clone()
	oldestInfo := oldestPos.Make(legal[0])
	oldestState := search.NewState(oldestPos, c.table, c.eval, c.cfg, c.stop)
	oldestState.Main.Push(oldestPos.Hash())
	best := Result{
		Move:  legal[0],
		Score: -oldestState.Negamax(depth-1, 1, -beta, -alpha, false),
	}
	oldestState.Main.Pop()
	oldestPos.Unmake(oldestInfo)
	totalNodes += oldestState.Nodes
	if best.Score > alpha {
		alpha = best.Score
	}

	siblings := legal[1:]
	if len(siblings) == 0 || depth < SplitMinDepth || (c.stop != nil && c.stop.Load()) {
		for _, m := range siblings {
			childPos := pos.Clone()
			info := childPos.Make(m)
			state := search.NewState(childPos, c.table, c.eval, c.cfg, c.stop)
			state.Main.Push(childPos.Hash())
			score := -state.Negamax(depth-1, 1, -beta, -alpha, false)
			state.Main.Pop()
			childPos.Unmake(info)
			totalNodes += state.Nodes
			if score > best.Score {
				best = Result{Move: m, Score: score}
			}
			if score > alpha {
				alpha = score
			}
			if c.stop != nil && c.stop.Load() {
				break
			}
		}
		best.Nodes = totalNodes
		return best
	}

	poolNodesBefore := c.pool.Nodes()
	handle := newSyncHandle(len(siblings))
	for _, m := range siblings {
		childPos := pos.Clone()
		childPos.Make(m)
		c.pool.publish(workUnit{
			pos:     childPos,
			move:    m,
			depth:   depth - 1,
			ply:     1,
			alpha:   -beta,
			beta:    -alpha,
			cutNode: false,
			handle:  handle,
		})
	}

	results, _ := handle.waitForComplete(deadline, c.stop)
	for _, r := range results {
		if r.score > best.Score {
			best = Result{Move: r.move, Score: r.score}
		}
	}
	best.Nodes = totalNodes + (c.pool.Nodes() - poolNodesBefore)
	return best
}
