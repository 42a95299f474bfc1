package parallel

import (
	"github.com/fgantt/shogi-search-engine/internal/search"
	"github.com/fgantt/shogi-search-engine/internal/shogi"
)

// DeepenResult is one completed iterative-deepening depth's output from a
// Coordinator-driven search. Unlike search.Result, its PV is just the
// root's best move: tracking a full principal variation across
// worker-pool boundaries would mean every published sibling reporting
// its own line back through the deque protocol, a cost this module's
// root-only split isn't built to pay for.
type DeepenResult struct {
	Depth int
	Score int
	Move  shogi.Move
	Nodes uint64
}

// RunIterativeDeepening drives c through increasing depths the same way
// search.Deepener drives a single State — time-managed, with the same
// move-stability budget adjustment between depths — but searches each
// depth's root through the YBWC coordinator instead of a lone Negamax
// call, so cfg.Threads > 1 actually exercises the worker pool rather
// than leaving it unreachable from the engine's real driving loop.
// onDepth, if non-nil, is called after every completed depth.
func RunIterativeDeepening(c *Coordinator, pos *shogi.Position, tm *search.TimeManager, maxDepth int, onDepth func(DeepenResult)) DeepenResult {
	if maxDepth <= 0 || maxDepth > search.MaxPly {
		maxDepth = search.MaxPly
	}

	var last DeepenResult
	var stableDepths, changes int
	var lastBest shogi.Move

	for depth := 1; depth <= maxDepth; depth++ {
		if tm.ShouldStop() {
			break
		}

		result := c.SearchRoot(pos, depth, tm.Remaining())
		if result.Move.IsZero() {
			break
		}

		if result.Move == lastBest {
			stableDepths++
			changes = 0
		} else {
			changes++
			stableDepths = 0
		}
		lastBest = result.Move

		last = DeepenResult{Depth: depth, Score: result.Score, Move: result.Move, Nodes: result.Nodes}
		if onDepth != nil {
			onDepth(last)
		}

		if result.Score > search.MateScore-search.MaxPly || result.Score < -(search.MateScore-search.MaxPly) {
			break
		}

		if stableDepths > 0 {
			tm.AdjustForStability(stableDepths)
		} else if changes > 0 {
			tm.AdjustForInstability(changes)
		}

		if tm.PastOptimum() {
			break
		}
	}
	return last
}
