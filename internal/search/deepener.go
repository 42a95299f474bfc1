package search

import (
	"sync/atomic"

	"github.com/fgantt/shogi-search-engine/internal/prune"
	"github.com/fgantt/shogi-search-engine/internal/shogi"
)

// Infinity is a window bound wide enough that no real score ever reaches
// it, used as the root aspiration window's starting edges at shallow
// depths and as the expanded edge once a re-search has given up narrowing.
const Infinity = MateScore + MaxPly

// Result is one completed iterative-deepening depth's output.
type Result struct {
	Depth int
	Score int
	Move  shogi.Move
	PV    []shogi.Move
	Nodes uint64
}

// Deepener drives a single State through increasing depths, narrowing the
// search window around the previous depth's score (aspiration windows)
// and re-searching with a widened window on fail-high/fail-low, the same
// progressive-widening loop the teacher's engine runs per worker.
type Deepener struct {
	state *State
	tm    *TimeManager

	prevScore    int
	stableDepths int
	changes      int
	lastBest     shogi.Move
}

// NewDeepener builds a deepener around an already-constructed search
// state and time manager.
func NewDeepener(state *State, tm *TimeManager) *Deepener {
	state.AttachTimeManager(tm)
	return &Deepener{state: state, tm: tm}
}

// Run iterates depth 1..maxDepth (or until the time manager's optimum
// budget is spent), calling onDepth after every completed depth so a
// caller can report "info"-style progress without the deepener owning
// any I/O itself. It stops early once a depth reports a mate score
// shallow enough to be certain, and applies the move-stability early
// stopout between depths.
func (d *Deepener) Run(maxDepth int, onDepth func(Result)) Result {
	var last Result

	for depth := 1; depth <= maxDepth; depth++ {
		if d.state.stopped() || d.tm.ShouldStop() {
			break
		}

		d.state.SetTimePressure(prune.ComputeTimePressure(d.tm.RemainingFraction()))

		nodesBefore := d.state.Nodes
		score := d.searchAspirated(depth)
		d.state.flushNodeCount(d.state.Nodes - nodesBefore)
		if d.state.stopped() {
			break
		}

		pv := d.state.PV()
		if len(pv) == 0 {
			break
		}
		move := pv[0]

		if move == d.lastBest {
			d.stableDepths++
			d.changes = 0
		} else {
			d.changes++
			d.stableDepths = 0
		}
		d.lastBest = move

		last = Result{Depth: depth, Score: score, Move: move, PV: pv, Nodes: d.state.Nodes}
		d.prevScore = score
		if onDepth != nil {
			onDepth(last)
		}

		if score > MateScore-MaxPly || score < -(MateScore-MaxPly) {
			break
		}

		if d.stableDepths > 0 {
			d.tm.AdjustForStability(d.stableDepths)
		} else if d.changes > 0 {
			d.tm.AdjustForInstability(d.changes)
		}

		if d.tm.PastOptimum() {
			break
		}
	}
	return last
}

// searchAspirated runs one depth with a window narrowed around the
// previous depth's score, widening and re-searching on fail-high/low
// until the result lands strictly inside the window or the window has
// already been opened to +-Infinity.
func (d *Deepener) searchAspirated(depth int) int {
	if depth < 5 || d.prevScore == 0 {
		return d.state.Negamax(depth, 0, -Infinity, Infinity, false)
	}

	window := d.state.Cfg.AspirationWindow
	if window <= 0 {
		window = 25
	}
	alpha := d.prevScore - window
	beta := d.prevScore + window
	retries := 0

	for {
		score := d.state.Negamax(depth, 0, alpha, beta, false)
		if d.state.stopped() {
			return score
		}

		if score <= alpha {
			retries++
			if retries >= 3 {
				alpha = -Infinity
			} else {
				alpha = d.prevScore - window*(1<<retries)
			}
		} else if score >= beta {
			retries++
			if retries >= 3 {
				beta = Infinity
			} else {
				beta = d.prevScore + window*(1<<retries)
			}
		} else {
			return score
		}
	}
}

// SearchMultiPV runs the deepener numPV times, with Negamax skipping each
// previously found root move at ply 0 so successive runs surface the next-
// best line, grounded on the teacher's exclusion-based re-search rather
// than a true parallel multi-PV table.
func SearchMultiPV(state *State, tm *TimeManager, maxDepth, numPV int) []Result {
	if numPV < 1 {
		numPV = 1
	}
	results := make([]Result, 0, numPV)
	excluded := make(map[shogi.Move]bool, numPV)

	for i := 0; i < numPV; i++ {
		state.excludedRootMoves = excluded
		d := NewDeepener(state, tm)
		res := d.Run(maxDepth, nil)
		if res.Move.IsZero() {
			break
		}
		results = append(results, res)
		excluded[res.Move] = true
	}
	state.excludedRootMoves = nil

	for i := 0; i < len(results)-1; i++ {
		maxIdx := i
		for j := i + 1; j < len(results); j++ {
			if results[j].Score > results[maxIdx].Score {
				maxIdx = j
			}
		}
		if maxIdx != i {
			results[i], results[maxIdx] = results[maxIdx], results[i]
		}
	}
	return results
}

// StopSignal builds a fresh atomic stop flag for a search, exported so
// callers outside this package need not import sync/atomic themselves just
// to cancel a search. The parallel coordinator and cmd/searchbench build
// their flags with new(atomic.Bool) directly.
func StopSignal() *atomic.Bool { return new(atomic.Bool) }
