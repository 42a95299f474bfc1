package search

import (
	"sync/atomic"

	"github.com/fgantt/shogi-search-engine/internal/order"
	"github.com/fgantt/shogi-search-engine/internal/prune"
	"github.com/fgantt/shogi-search-engine/internal/shogi"
	"github.com/fgantt/shogi-search-engine/internal/tt"
)

// RepetitionHistory is a hash stack used to detect repeated positions.
type RepetitionHistory struct {
	hashes []uint64
}

// NewRepetitionHistory returns an empty history with room for a typical
// game's worth of plies preallocated.
func NewRepetitionHistory() *RepetitionHistory {
	return &RepetitionHistory{hashes: make([]uint64, 0, 512)}
}

// Push records hash as the most recently played position.
func (r *RepetitionHistory) Push(hash uint64) { r.hashes = append(r.hashes, hash) }

// Pop removes the most recently recorded hash.
func (r *RepetitionHistory) Pop() {
	if len(r.hashes) > 0 {
		r.hashes = r.hashes[:len(r.hashes)-1]
	}
}

// Len reports how many hashes are recorded.
func (r *RepetitionHistory) Len() int { return len(r.hashes) }

// Count returns how many times hash appears in the history. Negamax
// pushes a child's hash before searching it, so at that node the count
// includes the current position itself.
func (r *RepetitionHistory) Count(hash uint64) int {
	n := 0
	for _, h := range r.hashes {
		if h == hash {
			n++
		}
	}
	return n
}

// State is one worker's search context: the position it searches from,
// its private move orderer (killers/history are never shared across
// workers), and the TT/evaluator/pruning collaborators shared read-only
// (the TT aside, which is concurrency-safe by construction) across the
// whole search.
type State struct {
	Pos       Position
	TT        *tt.Table
	Orderer   *order.Orderer
	Evaluator Evaluator
	Cfg       Config
	pruneCfg  prune.Config
	lmrTable  *prune.LMRTable
	Stop      *atomic.Bool
	tm        *TimeManager
	correction *CorrectionHistory

	Nodes uint64

	// Main tracks only the line actually being played: every real
	// Make/Unmake pushes and pops it. NMP and IID sub-searches recurse
	// through real Make/Unmake too (a null-move pass plus the real replies
	// searched under it), so withSpeculativeHistory swaps Main out for a
	// fresh scratch stack for the duration of that recursion — otherwise a
	// position reached only via an illegal null-move pass could coincide
	// with a real earlier position and falsely report a draw in the main
	// line's history.
	Main *RepetitionHistory

	pv    [MaxPly][MaxPly]shogi.Move
	pvLen [MaxPly]int

	rootBookHint    order.BookHint
	currentPressure prune.TimePressure

	// excludedRootMoves is set only while SearchMultiPV is iterating past
	// the first PV line; Negamax skips these at ply 0 so a later line
	// cannot simply rediscover an earlier one.
	excludedRootMoves map[shogi.Move]bool

	// meter is nil unless WithMeter was passed to NewState, in which case
	// every record* call in metrics.go becomes a real OpenTelemetry add.
	meter *meterInstruments
}

// SetTimePressure is called once per iterative-deepening depth by the
// Deepener, translating the time manager's remaining-fraction signal into
// the pruning manager's TimePressure band for every node searched at that
// depth.
func (s *State) SetTimePressure(p prune.TimePressure) { s.currentPressure = p }

// NewState builds a worker-local search state sharing tt/evaluator with
// the rest of the pool but owning its own move orderer and repetition
// stacks.
func NewState(pos Position, table *tt.Table, eval Evaluator, cfg Config, stop *atomic.Bool, opts ...StateOption) *State {
	s := &State{
		Pos:       pos,
		TT:        table,
		Orderer:   order.New(),
		Evaluator: eval,
		Cfg:       cfg,
		pruneCfg:  cfg.pruneConfig(),
		lmrTable:  prune.NewLMRTable(),
		Stop:       stop,
		Main:       NewRepetitionHistory(),
		correction: NewCorrectionHistory(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AttachTimeManager lets the node loop self-terminate between nodes
// rather than only between completed iterative-deepening depths; without
// it a single deep iteration on a wide-open position could run well past
// the allotted budget before the Deepener gets a chance to check.
func (s *State) AttachTimeManager(tm *TimeManager) {
	s.tm = tm
}

// timeCheckInterval is a bit mask on the node counter: the clock is
// checked once every 2048 nodes. Too
// small wastes cycles on time.Now(); too large lets the search overrun
// its budget before noticing.
const timeCheckInterval = 2047

func (s *State) checkTime() {
	if s.tm == nil || s.Nodes&timeCheckInterval != 0 {
		return
	}
	if s.tm.ShouldStop() {
		s.Stop.Store(true)
	}
}

// PV returns the principal variation found at the root (ply 0).
func (s *State) PV() []shogi.Move {
	n := s.pvLen[0]
	out := make([]shogi.Move, n)
	copy(out, s.pv[0][:n])
	return out
}

func (s *State) updatePV(ply int, m shogi.Move) {
	s.pv[ply][0] = m
	copy(s.pv[ply][1:], s.pv[ply+1][:s.pvLen[ply+1]])
	s.pvLen[ply] = s.pvLen[ply+1] + 1
}

func (s *State) clearPVLength(ply int) { s.pvLen[ply] = 0 }

func (s *State) stopped() bool { return s.Stop != nil && s.Stop.Load() }

func (s *State) isDraw() bool {
	hash := s.Pos.Hash()
	return s.Main.Count(hash) >= 3
}

// withSpeculativeHistory runs fn with Main swapped for a fresh, empty
// history, so any real Make/Unmake performed inside fn (an NMP null-move
// reply or an IID probe) tracks repetition only against moves played
// within that speculative recursion, never against the real line it was
// launched from. Nested speculative calls just keep appending to whatever
// scratch history is already active, which is harmless since none of it
// is real-line state.
func (s *State) withSpeculativeHistory(fn func() int) int {
	saved := s.Main
	s.Main = NewRepetitionHistory()
	defer func() { s.Main = saved }()
	return fn()
}
