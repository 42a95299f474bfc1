// Package order scores and sorts candidate moves at each search node: TT
// move first, then captures by estimated material gain, promotions,
// killer moves, opening-book hints, and history, with losing captures
// pushed to the back instead of excluded outright.
package order

import (
	"math"

	"github.com/fgantt/shogi-search-engine/internal/shogi"
)

// Score tiers from the spec's move-ordering priority table. The book
// weight is clamped so a book hint stays inside its own tier; a quiet
// move's history score is not clamped to a tier, and since history runs
// up to historyOverflowLimit it can rank a quiet move above the capture,
// promotion, killer or book tiers (or, when negative, below a losing
// capture).
const (
	ScoreTTMove          = math.MaxInt32
	WinningCaptureBase   = 10000
	PromotionScore       = 8000
	Killer1Score         = 7000
	Killer2Score         = 6500
	BookHintBase         = 5000
	QuietBase            = 0
	LosingCaptureBase    = -1000
	historyOverflowLimit = 400000
)

// pieceValue feeds the capture-gain estimate; it is a rough material
// scale, not the static evaluator's weights, and exists only to rank
// captures relative to each other.
var pieceValue = map[shogi.PieceType]int{
	shogi.Pawn: 100, shogi.Lance: 300, shogi.Knight: 300, shogi.Silver: 500,
	shogi.Gold: 500, shogi.Bishop: 800, shogi.Rook: 1000, shogi.King: 0,
	shogi.PromotedPawn: 500, shogi.PromotedLance: 500, shogi.PromotedKnight: 500,
	shogi.PromotedSilver: 500, shogi.Horse: 1000, shogi.Dragon: 1200,
}

// PieceValue exposes the same rough material scale move ordering uses for
// capture-gain estimates, so other packages (quiescence's capture filter)
// rank pieces consistently instead of keeping a second table in sync.
func PieceValue(pt shogi.PieceType) int { return pieceValue[pt] }

const maxPly = 128

// Orderer accumulates killer and history tables across a search and
// reuses them move-to-move; one Orderer is owned per worker so siblings
// never contend on these tables.
type Orderer struct {
	killers [maxPly][2]shogi.Move
	history [shogi.NumSquares + 1][shogi.NumSquares]int // +1 row for DropSentinel
}

// New returns an empty Orderer.
func New() *Orderer { return &Orderer{} }

// Clear resets killers and ages history down for a fresh search, mirroring
// the halving the teacher applies between searches instead of a hard
// reset, so history accumulated across a multi-second think is not
// thrown away wholesale.
func (o *Orderer) Clear() {
	for i := range o.killers {
		o.killers[i][0] = shogi.NoMove
		o.killers[i][1] = shogi.NoMove
	}
	for i := range o.history {
		for j := range o.history[i] {
			o.history[i][j] /= 2
		}
	}
}

func historyRow(from shogi.Square) int {
	if from == shogi.DropSentinel {
		return shogi.NumSquares
	}
	return int(from)
}

// BookHint is a single opening-book-sourced ordering nudge; Weight is
// clamped into [0, 999] before being folded into the book-hint tier so
// it can never collide with the killer tier above it.
type BookHint struct {
	Move   shogi.Move
	Weight int
}

// ScoreMoves assigns an ordering score to every move in list, given the
// node's TT move (possibly NoMove), its ply (for killer lookup), and an
// optional opening-book hint (possibly the zero BookHint, meaning none).
func (o *Orderer) ScoreMoves(list *shogi.MoveList, ply int, ttMove shogi.Move, hint BookHint) []int {
	scores := make([]int, list.Len())
	for i := 0; i < list.Len(); i++ {
		scores[i] = o.scoreMove(list.At(i), ply, ttMove, hint)
	}
	return scores
}

func (o *Orderer) scoreMove(m shogi.Move, ply int, ttMove shogi.Move, hint BookHint) int {
	if m == ttMove {
		return ScoreTTMove
	}

	if m.IsCapture {
		gain := pieceValue[m.CapturedType] - pieceValue[m.Piece]
		if gain >= 0 {
			return WinningCaptureBase + gain
		}
		return LosingCaptureBase + gain
	}

	if m.Promotion {
		return PromotionScore
	}

	if ply < maxPly {
		if m == o.killers[ply][0] {
			return Killer1Score
		}
		if m == o.killers[ply][1] {
			return Killer2Score
		}
	}

	if hint.Move != shogi.NoMove && m == hint.Move {
		w := hint.Weight
		if w < 0 {
			w = 0
		}
		if w > 999 {
			w = 999
		}
		return BookHintBase + w
	}

	return QuietBase + o.history[historyRow(m.From)][m.To]
}

// SortMoves sorts list descending by scores in place; a selection sort is
// adequate for shogi's modest pseudo-legal branching factor and avoids an
// allocation the standard library's sort.Slice would incur per node.
func SortMoves(list *shogi.MoveList, scores []int) {
	n := list.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			mi, mb := list.At(i), list.At(best)
			list.Set(i, mb)
			list.Set(best, mi)
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// PickMove moves the best-scoring move among list[index:] into position
// index, enabling lazy partial sorting: callers that beta-cutoff after
// the first few moves never pay for sorting the rest.
func PickMove(list *shogi.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < list.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		mi, mb := list.At(index), list.At(best)
		list.Set(index, mb)
		list.Set(best, mi)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers records m as a killer at ply, shifting the previous
// first killer down a slot.
func (o *Orderer) UpdateKillers(m shogi.Move, ply int) {
	if ply >= maxPly || o.killers[ply][0] == m {
		return
	}
	o.killers[ply][1] = o.killers[ply][0]
	o.killers[ply][0] = m
}

// UpdateHistory applies a depth-squared bonus or penalty to a quiet move
// that caused (or failed to cause) a beta cutoff. A bonus that lifts a
// cell above +400000 halves the whole table; a penalty that takes a cell
// below -400000 clamps that cell at -400000 instead.
func (o *Orderer) UpdateHistory(m shogi.Move, depth int, isGood bool) {
	row, col := historyRow(m.From), int(m.To)
	bonus := depth * depth
	if isGood {
		o.history[row][col] += bonus
		if o.history[row][col] > historyOverflowLimit {
			o.ageHistory()
		}
	} else {
		o.history[row][col] -= bonus
		if o.history[row][col] < -historyOverflowLimit {
			o.history[row][col] = -historyOverflowLimit
		}
	}
}

func (o *Orderer) ageHistory() {
	for i := range o.history {
		for j := range o.history[i] {
			o.history[i][j] /= 2
		}
	}
}

// HistoryScore exposes the raw history value for a move; the pruning
// package does not read it.
func (o *Orderer) HistoryScore(m shogi.Move) int {
	return o.history[historyRow(m.From)][int(m.To)]
}
