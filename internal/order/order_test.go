package order

import (
	"testing"

	"github.com/fgantt/shogi-search-engine/internal/shogi"
)

func buildList(moves ...shogi.Move) *shogi.MoveList {
	l := &shogi.MoveList{}
	for _, m := range moves {
		l.Append(m)
	}
	return l
}

// TestTTMoveSortsFirst covers the invariant the pruning manager's IID
// path depends on: whatever move carries TT priority ends up at index 0
// after sorting, regardless of where it started.
func TestTTMoveSortsFirst(t *testing.T) {
	quiet := shogi.Move{From: shogi.NewSquare(0, 0), To: shogi.NewSquare(0, 1), Piece: shogi.Pawn}
	capture := shogi.Move{From: shogi.NewSquare(1, 1), To: shogi.NewSquare(1, 2), Piece: shogi.Rook, IsCapture: true, CapturedType: shogi.Bishop}
	ttMove := shogi.Move{From: shogi.NewSquare(4, 4), To: shogi.NewSquare(4, 5), Piece: shogi.Silver}

	list := buildList(quiet, capture, ttMove)
	o := New()
	scores := o.ScoreMoves(list, 0, ttMove, BookHint{})
	SortMoves(list, scores)

	if list.At(0) != ttMove {
		t.Fatalf("expected TT move first, got %+v", list.At(0))
	}
}

func TestWinningCaptureOutranksQuiet(t *testing.T) {
	quiet := shogi.Move{From: shogi.NewSquare(0, 0), To: shogi.NewSquare(0, 1), Piece: shogi.Pawn}
	winning := shogi.Move{From: shogi.NewSquare(1, 1), To: shogi.NewSquare(1, 2), Piece: shogi.Pawn, IsCapture: true, CapturedType: shogi.Rook}

	list := buildList(quiet, winning)
	o := New()
	scores := o.ScoreMoves(list, 0, shogi.NoMove, BookHint{})
	SortMoves(list, scores)

	if list.At(0) != winning {
		t.Fatalf("expected winning capture first, got %+v", list.At(0))
	}
}

func TestKillerOutranksPlainHistory(t *testing.T) {
	killer := shogi.Move{From: shogi.NewSquare(2, 2), To: shogi.NewSquare(2, 3), Piece: shogi.Silver}
	other := shogi.Move{From: shogi.NewSquare(3, 3), To: shogi.NewSquare(3, 4), Piece: shogi.Gold}

	o := New()
	o.UpdateKillers(killer, 3)
	o.UpdateHistory(other, 4, true) // give "other" a history bonus, still should lose to killer tier

	list := buildList(other, killer)
	scores := o.ScoreMoves(list, 3, shogi.NoMove, BookHint{})
	SortMoves(list, scores)

	if list.At(0) != killer {
		t.Fatalf("expected killer move first, got %+v", list.At(0))
	}
}

func TestLosingCaptureRanksBelowQuiet(t *testing.T) {
	quiet := shogi.Move{From: shogi.NewSquare(0, 0), To: shogi.NewSquare(0, 1), Piece: shogi.Pawn}
	losing := shogi.Move{From: shogi.NewSquare(1, 1), To: shogi.NewSquare(1, 2), Piece: shogi.Rook, IsCapture: true, CapturedType: shogi.Pawn}

	list := buildList(losing, quiet)
	o := New()
	scores := o.ScoreMoves(list, 0, shogi.NoMove, BookHint{})
	SortMoves(list, scores)

	if list.At(0) != quiet {
		t.Fatalf("expected quiet move ranked above losing capture, got %+v first", list.At(0))
	}
}

func TestPickMoveLazySelection(t *testing.T) {
	a := shogi.Move{From: shogi.NewSquare(0, 0), To: shogi.NewSquare(0, 1), Piece: shogi.Pawn}
	b := shogi.Move{From: shogi.NewSquare(1, 1), To: shogi.NewSquare(1, 2), Piece: shogi.Rook, IsCapture: true, CapturedType: shogi.Dragon}
	list := buildList(a, b)
	o := New()
	scores := o.ScoreMoves(list, 0, shogi.NoMove, BookHint{})

	PickMove(list, scores, 0)
	if list.At(0) != b {
		t.Fatalf("expected the winning capture picked to front, got %+v", list.At(0))
	}
}

func TestHistoryAgesOnOverflow(t *testing.T) {
	o := New()
	m := shogi.Move{From: shogi.NewSquare(5, 5), To: shogi.NewSquare(5, 6), Piece: shogi.Gold}
	for i := 0; i < 500; i++ {
		o.UpdateHistory(m, 30, true)
	}
	if o.HistoryScore(m) > historyOverflowLimit {
		t.Fatalf("history score escaped overflow bound: %d", o.HistoryScore(m))
	}
}

func TestIllegalTTMoveNeverMatchesSilently(t *testing.T) {
	// A TT move absent from the candidate list must simply not match
	// anything — it must never silently promote an unrelated move to
	// the top tier.
	unrelated := shogi.Move{From: shogi.NewSquare(0, 0), To: shogi.NewSquare(0, 1), Piece: shogi.Pawn}
	ttMove := shogi.Move{From: shogi.NewSquare(8, 8), To: shogi.NewSquare(8, 7), Piece: shogi.Lance}

	list := buildList(unrelated)
	o := New()
	scores := o.ScoreMoves(list, 0, ttMove, BookHint{})
	if scores[0] == ScoreTTMove {
		t.Fatal("unrelated move should not receive TT-move priority")
	}
}
