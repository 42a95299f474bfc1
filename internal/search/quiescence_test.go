package search

import (
	"sync/atomic"
	"testing"

	"github.com/fgantt/shogi-search-engine/internal/shogi"
	"github.com/fgantt/shogi-search-engine/internal/tt"
)

func TestQuiescenceStartingPositionIsStandPat(t *testing.T) {
	s := newTestState(NewConfig())
	score := s.Quiescence(0, -Infinity, Infinity)
	if score != 0 {
		t.Fatalf("expected symmetric stand-pat score of 0, got %d", score)
	}
}

// TestQuiescenceFindsFreeCapture builds a position where Black can win a
// pawn outright; quiescence must search the capture rather than settling
// for the stand-pat score.
func TestQuiescenceFindsFreeCapture(t *testing.T) {
	p := shogi.NewEmptyPosition()
	p.Place(shogi.NewSquare(4, 0), shogi.NewPiece(shogi.Black, shogi.King))
	p.Place(shogi.NewSquare(4, 8), shogi.NewPiece(shogi.White, shogi.King))
	p.Place(shogi.NewSquare(3, 4), shogi.NewPiece(shogi.Black, shogi.Rook))
	p.Place(shogi.NewSquare(3, 5), shogi.NewPiece(shogi.White, shogi.Pawn))

	table := tt.New(1, 16)
	s := NewState(p, table, materialEvaluator{}, NewConfig(), new(atomic.Bool))
	score := s.Quiescence(0, -Infinity, Infinity)
	// Stand-pat is already +900 (rook against pawn); only searching the
	// capture lifts the score above it.
	if score <= 900 {
		t.Fatalf("expected the free pawn capture to lift the score above the 900 stand-pat, got %d", score)
	}
}

func TestQuiescenceNeverReturnsZeroOnGenuineEvaluation(t *testing.T) {
	p := shogi.NewEmptyPosition()
	p.Place(shogi.NewSquare(4, 0), shogi.NewPiece(shogi.Black, shogi.King))
	p.Place(shogi.NewSquare(4, 8), shogi.NewPiece(shogi.White, shogi.King))
	p.Place(shogi.NewSquare(0, 0), shogi.NewPiece(shogi.Black, shogi.Rook))

	table := tt.New(1, 16)
	s := NewState(p, table, materialEvaluator{}, NewConfig(), new(atomic.Bool))
	score := s.Quiescence(0, -Infinity, Infinity)
	if score == 0 {
		t.Fatalf("expected the material imbalance to show up in the score, got 0")
	}
}
