package evaluator

import (
	"testing"

	"github.com/fgantt/shogi-search-engine/internal/shogi"
)

func TestEvaluateStartingPositionIsSymmetric(t *testing.T) {
	pos := shogi.NewPosition()
	e := New()
	if score := e.Evaluate(pos); score != 0 {
		t.Fatalf("expected a symmetric starting score of 0, got %d", score)
	}
}

func TestEvaluateRewardsMaterialAdvantage(t *testing.T) {
	p := shogi.NewEmptyPosition()
	p.Place(shogi.NewSquare(4, 0), shogi.NewPiece(shogi.Black, shogi.King))
	p.Place(shogi.NewSquare(4, 8), shogi.NewPiece(shogi.White, shogi.King))
	p.Place(shogi.NewSquare(0, 0), shogi.NewPiece(shogi.Black, shogi.Rook))

	e := New()
	score := e.Evaluate(p)
	if score <= 0 {
		t.Fatalf("expected Black (side to move) to be ahead with an extra rook, got %d", score)
	}
}

func TestEvaluateRewardsHandMaterial(t *testing.T) {
	bare := shogi.NewEmptyPosition()
	bare.Place(shogi.NewSquare(4, 0), shogi.NewPiece(shogi.Black, shogi.King))
	bare.Place(shogi.NewSquare(4, 8), shogi.NewPiece(shogi.White, shogi.King))

	withHandPiece := shogi.NewEmptyPosition()
	withHandPiece.Place(shogi.NewSquare(4, 0), shogi.NewPiece(shogi.Black, shogi.King))
	withHandPiece.Place(shogi.NewSquare(4, 8), shogi.NewPiece(shogi.White, shogi.King))
	withHandPiece.AddToHand(shogi.Black, shogi.Gold, 1)

	e := New()
	base := e.Evaluate(bare)
	withGold := e.Evaluate(withHandPiece)
	if withGold <= base {
		t.Fatalf("expected a hand Gold to increase Black's score: base=%d withGold=%d", base, withGold)
	}
}

func TestEvaluatePromotionAdvanceFavorsAdvancedPawn(t *testing.T) {
	back := shogi.NewEmptyPosition()
	back.Place(shogi.NewSquare(4, 0), shogi.NewPiece(shogi.Black, shogi.King))
	back.Place(shogi.NewSquare(4, 8), shogi.NewPiece(shogi.White, shogi.King))
	back.Place(shogi.NewSquare(0, 1), shogi.NewPiece(shogi.Black, shogi.Pawn))

	advanced := shogi.NewEmptyPosition()
	advanced.Place(shogi.NewSquare(4, 0), shogi.NewPiece(shogi.Black, shogi.King))
	advanced.Place(shogi.NewSquare(4, 8), shogi.NewPiece(shogi.White, shogi.King))
	advanced.Place(shogi.NewSquare(0, 7), shogi.NewPiece(shogi.Black, shogi.Pawn))

	e := New()
	if e.Evaluate(advanced) <= e.Evaluate(back) {
		t.Fatal("expected a pawn closer to the promotion zone to score higher for Black")
	}
}
