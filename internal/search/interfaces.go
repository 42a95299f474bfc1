package search

import "github.com/fgantt/shogi-search-engine/internal/shogi"

// Position is the Board Abstractor contract the search core consumes.
// shogi.Position satisfies it, but the search never names that type
// directly — anything that can make/unmake moves, report check and
// legality, and expose a stable hash and material phase can stand in,
// which is what keeps the search testable against small hand-built
// positions without dragging in full shogi rules.
type Position interface {
	Hash() uint64
	SideToMove() shogi.Color
	InCheck(c shogi.Color) bool
	GeneratePseudoLegal(c shogi.Color, list *shogi.MoveList)
	IsLegal(m shogi.Move) bool
	IsSquareAttacked(sq shogi.Square, by shogi.Color) bool
	Make(m shogi.Move) shogi.MoveInfo
	Unmake(info shogi.MoveInfo)
	MakeNullMove() shogi.NullMoveUndo
	UnmakeNullMove(undo shogi.NullMoveUndo)
	HasNonPawnMaterial(c shogi.Color) bool
	MaterialPhase() int

	// PieceAt and Hand expose read-only board state for the static
	// evaluator, which unlike the search core has no reason to stay
	// decoupled from the concrete piece representation — it IS a function
	// of piece placement. Any Board Abstractor implementation can supply
	// these as trivially as the others.
	PieceAt(sq shogi.Square) shogi.Piece
	Hand() shogi.Hand
}

// Evaluator is the Static Evaluator contract: a centipawn score from the
// side-to-move's perspective, internally free to blend a tapered (mg, eg)
// pair using the position's material phase.
type Evaluator interface {
	Evaluate(pos Position) int
}

// BookEntry is a single opening-book prefill record, per the Opening-Book
// API's iter_prefill_entries() contract.
type BookEntry struct {
	Hash      uint64
	BestMove  shogi.Move
	Score     int
	Depth     int
}

// Book is the Opening-Book API as consumed for prefill only; this module
// never reads a book move mid-search.
type Book interface {
	PrefillEntries() []BookEntry
}
