// Package evaluator implements the search's static evaluator: a compact
// tapered (middlegame/endgame) material-and-structure score, blended by the
// position's material phase exactly the way the teacher's Evaluate does,
// adapted from chess's piece-square-table idiom to shogi's promotion-zone
// and pieces-in-hand mechanics.
package evaluator

import (
	"github.com/fgantt/shogi-search-engine/internal/search"
	"github.com/fgantt/shogi-search-engine/internal/shogi"
)

// pieceValue is the material baseline in centipawns; promoted minor pieces
// are worth more than their base piece and at most a Gold, and Horse and
// Dragon sit above Bishop and Rook, matching how shogi players informally
// rank promoted pieces.
var pieceValue = map[shogi.PieceType]int{
	shogi.Pawn: 100, shogi.Lance: 300, shogi.Knight: 320, shogi.Silver: 480,
	shogi.Gold: 500, shogi.Bishop: 780, shogi.Rook: 1000, shogi.King: 0,
	shogi.PromotedPawn: 420, shogi.PromotedLance: 480, shogi.PromotedKnight: 480,
	shogi.PromotedSilver: 500, shogi.Horse: 1080, shogi.Dragon: 1300,
}

// mobilityWeightMg/mobilityWeightEg scale a piece's legal-destination count
// into a score contribution, heavier in the endgame for long-range pieces
// the way the teacher's mobilityEgWeight table favors rooks/queens once the
// board opens up.
var mobilityWeightMg = map[shogi.PieceType]int{
	shogi.Pawn: 0, shogi.Lance: 2, shogi.Knight: 3, shogi.Silver: 3, shogi.Gold: 2,
	shogi.Bishop: 4, shogi.Rook: 5, shogi.King: 0,
	shogi.PromotedPawn: 2, shogi.PromotedLance: 2, shogi.PromotedKnight: 2,
	shogi.PromotedSilver: 2, shogi.Horse: 5, shogi.Dragon: 6,
}

var mobilityWeightEg = map[shogi.PieceType]int{
	shogi.Pawn: 0, shogi.Lance: 3, shogi.Knight: 3, shogi.Silver: 4, shogi.Gold: 3,
	shogi.Bishop: 6, shogi.Rook: 7, shogi.King: 1,
	shogi.PromotedPawn: 3, shogi.PromotedLance: 3, shogi.PromotedKnight: 3,
	shogi.PromotedSilver: 3, shogi.Horse: 7, shogi.Dragon: 8,
}

// handPieceDiscount is subtracted from a piece's value for each copy held
// in hand. It is 0, so hand material is valued exactly like the same piece
// on the board.
const handPieceDiscount = 0

// promotionAdvanceBonus rewards pawns, lances, and knights for sitting
// close to the promotion zone, a cheap stand-in for the real threat of an
// imminent promotion without searching the capture sequence that earns it.
const promotionAdvanceBonus = 6

// pawnShieldBonus rewards each friendly piece (of any type) on the three
// squares directly in front of the king,
// grounded on the teacher's king-safety pawn-shield idiom, scored only in
// the middlegame since an endgame king usually wants to be active instead.
const pawnShieldBonus = 8

// Evaluator is the concrete static evaluator wired into the engine by
// default; it satisfies search.Evaluator. The zero value has no cache and
// is safely shared across every worker's State; NewCached attaches a
// structural-score cache instead.
type Evaluator struct {
	cache *StructureCache
}

// New returns the default, cache-free evaluator.
func New() Evaluator { return Evaluator{} }

// NewCached returns an evaluator backed by a StructureCache sized to hold
// roughly sizeMB megabytes of entries, letting repeated evaluations of
// transposed positions skip the mobility/king-shield move-generation work.
// The returned Evaluator is safe to share across a pool's workers the same
// way the teacher shares one PawnTable across several Worker goroutines:
// entries are small, self-contained, and a torn read under concurrent
// writers only ever costs a cache miss, never a wrong evaluation.
func NewCached(sizeMB int) Evaluator { return Evaluator{cache: NewStructureCache(sizeMB)} }

// Evaluate scores pos from the side-to-move's perspective, in centipawns.
func (e Evaluator) Evaluate(pos search.Position) int {
	var mg, eg int

	for sq := shogi.Square(0); sq < shogi.NumSquares; sq++ {
		pc := pos.PieceAt(sq)
		if pc.IsEmpty() {
			continue
		}
		sign := 1
		if pc.Color() != pos.SideToMove() {
			sign = -1
		}
		pt := pc.Type()
		v := pieceValue[pt]
		mg += sign * v
		eg += sign * v

		if advance := promotionAdvance(pc.Color(), pt, sq); advance > 0 {
			mg += sign * advance
			eg += sign * advance / 2
		}
	}

	hand := pos.Hand()
	for _, pt := range shogi.HandPieceTypes {
		for _, c := range [2]shogi.Color{shogi.Black, shogi.White} {
			sign := 1
			if c != pos.SideToMove() {
				sign = -1
			}
			count := int(hand.Count(c, pt))
			v := (pieceValue[pt] - handPieceDiscount) * count
			mg += sign * v
			eg += sign * v
		}
	}

	us, them := pos.SideToMove(), pos.SideToMove().Other()
	structMg, structEg := e.structuralScore(pos, us, them)
	mg += structMg
	eg += structEg

	phase := pos.MaterialPhase()
	if phase > shogi.PhaseMax {
		phase = shogi.PhaseMax
	}
	return (mg*phase + eg*(shogi.PhaseMax-phase)) / shogi.PhaseMax
}

func promotionAdvance(c shogi.Color, pt shogi.PieceType, sq shogi.Square) int {
	if pt != shogi.Pawn && pt != shogi.Lance && pt != shogi.Knight {
		return 0
	}
	rank := sq.Rank()
	// ranks are numbered 0 (Black's back rank) to 8 (White's back rank);
	// Black advances toward rank 8, White toward rank 0.
	var distanceFromPromotion int
	if c == shogi.Black {
		distanceFromPromotion = 8 - rank
	} else {
		distanceFromPromotion = rank
	}
	if distanceFromPromotion > 5 {
		return 0
	}
	return (5 - distanceFromPromotion) * promotionAdvanceBonus / 5
}

// structuralScore combines mobility and king-shield into the single pair
// of mg/eg contributions a StructureCache entry stores, so a cache hit
// skips both move-generation calls and the king scan in one probe.
func (e Evaluator) structuralScore(pos search.Position, us, them shogi.Color) (mg, eg int) {
	hash := pos.Hash()
	if e.cache != nil {
		if cmg, ceg, ok := e.cache.Probe(hash); ok {
			return cmg, ceg
		}
	}

	mgMobUs, egMobUs := mobility(pos, us)
	mgMobThem, egMobThem := mobility(pos, them)
	mg = mgMobUs - mgMobThem
	eg = egMobUs - egMobThem
	mg += kingShield(pos, us) - kingShield(pos, them)

	if e.cache != nil {
		e.cache.Store(hash, mg, eg)
	}
	return mg, eg
}

func mobility(pos search.Position, c shogi.Color) (mg, eg int) {
	var list shogi.MoveList
	pos.GeneratePseudoLegal(c, &list)
	for i := 0; i < list.Len(); i++ {
		pt := list.At(i).Piece
		mg += mobilityWeightMg[pt]
		eg += mobilityWeightEg[pt]
	}
	return mg, eg
}

func kingShield(pos search.Position, c shogi.Color) int {
	var kingSq shogi.Square = shogi.NoSquare
	for sq := shogi.Square(0); sq < shogi.NumSquares; sq++ {
		pc := pos.PieceAt(sq)
		if pc.Type() == shogi.King && pc.Color() == c {
			kingSq = sq
			break
		}
	}
	if kingSq == shogi.NoSquare {
		return 0
	}

	file, rank := kingSq.File(), kingSq.Rank()
	forward := 1
	if c == shogi.White {
		forward = -1
	}
	shield := 0
	for df := -1; df <= 1; df++ {
		f := file + df
		r := rank + forward
		if f < 0 || f >= 9 || r < 0 || r >= 9 {
			continue
		}
		pc := pos.PieceAt(shogi.NewSquare(f, r))
		if pc.Color() == c && !pc.IsEmpty() {
			shield += pawnShieldBonus
		}
	}
	return shield
}
