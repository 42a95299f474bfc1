package shogi

import "fmt"

// PhaseMax is the upper bound material_phase() can return; interpolation
// callers divide by this to get a [0,1] blend factor.
const PhaseMax = 24

// pieceColorType packs a PieceType that is NOT bound to the piece's owner
// separately from Piece (defined in types.go) — kept here only as a doc
// anchor; Piece already carries both.

// phaseWeight feeds material_phase(); promoted pieces count as their base
// form since phase tracks remaining "major" material, not promotion state.
var phaseWeight = map[PieceType]int{
	Pawn: 0, Lance: 1, Knight: 1, Silver: 1, Gold: 1, Bishop: 2, Rook: 2,
	PromotedPawn: 0, PromotedLance: 1, PromotedKnight: 1, PromotedSilver: 1,
	Horse: 2, Dragon: 2,
}

// Position is the board abstractor the search core consumes through the
// methods of search.Position: Hash, InCheck, GeneratePseudoLegal, IsLegal,
// Make, Unmake and MaterialPhase from the external Board Abstractor
// contract, plus SideToMove, IsSquareAttacked, the null-move pair,
// HasNonPawnMaterial, PieceAt and Hand. It is a plain mailbox board plus hand counts; there is no
// bitboard layer, since nothing outside this file needs one.
type Position struct {
	board      [NumSquares]Piece
	hand       Hand
	sideToMove Color
	hash       uint64
	kingSquare [2]Square
	ply        int
}

// NewPosition returns the standard shogi starting position.
func NewPosition() *Position {
	p := &Position{kingSquare: [2]Square{NoSquare, NoSquare}}
	p.setupStartingPosition()
	return p
}

func (p *Position) setupStartingPosition() {
	place := func(file, rank int, c Color, pt PieceType) {
		sq := NewSquare(file, rank)
		p.board[sq] = NewPiece(c, pt)
		if pt == King {
			p.kingSquare[c] = sq
		}
		p.hash ^= ZobristPiece(c, pt, sq)
	}
	backRank := [9]PieceType{Lance, Knight, Silver, Gold, King, Gold, Silver, Knight, Lance}
	for file := 0; file < 9; file++ {
		place(file, 0, Black, backRank[file])
		place(file, 8, White, backRank[8-file])
	}
	place(1, 1, Black, Bishop)
	place(7, 1, Black, Rook)
	place(7, 7, White, Bishop)
	place(1, 7, White, Rook)
	for file := 0; file < 9; file++ {
		place(file, 2, Black, Pawn)
		place(file, 6, White, Pawn)
	}
}

// NewEmptyPosition returns a Position with no pieces on the board and an
// empty hand, for callers (an SFEN loader, hand-built test positions) that
// construct a position one piece at a time rather than starting from the
// standard setup.
func NewEmptyPosition() *Position {
	return &Position{kingSquare: [2]Square{NoSquare, NoSquare}}
}

// Place sets sq to pc directly, bypassing move generation and legality.
// It updates the hash and king-square cache exactly as Make does, so a
// Position built entirely through Place is indistinguishable from one
// reached by play. Placing onto an already-occupied square is the
// caller's bug to avoid; Place does not check for it.
func (p *Position) Place(sq Square, pc Piece) {
	p.board[sq] = pc
	p.hash ^= ZobristPiece(pc.Color(), pc.Type(), sq)
	if pc.Type() == King {
		p.kingSquare[pc.Color()] = sq
	}
}

// AddToHand adds delta (positive or negative) of pt to c's hand outside of
// any move, for hand-built test positions that need pieces in hand without
// playing a drop sequence to get them there. Like Place, it keeps the hash
// consistent with the resulting state.
func (p *Position) AddToHand(c Color, pt PieceType, delta int) {
	for i := 0; i < delta; i++ {
		count := p.hand.Count(c, pt)
		p.hash ^= zobristHandDelta(c, pt, count)
		p.hash ^= zobristHandDelta(c, pt, count+1)
		p.hand.add(c, pt, 1)
	}
	for i := 0; i > delta; i-- {
		count := p.hand.Count(c, pt)
		p.hash ^= zobristHandDelta(c, pt, count)
		p.hash ^= zobristHandDelta(c, pt, count-1)
		p.hand.add(c, pt, -1)
	}
}

// Clone returns a deep (value) copy; Position holds no pointers/slices so
// a struct copy already suffices, but Clone documents the intent at call
// sites that snapshot a root position for a YBWC worker.
func (p *Position) Clone() *Position {
	cp := *p
	return &cp
}

// PieceAt returns the piece occupying sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece { return p.board[sq] }

// SideToMove returns whose turn it is.
func (p *Position) SideToMove() Color { return p.sideToMove }

// Hash returns the Zobrist hash combining board, both hands, and side to
// move — stable across Make/Unmake pairs.
func (p *Position) Hash() uint64 { return p.hash }

// Hand returns the in-hand piece counts.
func (p *Position) Hand() Hand { return p.hand }

func inPromotionZone(c Color, sq Square) bool {
	r := sq.Rank()
	if c == Black {
		return r >= 6
	}
	return r <= 2
}

func mustPromote(c Color, pt PieceType, to Square) bool {
	r := to.Rank()
	switch pt {
	case Pawn, Lance:
		if c == Black {
			return r == 8
		}
		return r == 0
	case Knight:
		if c == Black {
			return r >= 7
		}
		return r <= 1
	}
	return false
}

// MoveInfo is the opaque undo record returned by Make; Unmake requires
// exactly the MoveInfo returned by the Make call it reverses.
type MoveInfo struct {
	move         Move
	prevHash     uint64
	prevSide     Color
	movedPiece   Piece
	capturedPiece Piece
}

// Make applies m and returns the information needed to reverse it.
func (p *Position) Make(m Move) MoveInfo {
	info := MoveInfo{move: m, prevHash: p.hash, prevSide: p.sideToMove}
	us := p.sideToMove

	if m.Drop {
		pt := m.Piece
		p.hand.add(us, pt, -1)
		count := p.hand.Count(us, pt)
		p.hash ^= zobristHandDelta(us, pt, count+1)
		p.hash ^= zobristHandDelta(us, pt, count)
		placed := NewPiece(us, pt)
		p.board[m.To] = placed
		p.hash ^= ZobristPiece(us, pt, m.To)
		info.movedPiece = placed
	} else {
		moved := p.board[m.From]
		info.movedPiece = moved
		captured := p.board[m.To]
		info.capturedPiece = captured

		p.hash ^= ZobristPiece(us, moved.Type(), m.From)
		p.board[m.From] = NoPiece

		if !captured.IsEmpty() {
			capType := captured.Type().Unpromoted()
			p.hash ^= ZobristPiece(captured.Color(), captured.Type(), m.To)
			count := p.hand.Count(us, capType)
			p.hand.add(us, capType, 1)
			p.hash ^= zobristHandDelta(us, capType, count)
			p.hash ^= zobristHandDelta(us, capType, count+1)
		}

		finalType := moved.Type()
		if m.Promotion {
			finalType = finalType.Promoted()
		}
		placed := NewPiece(us, finalType)
		p.board[m.To] = placed
		p.hash ^= ZobristPiece(us, finalType, m.To)

		if finalType == King {
			p.kingSquare[us] = m.To
		}
	}

	p.sideToMove = us.Other()
	p.hash ^= ZobristSideToMove()
	p.ply++
	return info
}

// Unmake reverses the move Make(m) applied, using info for the bookkeeping
// Make recorded (captured piece, prior hash). unmake(make(m)) restores the
// exact hash and board/hand/side state.
func (p *Position) Unmake(info MoveInfo) {
	m := info.move
	us := info.prevSide

	if m.Drop {
		p.board[m.To] = NoPiece
		p.hand.add(us, m.Piece, 1)
	} else {
		p.board[m.From] = info.movedPiece
		p.board[m.To] = info.capturedPiece
		if info.movedPiece.Type() == King {
			p.kingSquare[us] = m.From
		}
		if !info.capturedPiece.IsEmpty() {
			p.hand.add(us, info.capturedPiece.Type().Unpromoted(), -1)
		}
	}

	p.sideToMove = us
	p.hash = info.prevHash
	p.ply--
}

// NullMoveUndo is the minimal state MakeNullMove needs restored, which for
// shogi is only the hash and side to move: there is no en-passant file to
// clear, and passing never touches the board or hand.
type NullMoveUndo struct {
	prevHash uint64
	prevSide Color
}

// MakeNullMove flips the side to move without playing a move, the standard
// null-move-pruning primitive. Shogi has no irreversible per-ply state
// besides whose turn it is, so unlike chess's en-passant bookkeeping this
// has nothing else to save.
func (p *Position) MakeNullMove() NullMoveUndo {
	undo := NullMoveUndo{prevHash: p.hash, prevSide: p.sideToMove}
	p.hash ^= ZobristSideToMove()
	p.sideToMove = p.sideToMove.Other()
	return undo
}

// UnmakeNullMove restores the state MakeNullMove saved.
func (p *Position) UnmakeNullMove(undo NullMoveUndo) {
	p.hash = undo.prevHash
	p.sideToMove = undo.prevSide
}

// HasNonPawnMaterial reports whether c holds any piece besides pawns and
// the king, on the board or in hand — null-move pruning refuses to fire
// without this, the same zugzwang guard chess engines apply in pawn-only
// endgames.
func (p *Position) HasNonPawnMaterial(c Color) bool {
	for sq := Square(0); sq < NumSquares; sq++ {
		pc := p.board[sq]
		if pc.IsEmpty() || pc.Color() != c {
			continue
		}
		t := pc.Type().Unpromoted()
		if t != Pawn && t != King {
			return true
		}
	}
	for pt := Pawn; pt <= Rook; pt++ {
		if pt == Pawn {
			continue
		}
		if p.hand.Count(c, pt) > 0 {
			return true
		}
	}
	return false
}

// InCheck reports whether c's king currently sits on an attacked square.
func (p *Position) InCheck(c Color) bool {
	ksq := p.kingSquare[c]
	if ksq == NoSquare {
		return false
	}
	return p.isAttacked(ksq, c.Other())
}

// MaterialPhase returns a value in [0, PhaseMax]: PhaseMax at the game's
// start (maximal remaining major material) decaying toward 0 as pieces
// are captured, for the static evaluator's mg/eg interpolation.
func (p *Position) MaterialPhase() int {
	phase := 0
	for sq := Square(0); sq < NumSquares; sq++ {
		pc := p.board[sq]
		if pc.IsEmpty() || pc.Type() == King {
			continue
		}
		phase += phaseWeight[pc.Type()]
	}
	if phase > PhaseMax {
		phase = PhaseMax
	}
	return phase
}

func (p *Position) String() string {
	s := "\n"
	for rank := 8; rank >= 0; rank-- {
		for file := 0; file < 9; file++ {
			pc := p.board[NewSquare(file, rank)]
			if pc.IsEmpty() {
				s += " . "
			} else {
				s += fmt.Sprintf("%2s ", pc.Type().String())
			}
		}
		s += "\n"
	}
	s += fmt.Sprintf("side=%s hash=%016x\n", p.sideToMove, p.hash)
	return s
}
