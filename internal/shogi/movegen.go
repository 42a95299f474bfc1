package shogi

// direction offsets are expressed for Black (forward = increasing rank);
// White's offsets are the same table negated, since the board is related
// by a 180-degree rotation.
type dir struct{ df, dr int }

var (
	goldDirs   = []dir{{-1, 1}, {0, 1}, {1, 1}, {-1, 0}, {1, 0}, {0, -1}}
	silverDirs = []dir{{-1, 1}, {0, 1}, {1, 1}, {-1, -1}, {1, -1}}
	knightDirs = []dir{{-1, 2}, {1, 2}}
	pawnDirs   = []dir{{0, 1}}
	kingDirs   = []dir{{-1, 1}, {0, 1}, {1, 1}, {-1, 0}, {1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	bishopRays = []dir{{-1, 1}, {1, 1}, {-1, -1}, {1, -1}}
	rookRays   = []dir{{0, 1}, {0, -1}, {-1, 0}, {1, 0}}
)

func sign(c Color) int {
	if c == Black {
		return 1
	}
	return -1
}

func inBounds(file, rank int) bool { return file >= 0 && file < 9 && rank >= 0 && rank < 9 }

// steppingTargets returns the destination squares reachable from sq by a
// single step along dirs, oriented for color c.
func steppingTargets(sq Square, c Color, dirs []dir) []Square {
	s := sign(c)
	out := make([]Square, 0, len(dirs))
	f, r := sq.File(), sq.Rank()
	for _, d := range dirs {
		nf, nr := f+d.df*s, r+d.dr*s
		if inBounds(nf, nr) {
			out = append(out, NewSquare(nf, nr))
		}
	}
	return out
}

// attacksFrom returns every square pt, owned by c, standing on sq attacks
// (stepping pieces) or can slide to (sliding pieces), ignoring board
// occupancy only for the stepping case; sliding rays stop at the board's
// first occupant on board.
func (p *Position) attacksFrom(sq Square, pc Piece) []Square {
	c := pc.Color()
	switch pc.Type() {
	case Pawn:
		return steppingTargets(sq, c, pawnDirs)
	case Knight:
		return steppingTargets(sq, c, knightDirs)
	case Silver:
		return steppingTargets(sq, c, silverDirs)
	case Gold, PromotedPawn, PromotedLance, PromotedKnight, PromotedSilver:
		return steppingTargets(sq, c, goldDirs)
	case King:
		return steppingTargets(sq, c, kingDirs)
	case Lance:
		return p.slideTargets(sq, c, []dir{{0, 1}})
	case Bishop:
		return p.slideTargets(sq, c, bishopRays)
	case Rook:
		return p.slideTargets(sq, c, rookRays)
	case Horse:
		out := p.slideTargets(sq, c, bishopRays)
		return append(out, steppingTargets(sq, c, []dir{{0, 1}, {0, -1}, {-1, 0}, {1, 0}})...)
	case Dragon:
		out := p.slideTargets(sq, c, rookRays)
		return append(out, steppingTargets(sq, c, []dir{{-1, 1}, {1, 1}, {-1, -1}, {1, -1}})...)
	}
	return nil
}

func (p *Position) slideTargets(sq Square, c Color, rays []dir) []Square {
	s := sign(c)
	out := make([]Square, 0, 8)
	f0, r0 := sq.File(), sq.Rank()
	for _, d := range rays {
		f, r := f0+d.df*s, r0+d.dr*s
		for inBounds(f, r) {
			to := NewSquare(f, r)
			out = append(out, to)
			if !p.board[to].IsEmpty() {
				break
			}
			f += d.df * s
			r += d.dr * s
		}
	}
	return out
}

// IsSquareAttacked reports whether sq is attacked by any piece owned by
// by. Exported for the pruning manager's threat-based escape-move
// heuristic, which needs to ask "does leaving this square resolve a
// threat?" without reaching into the position's internals.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	return p.isAttacked(sq, by)
}

// isAttacked reports whether sq is attacked by any piece owned by by.
func (p *Position) isAttacked(sq Square, by Color) bool {
	for from := Square(0); from < NumSquares; from++ {
		pc := p.board[from]
		if pc.IsEmpty() || pc.Color() != by {
			continue
		}
		for _, to := range p.attacksFrom(from, pc) {
			if to == sq {
				return true
			}
		}
	}
	return false
}

// hasPawnOnFile reports whether c already has an unpromoted pawn on file.
func (p *Position) hasPawnOnFile(c Color, file int) bool {
	for rank := 0; rank < 9; rank++ {
		pc := p.board[NewSquare(file, rank)]
		if pc.Color() == c && pc.Type() == Pawn {
			return true
		}
	}
	return false
}

// GeneratePseudoLegal appends every pseudo-legal move for side c into list.
// Pseudo-legal here excludes nifu (two unpromoted pawns on one file
// for the same side) and uchifuzume (a pawn drop that immediately
// checkmates) since both are drop-specific legality rules the spec's
// is_legal/generate_pseudo_legal split does not otherwise distinguish,
// and it never emits a move or drop that leaves a pawn, lance or knight
// with no further move (such a board move appears only as a promotion);
// every other check-evasion constraint is enforced by IsLegal.
func (p *Position) GeneratePseudoLegal(c Color, list *MoveList) {
	for from := Square(0); from < NumSquares; from++ {
		pc := p.board[from]
		if pc.IsEmpty() || pc.Color() != c {
			continue
		}
		pt := pc.Type()
		for _, to := range p.attacksFrom(from, pc) {
			dest := p.board[to]
			if !dest.IsEmpty() && dest.Color() == c {
				continue
			}
			canPromote := pt.CanPromote() && !pt.IsPromoted() && (inPromotionZone(c, from) || inPromotionZone(c, to))
			forced := mustPromote(c, pt, to)
			isCapture := !dest.IsEmpty()
			if canPromote && !forced {
				list.Append(Move{From: from, To: to, Piece: pt, Promotion: true, IsCapture: isCapture, CapturedType: dest.Type()})
			}
			if !forced {
				list.Append(Move{From: from, To: to, Piece: pt, IsCapture: isCapture, CapturedType: dest.Type()})
			} else {
				list.Append(Move{From: from, To: to, Piece: pt, Promotion: true, IsCapture: isCapture, CapturedType: dest.Type()})
			}
		}
	}
	p.generateDrops(c, list)
}

func (p *Position) generateDrops(c Color, list *MoveList) {
	for _, pt := range HandPieceTypes {
		if p.hand.Count(c, pt) == 0 {
			continue
		}
		for to := Square(0); to < NumSquares; to++ {
			if !p.board[to].IsEmpty() {
				continue
			}
			if mustPromote(c, pt, to) {
				continue // would be stillborn: a pawn/lance/knight dropped with no legal move
			}
			if pt == Pawn {
				if p.hasPawnOnFile(c, to.File()) {
					continue
				}
				if p.dropPawnIsCheckmate(c, to) {
					continue
				}
			}
			list.Append(Move{From: DropSentinel, To: to, Piece: pt, Drop: true})
		}
	}
}

// dropPawnIsCheckmate implements the uchifuzume rule: a pawn drop that
// gives check and leaves the opponent with zero legal replies is illegal.
func (p *Position) dropPawnIsCheckmate(c Color, to Square) bool {
	them := c.Other()
	if p.kingSquare[them] == NoSquare {
		return false
	}
	trial := Move{From: DropSentinel, To: to, Piece: Pawn, Drop: true}
	info := p.Make(trial)
	defer p.Unmake(info)
	if !p.InCheck(them) {
		return false
	}
	var list MoveList
	p.GeneratePseudoLegal(them, &list)
	for i := 0; i < list.Len(); i++ {
		if p.IsLegal(list.At(i)) {
			return false
		}
	}
	return true
}

// IsLegal reports whether m, already known pseudo-legal, leaves the mover's
// own king safe.
func (p *Position) IsLegal(m Move) bool {
	mover := p.sideToMove
	info := p.Make(m)
	legal := !p.InCheck(mover)
	p.Unmake(info)
	return legal
}

// GenerateLegal appends every fully legal move for c into list.
func (p *Position) GenerateLegal(c Color, list *MoveList) {
	var pseudo MoveList
	p.GeneratePseudoLegal(c, &pseudo)
	for i := 0; i < pseudo.Len(); i++ {
		m := pseudo.At(i)
		if p.IsLegal(m) {
			list.Append(m)
		}
	}
}
