package search

import (
	"github.com/fgantt/shogi-search-engine/internal/order"
	"github.com/fgantt/shogi-search-engine/internal/shogi"
	"github.com/fgantt/shogi-search-engine/internal/tt"
)

// quiescenceMaxPly caps quiescence recursion independently of MaxPly so a
// pathological capture sequence near the search-stack limit cannot walk
// the array out of bounds.
const quiescenceMaxPly = MaxPly - 2

// Quiescence extends the search along captures and promotions only, past
// the horizon where Negamax would otherwise stop, so the static evaluator
// is never asked to score a position mid-exchange. Like Negamax, a node
// that discovers the stop flag mid-loop returns the best score found so
// far (standPat itself if no capture has been searched yet, or the
// below-mate sentinel when in check) rather than a placeholder, so an
// aborted sub-search still yields a usable bound.
func (s *State) Quiescence(ply, alpha, beta int) int {
	s.Nodes++
	s.checkTime()
	if ply >= quiescenceMaxPly {
		return s.evaluate()
	}

	us := s.Pos.SideToMove()
	inCheck := s.Pos.InCheck(us)

	standPat := s.evaluate()
	if !inCheck {
		if standPat >= beta {
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
	}

	hash := s.Pos.Hash()
	var ttMove shogi.Move
	if entry := s.TT.Probe(hash); entry.Found && entry.HasMove {
		ttMove = entry.Move
	}

	var list shogi.MoveList
	s.Pos.GeneratePseudoLegal(us, &list)
	scores := s.Orderer.ScoreMoves(&list, ply, ttMove, order.BookHint{})

	best := standPat
	if inCheck {
		best = -MateScore - 1
	}
	legalCount := 0

	for i := 0; i < list.Len(); i++ {
		order.PickMove(&list, scores, i)
		m := list.At(i)

		if !inCheck && !m.IsCapture && !m.Promotion {
			continue
		}
		if !s.Pos.IsLegal(m) {
			continue
		}
		legalCount++

		if !inCheck && m.IsCapture && !seeIsPlausible(m) && s.Pos.IsSquareAttacked(m.To, us.Other()) {
			continue
		}

		info := s.Pos.Make(m)
		score := -s.Quiescence(ply+1, -beta, -alpha)
		s.Pos.Unmake(info)

		if s.stopped() {
			return best
		}

		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}

	if inCheck && legalCount == 0 {
		return -MateScore + ply
	}

	bound := tt.BoundUpper
	if best >= beta {
		bound = tt.BoundLower
	}
	s.TT.Store(hash, int32(best), 0, bound, shogi.NoMove, false, us, tt.SourceQuiescence)
	return best
}

// seeIsPlausible is a cheap capture filter, not a real static-exchange
// evaluator: it reports false when the captured piece is worth more than
// 400 less than the capturer on order's material scale. Quiescence skips
// such a capture only when the opponent also attacks the destination
// square, i.e. can recapture at once, which is enough to keep quiescence
// from drowning in hopeless recaptures without needing a full SEE
// implementation the external contract does not ask this package to own.
func seeIsPlausible(m shogi.Move) bool {
	if !m.IsCapture {
		return true
	}
	return order.PieceValue(m.CapturedType) >= order.PieceValue(m.Piece)-400
}
