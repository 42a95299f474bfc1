package search

import (
	"github.com/fgantt/shogi-search-engine/internal/order"
	"github.com/fgantt/shogi-search-engine/internal/prune"
	"github.com/fgantt/shogi-search-engine/internal/shogi"
	"github.com/fgantt/shogi-search-engine/internal/tt"
)

// Negamax is the single-node search function: probe the TT, bail into
// quiescence at the horizon, try null-move pruning, generate and order
// moves, walk the move loop applying LMR/futility, and store the result
// before returning. It is invoked recursively both by the sequential
// first-move search and by every YBWC worker exploring a sibling.
func (s *State) Negamax(depth, ply, alpha, beta int, cutNode bool) int {
	s.Nodes++
	s.clearPVLength(ply)
	s.checkTime()

	if s.stopped() {
		return s.evaluate()
	}
	isPV := beta-alpha > 1
	us := s.Pos.SideToMove()
	inCheck := s.Pos.InCheck(us)

	if ply > 0 {
		if s.isDraw() {
			return 0
		}
		alpha, beta = mateDistanceClamp(alpha, beta, ply)
		if alpha >= beta {
			return alpha
		}
	}

	if depth <= 0 && !inCheck {
		if !s.Cfg.EnableQuiescence {
			return s.evaluate()
		}
		return s.Quiescence(ply, alpha, beta)
	}
	if ply >= MaxPly {
		return s.evaluate()
	}

	hash := s.Pos.Hash()
	ttEntry := s.TT.Probe(hash)
	s.recordTTProbe(ttEntry.Found)
	var ttMove shogi.Move
	if ttEntry.Found {
		ttMove = ttEntry.Move
		if ttEntry.HasMove {
			if ply > 0 && int(ttEntry.Depth) >= depth && !isPV {
				score := adjustScoreFromTT(int(ttEntry.Score), ply)
				switch ttEntry.Bound {
				case tt.BoundExact:
					return score
				case tt.BoundLower:
					if score >= beta {
						return score
					}
				case tt.BoundUpper:
					if score <= alpha {
						return score
					}
				}
			}
		}
	}

	rawEval := s.evaluateRaw()
	staticEval := rawEval + s.correction.Get(hash)

	if nmp := prune.DecideNMP(s.pruneCfg, depth, ply, inCheck, isPV, s.Pos.HasNonPawnMaterial(us), staticEval, beta, s.pressure()); nmp.Attempt {
		score := s.withSpeculativeHistory(func() int {
			return s.searchNullMove(depth, ply, beta, nmp, cutNode)
		})
		if score >= beta {
			s.recordNMPCutoff()
			return score
		}
	}

	if prune.DecideIID(s.pruneCfg, depth, ttEntry.HasMove, s.pressure()) {
		s.withSpeculativeHistory(func() int {
			return s.Negamax(prune.IIDSearchDepth(depth), ply, alpha, beta, cutNode)
		})
		if iid := s.TT.Probe(hash); iid.Found && iid.HasMove {
			ttMove = iid.Move
			ttEntry.HasMove = true
		}
	}

	futile := prune.DecideFutility(s.pruneCfg, staticEval, alpha, depth, inCheck, ply, s.pressure())

	var list shogi.MoveList
	s.Pos.GeneratePseudoLegal(us, &list)
	hint := order.BookHint{}
	if ply == 0 {
		hint = s.rootBookHint
	}
	scores := s.Orderer.ScoreMoves(&list, ply, ttMove, hint)

	best := -MateScore - 1
	var bestMove shogi.Move
	legalCount := 0
	bound := tt.BoundUpper

	for i := 0; i < list.Len(); i++ {
		order.PickMove(&list, scores, i)
		m := list.At(i)
		if ply == 0 && s.excludedRootMoves[m] {
			continue
		}
		if !s.Pos.IsLegal(m) {
			continue
		}
		legalCount++

		isQuiet := !m.IsCapture && !m.Promotion
		if futile && isQuiet && legalCount > 1 && !bestMove.IsZero() {
			continue
		}

		escapesThreat := !m.Drop && s.Pos.IsSquareAttacked(m.From, us.Other())
		info := s.Pos.Make(m)
		s.Main.Push(s.Pos.Hash())
		givesCheck := s.Pos.InCheck(us.Other())

		childDepth := depth - 1
		var score int
		if legalCount == 1 {
			score = -s.Negamax(childDepth, ply+1, -beta, -alpha, false)
		} else {
			reduction := prune.DecideLMR(s.pruneCfg, s.lmrTable, depth, legalCount, prune.LMRContext{
				IsPV:          isPV,
				CutNode:       cutNode,
				GivesCheck:    givesCheck,
				IsCapture:     m.IsCapture,
				EscapesThreat: escapesThreat,
			})
			score = -s.Negamax(childDepth-reduction, ply+1, -alpha-1, -alpha, true)
			if reduction > 0 && prune.ShouldResearch(score, alpha, s.Cfg.LMRReSearchMargin) {
				s.recordLMRResearch()
				score = -s.Negamax(childDepth, ply+1, -alpha-1, -alpha, !cutNode)
			}
			if score > alpha && score < beta {
				score = -s.Negamax(childDepth, ply+1, -beta, -alpha, false)
			}
		}

		s.Main.Pop()
		s.Pos.Unmake(info)

		if s.stopped() {
			if best == -MateScore - 1 {
				return staticEval
			}
			return best
		}

		if score > best {
			best = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
			bound = tt.BoundExact
			s.updatePV(ply, m)
		}
		if alpha >= beta {
			bound = tt.BoundLower
			if isQuiet {
				s.Orderer.UpdateKillers(m, ply)
				s.Orderer.UpdateHistory(m, depth, true)
			}
			break
		}
	}

	if legalCount == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0 // stalemate: shogi treats it as a loss for the side unable to move in some rulesets, but the default here is a draw score, matching the spec's "never returns 0 as a search failure" carve-out for quiescence only
	}

	if bound == tt.BoundExact && !inCheck && depth >= 2 {
		s.correction.Update(hash, best, rawEval, depth)
	}
	s.TT.Store(hash, int32(adjustScoreToTT(best, ply)), uint8(clampDepth(depth)), bound, bestMove, !bestMove.IsZero(), us, tt.SourceMainSearch)
	return best
}

// searchNullMove explores the reduced-depth null-move sub-search, passing
// the turn via Pos.MakeNullMove rather than the real move machinery.
func (s *State) searchNullMove(depth, ply, beta int, nmp prune.NMPDecision, cutNode bool) int {
	undo := s.Pos.MakeNullMove()
	score := -s.Negamax(depth-1-nmp.Reduction, ply+1, -beta, -beta+1, !cutNode)
	s.Pos.UnmakeNullMove(undo)

	if nmp.RequireVerification && score >= beta {
		verify := s.Negamax(depth-nmp.Reduction, ply, beta-1, beta, cutNode)
		if verify < beta {
			return beta - 1
		}
	}
	return score
}

func (s *State) evaluateRaw() int {
	if s.Evaluator == nil {
		return 0
	}
	return s.Evaluator.Evaluate(s.Pos)
}

// evaluate returns the static evaluator's raw score nudged by whatever
// correction history has learned for this exact position hash.
func (s *State) evaluate() int {
	return s.evaluateRaw() + s.correction.Get(s.Pos.Hash())
}

// pressure is set once per iterative-deepening depth by the Deepener;
// defaulting to TimePressureNone keeps Negamax usable standalone in
// tests that never touch a Deepener.
func (s *State) pressure() prune.TimePressure {
	return s.currentPressure
}

func clampDepth(d int) int {
	if d < 0 {
		return 0
	}
	if d > 255 {
		return 255
	}
	return d
}

// mateDistanceClamp tightens [alpha, beta] against the best/worst possible
// mate score reachable from ply, the standard mate-distance pruning used
// to stop a search from reporting an implausibly fast or slow mate.
func mateDistanceClamp(alpha, beta, ply int) (int, int) {
	matingValue := MateScore - ply
	if matingValue < beta {
		beta = matingValue
	}
	matedValue := -MateScore + ply
	if matedValue > alpha {
		alpha = matedValue
	}
	return alpha, beta
}

// adjustScoreFromTT/adjustScoreToTT translate mate scores between the
// TT's ply-independent storage and the caller's ply-relative view, the
// same mate-distance bookkeeping the teacher's transposition table does.
func adjustScoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -(MateScore - MaxPly) {
		return score + ply
	}
	return score
}

func adjustScoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -(MateScore - MaxPly) {
		return score - ply
	}
	return score
}
