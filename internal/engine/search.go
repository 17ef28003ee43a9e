package engine

import (
	"sync/atomic"
	"time"

	"github.com/rglenister/natto/internal/board"
)

// Score constants. Mate-in-N-plies scores MateScore-N, so shallower mates
// always outrank deeper ones; static evaluation stays far below the
// mate band.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128

	// stopCheckInterval is the node interval between clock and node-budget
	// polls; the stop flag itself is read at every node.
	stopCheckInterval = 4096
)

// PVTable holds the principal variation per ply, triangular layout.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher runs the negamax alpha-beta search over a single position.
// It owns the position exclusively for the duration of a search; the only
// shared state is the atomic stop flag.
type Searcher struct {
	pos     *board.Position
	tt      *TranspositionTable
	orderer *MoveOrderer

	stopFlag *atomic.Bool
	deadline time.Time
	maxNodes uint64
	// allowStop is false during the first iteration so that a stop always
	// leaves at least a depth-1 best move to report.
	allowStop bool

	nodes    uint64
	seldepth int
	pv       PVTable

	undoStack [MaxPly]board.UndoRecord

	// history holds the Zobrist keys of the game so far plus the current
	// search path, for repetition detection. Inside the tree a single
	// repetition already scores as a draw.
	history []uint64
	// rootMoveChanged reports whether the current iteration improved the
	// root best move; interrupted iterations are kept only in that case.
	rootMoveChanged bool
}

// NewSearcher builds a searcher over the shared transposition table.
func NewSearcher(tt *TranspositionTable, stopFlag *atomic.Bool) *Searcher {
	return &Searcher{
		tt:       tt,
		orderer:  NewMoveOrderer(),
		stopFlag: stopFlag,
	}
}

// Prepare binds the searcher to a position copy and the game history
// leading to it.
func (s *Searcher) Prepare(pos *board.Position, gameHistory []uint64) {
	s.pos = pos.Copy()
	s.nodes = 0
	s.seldepth = 0
	s.orderer.Clear()
	s.history = s.history[:0]
	s.history = append(s.history, gameHistory...)
	if len(gameHistory) == 0 || gameHistory[len(gameHistory)-1] != s.pos.Hash {
		s.history = append(s.history, s.pos.Hash)
	}
}

// SetDeadline sets the hard time budget; zero means none.
func (s *Searcher) SetDeadline(deadline time.Time) {
	s.deadline = deadline
}

// SetMaxNodes caps the node count; zero means no cap.
func (s *Searcher) SetMaxNodes(n uint64) {
	s.maxNodes = n
}

// Nodes returns the nodes searched so far.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Seldepth returns the maximum ply reached including quiescence.
func (s *Searcher) Seldepth() int {
	return s.seldepth
}

// PV returns the principal variation of the last completed iteration.
func (s *Searcher) PV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	copy(pv, s.pv.moves[0][:s.pv.length[0]])
	return pv
}

// RootBest returns the best root move known so far.
func (s *Searcher) RootBest() board.Move {
	if s.pv.length[0] > 0 {
		return s.pv.moves[0][0]
	}
	return board.NoMove
}

// RootMoveChanged reports whether the last iteration updated the root move
// before being interrupted.
func (s *Searcher) RootMoveChanged() bool {
	return s.rootMoveChanged
}

// SearchDepth runs one iteration at the given depth with the given
// aspiration window and returns the best move and score.
func (s *Searcher) SearchDepth(depth, alpha, beta int) (board.Move, int) {
	s.rootMoveChanged = false
	score := s.negamax(depth, 0, alpha, beta)
	return s.RootBest(), score
}

// stopped polls the shared flag, the clock and the node budget; the clock
// is only consulted every stopCheckInterval nodes.
func (s *Searcher) stopped() bool {
	if !s.allowStop {
		return false
	}
	if s.stopFlag.Load() {
		return true
	}
	if s.nodes&(stopCheckInterval-1) == 0 {
		if !s.deadline.IsZero() && time.Now().After(s.deadline) {
			s.stopFlag.Store(true)
			return true
		}
		if s.maxNodes > 0 && s.nodes >= s.maxNodes {
			s.stopFlag.Store(true)
			return true
		}
	}
	return false
}

// aborted reports whether partial results must be discarded. The first
// iteration always runs to completion.
func (s *Searcher) aborted() bool {
	return s.allowStop && s.stopFlag.Load()
}

// isDrawnByRepetition reports whether the current position's key already
// occurs in the game history or search path. A single prior occurrence is
// enough inside the tree: chasing exact threefolds wastes search effort.
func (s *Searcher) isDrawnByRepetition() bool {
	key := s.pos.Hash
	// Only positions since the last irreversible move can repeat.
	limit := len(s.history) - 1 - s.pos.HalfMoveClock
	if limit < 0 {
		limit = 0
	}
	for i := len(s.history) - 2; i >= limit; i-- {
		if s.history[i] == key {
			return true
		}
	}
	return false
}

// isDraw combines the in-tree draw rules: 50-move, repetition,
// insufficient material.
func (s *Searcher) isDraw() bool {
	if s.pos.HalfMoveClock >= 100 {
		return true
	}
	if s.pos.IsInsufficientMaterial() {
		return true
	}
	return s.isDrawnByRepetition()
}

func (s *Searcher) negamax(depth, ply, alpha, beta int) int {
	if ply >= MaxPly-1 {
		s.pv.length[ply] = ply
		return Evaluate(s.pos)
	}
	if s.stopped() {
		return 0
	}
	s.nodes++
	if ply > s.seldepth {
		s.seldepth = ply
	}
	s.pv.length[ply] = ply

	if ply > 0 && s.isDraw() {
		return 0
	}

	inCheck := s.pos.InCheck()

	// TT probe; cutoffs are not taken at the root so that a best move is
	// always produced there.
	var ttMove board.Move
	entry, found := s.tt.Probe(s.pos.Hash)
	if found {
		ttMove = entry.BestMove
		if ply > 0 && int(entry.Depth) >= depth {
			score := scoreFromTT(int(entry.Score), ply)
			switch entry.Bound {
			case BoundExact:
				return score
			case BoundLower:
				if score > alpha {
					alpha = score
				}
			case BoundUpper:
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				return score
			}
		}
	}

	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	extension := 0
	if inCheck {
		extension = 1
	}

	// Null-move pruning: skip a turn and search reduced; a fail-high means
	// the position is good enough to cut. Avoided in check and in pawn-only
	// endings where zugzwang breaks the assumption.
	if !inCheck && depth >= 3 && ply > 0 && beta < MateScore-MaxPly && s.pos.HasNonPawnMaterial() {
		r := 2 + depth/4
		if r > depth-1 {
			r = depth - 1
		}
		nullUndo := s.pos.MakeNullMove()
		nullScore := -s.negamax(depth-1-r, ply+1, -beta, -beta+1)
		s.pos.UnmakeNullMove(nullUndo)
		if s.aborted() {
			return 0
		}
		if nullScore >= beta {
			return beta
		}
	}

	moves := s.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	scores := s.orderer.ScoreMoves(s.pos, moves, ply, ttMove)

	bestScore := -Infinity
	bestMove := board.NoMove
	bound := BoundUpper

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)
		isQuiet := !move.IsCapture() && !move.IsPromotion()

		s.undoStack[ply] = s.pos.MakeMove(move)
		s.history = append(s.history, s.pos.Hash)

		newDepth := depth - 1 + extension
		var score int
		if i == 0 {
			score = -s.negamax(newDepth, ply+1, -beta, -alpha)
		} else {
			// Principal variation search: null window first, re-search on
			// an unexpected improvement.
			score = -s.negamax(newDepth, ply+1, -alpha-1, -alpha)
			if score > alpha && score < beta {
				score = -s.negamax(newDepth, ply+1, -beta, -alpha)
			}
		}

		s.history = s.history[:len(s.history)-1]
		s.pos.UnmakeMove(move, s.undoStack[ply])

		if s.aborted() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score
				bound = BoundExact
				if ply == 0 {
					s.rootMoveChanged = true
				}

				s.pv.moves[ply][ply] = move
				for j := ply + 1; j < s.pv.length[ply+1]; j++ {
					s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
				}
				s.pv.length[ply] = s.pv.length[ply+1]
			}
		}

		if score >= beta {
			if isQuiet {
				s.orderer.UpdateKillers(move, ply)
				s.orderer.UpdateHistory(move, depth, true)
			}
			s.tt.Store(s.pos.Hash, depth, scoreToTT(score, ply), BoundLower, bestMove)
			return score
		}
	}

	s.tt.Store(s.pos.Hash, depth, scoreToTT(bestScore, ply), bound, bestMove)
	return bestScore
}

// quiescence resolves captures until the position is quiet, bounding the
// horizon effect. It terminates because every recursion consumes a
// capture or promotion from a finite supply.
func (s *Searcher) quiescence(ply, alpha, beta int) int {
	if ply >= MaxPly-1 {
		return Evaluate(s.pos)
	}
	if s.stopped() {
		return 0
	}
	s.nodes++
	if ply > s.seldepth {
		s.seldepth = ply
	}

	standPat := Evaluate(s.pos)
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	moves := s.pos.GenerateCaptures()
	scores := s.orderer.ScoreMoves(s.pos, moves, ply, board.NoMove)

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		undo := s.pos.MakeMove(move)
		score := -s.quiescence(ply+1, -beta, -alpha)
		s.pos.UnmakeMove(move, undo)

		if s.aborted() {
			return 0
		}
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}
