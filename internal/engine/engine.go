package engine

import (
	"sync/atomic"
	"time"

	"github.com/rglenister/natto/internal/board"
)

// SearchInfo is one iteration's report for the UCI info line.
type SearchInfo struct {
	Depth    int
	Seldepth int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int
}

// Engine drives iterative deepening over the single-threaded searcher and
// owns the transposition table across go commands.
type Engine struct {
	searcher *Searcher
	tt       *TranspositionTable
	tm       *TimeManager
	stopFlag atomic.Bool

	gameHistory []uint64

	// OnInfo, when set, receives a report after each completed iteration.
	OnInfo func(SearchInfo)
}

// New creates an engine with a transposition table of the given megabytes.
func New(ttSizeMB int) *Engine {
	e := &Engine{
		tt: NewTranspositionTable(ttSizeMB),
		tm: NewTimeManager(),
	}
	e.searcher = NewSearcher(e.tt, &e.stopFlag)
	return e
}

// SetGameHistory records the Zobrist keys of the game so far, consulted
// for repetition detection during search.
func (e *Engine) SetGameHistory(hashes []uint64) {
	e.gameHistory = append(e.gameHistory[:0], hashes...)
}

// ResizeTT replaces the transposition table; entries are lost.
func (e *Engine) ResizeTT(sizeMB int) {
	e.tt = NewTranspositionTable(sizeMB)
	e.searcher = NewSearcher(e.tt, &e.stopFlag)
}

// ClearTT wipes the transposition table, as for ucinewgame or Clear Hash.
func (e *Engine) ClearTT() {
	e.tt.Clear()
}

// Stop signals the running search to halt; it returns within one
// node-check interval.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// Search runs iterative deepening under the given limits and returns the
// best move found, or NoMove when the side to move has no legal move.
func (e *Engine) Search(pos *board.Position, limits SearchLimits) board.Move {
	e.stopFlag.Store(false)
	e.tt.NewSearch()

	gamePly := (pos.FullMoveNumber-1)*2 + int(pos.SideToMove)
	e.tm.Init(limits, pos.SideToMove, gamePly)

	e.searcher.Prepare(pos, e.gameHistory)
	e.searcher.SetDeadline(e.tm.Deadline())
	e.searcher.SetMaxNodes(limits.Nodes)

	maxDepth := MaxPly - 1
	if limits.Depth > 0 && limits.Depth < maxDepth {
		maxDepth = limits.Depth
	}

	var bestMove board.Move
	var bestScore int
	stability := 0

	const aspirationWindow = 50

	for depth := 1; depth <= maxDepth; depth++ {
		e.searcher.allowStop = depth > 1

		var move board.Move
		var score int

		if depth >= 5 && bestMove != board.NoMove {
			// Aspiration window around the previous score, widening on a
			// fail outside either bound.
			alpha, beta := bestScore-aspirationWindow, bestScore+aspirationWindow
			for {
				move, score = e.searcher.SearchDepth(depth, alpha, beta)
				if e.stopFlag.Load() {
					break
				}
				if score <= alpha {
					alpha = -Infinity
				} else if score >= beta {
					beta = Infinity
				} else {
					break
				}
			}
		} else {
			move, score = e.searcher.SearchDepth(depth, -Infinity, Infinity)
		}

		if e.stopFlag.Load() {
			// A partial iteration counts only if it already improved the
			// root move.
			if e.searcher.RootMoveChanged() && e.searcher.RootBest() != board.NoMove {
				bestMove = e.searcher.RootBest()
			}
			break
		}

		if move == bestMove {
			stability++
		} else {
			stability = 0
		}
		if move != board.NoMove {
			bestMove = move
			bestScore = score
		}

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Seldepth: e.searcher.Seldepth(),
				Score:    bestScore,
				Nodes:    e.searcher.Nodes(),
				Time:     e.tm.Elapsed(),
				PV:       e.searcher.PV(),
				HashFull: e.tt.HashFull(),
			})
		}

		// A found mate cannot improve with more depth.
		if bestScore > MateScore-MaxPly || bestScore < -MateScore+MaxPly {
			break
		}

		if !limits.Infinite {
			e.tm.ScaleSoft(stability)
			if e.tm.PastSoft() {
				break
			}
		}
	}

	return bestMove
}

// Nodes returns the node count of the last search.
func (e *Engine) Nodes() uint64 {
	return e.searcher.Nodes()
}

// Evaluate exposes the static evaluation, for debugging.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// IsMateScore reports whether a score is in the forced-mate band.
func IsMateScore(score int) bool {
	return score > MateScore-MaxPly || score < -MateScore+MaxPly
}

// MateDistance converts a mate-band score into full moves until mate,
// negative when the side to move is being mated.
func MateDistance(score int) int {
	if score > 0 {
		return (MateScore - score + 1) / 2
	}
	return -(MateScore + score + 1) / 2
}
