package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rglenister/natto/internal/board"
)

func mustFEN(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("parse %q: %v", fen, err)
	}
	return pos
}

func TestSearchReturnsLegalMove(t *testing.T) {
	eng := New(16)
	pos := board.NewPosition()

	move := eng.Search(pos, SearchLimits{Depth: 1})
	if move == board.NoMove {
		t.Fatal("no move returned for the starting position")
	}
	if !pos.GenerateLegalMoves().Contains(move) {
		t.Fatalf("search returned illegal move %v", move)
	}
}

func TestMateInOne(t *testing.T) {
	eng := New(16)
	pos := mustFEN(t, "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")

	var lastScore int
	eng.OnInfo = func(info SearchInfo) { lastScore = info.Score }

	move := eng.Search(pos, SearchLimits{Depth: 2})
	if move.String() != "a1a8" {
		t.Errorf("best move = %v, want a1a8", move)
	}
	if !IsMateScore(lastScore) || MateDistance(lastScore) != 1 {
		t.Errorf("score = %d, want mate in 1", lastScore)
	}
}

func TestMateInThree(t *testing.T) {
	// Queen and doubled rooks against a defended back rank: 1.Qe8+ Rxe8
	// 2.Rxe8+ Rxe8 3.Rxe8#, every defense forced.
	eng := New(16)
	pos := mustFEN(t, "rr4k1/5ppp/8/8/4Q3/8/4R3/4R1K1 w - - 0 1")

	var lastScore int
	eng.OnInfo = func(info SearchInfo) { lastScore = info.Score }

	move := eng.Search(pos, SearchLimits{Depth: 6})
	if !IsMateScore(lastScore) {
		t.Fatalf("score = %d, want a mate score", lastScore)
	}
	if got := MateDistance(lastScore); got != 3 {
		t.Errorf("mate distance = %d, want 3", got)
	}
	if move.String() != "e4e8" {
		t.Errorf("best move = %v, want e4e8", move)
	}
}

func TestMatedPositionReturnsNoMove(t *testing.T) {
	// Black is already mated; the search must report no move.
	eng := New(16)
	pos := mustFEN(t, "R6k/6pp/8/8/8/8/8/K7 b - - 0 1")

	move := eng.Search(pos, SearchLimits{Depth: 3})
	if move != board.NoMove {
		t.Errorf("expected no move in a mated position, got %v", move)
	}
}

func TestStalemateReturnsNoMove(t *testing.T) {
	eng := New(16)
	pos := mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")

	move := eng.Search(pos, SearchLimits{Depth: 3})
	if move != board.NoMove {
		t.Errorf("expected no move in stalemate, got %v", move)
	}
}

func TestFiftyMoveRuleDrawsLostPosition(t *testing.T) {
	// Black is a rook down, but any reversible move reaches a halfmove
	// clock of 100: everything is a draw, so the score must be 0.
	eng := New(16)
	pos := mustFEN(t, "7k/8/8/8/8/8/R7/K7 b - - 99 80")

	var lastScore int
	eng.OnInfo = func(info SearchInfo) { lastScore = info.Score }

	move := eng.Search(pos, SearchLimits{Depth: 4})
	if move == board.NoMove {
		t.Fatal("expected a move")
	}
	if lastScore != 0 {
		t.Errorf("score = %d, want 0 (draw by 50-move rule)", lastScore)
	}
}

func TestTwofoldRepetitionScoresDrawInSearch(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/8/8/8/8/4K2R w K - 4 10")

	var stop atomic.Bool
	s := NewSearcher(NewTranspositionTable(1), &stop)
	s.Prepare(pos, []uint64{0xDEAD, pos.Hash, 0xBEEF, pos.Hash})
	if !s.isDrawnByRepetition() {
		t.Error("position repeated in history should read as a draw")
	}

	s.Prepare(pos, []uint64{0xDEAD, 0xBEEF})
	if s.isDrawnByRepetition() {
		t.Error("unrepeated position misread as a draw")
	}
}

func TestSearchAvoidsRepetitionWhenWinning(t *testing.T) {
	// White is a queen up; with the current position already once in the
	// game history, shuffling back into it would forfeit the win, so the
	// chosen line must not score 0.
	eng := New(16)
	pos := mustFEN(t, "4k3/8/8/8/8/8/3Q4/4K3 w - - 4 20")

	var lastScore int
	eng.OnInfo = func(info SearchInfo) { lastScore = info.Score }

	eng.SetGameHistory([]uint64{pos.Hash})
	move := eng.Search(pos, SearchLimits{Depth: 4})
	if move == board.NoMove {
		t.Fatal("expected a move")
	}
	if lastScore == 0 {
		t.Error("winning side settled for a repetition draw")
	}
	if lastScore < QueenValue/2 {
		t.Errorf("score = %d, want a clearly winning score", lastScore)
	}
}

func TestStopReturnsPromptly(t *testing.T) {
	eng := New(16)
	pos := board.NewPosition()

	done := make(chan board.Move, 1)
	go func() {
		done <- eng.Search(pos, SearchLimits{Infinite: true})
	}()

	// Let the search get going, then stop it.
	time.Sleep(100 * time.Millisecond)
	eng.Stop()

	select {
	case move := <-done:
		if move == board.NoMove {
			t.Error("stopped search returned no move")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("search did not stop")
	}
}

func TestNodeLimitRespected(t *testing.T) {
	eng := New(16)
	pos := board.NewPosition()

	eng.Search(pos, SearchLimits{Nodes: 20000, Depth: 64})
	if eng.Nodes() > 20000+2*stopCheckInterval {
		t.Errorf("searched %d nodes, budget was 20000", eng.Nodes())
	}
}
