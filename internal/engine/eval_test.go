package engine

import (
	"testing"

	"github.com/rglenister/natto/internal/board"
)

func TestEvalStartingPositionSymmetric(t *testing.T) {
	pos := board.NewPosition()
	score := Evaluate(pos)
	if score != tempoBonus {
		t.Errorf("starting position eval = %d, want tempo bonus %d", score, tempoBonus)
	}
}

func TestEvalIsSideToMoveRelative(t *testing.T) {
	// The same material edge must flip sign with the side to move.
	white := mustFEN(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")
	black := mustFEN(t, "4k3/8/8/8/8/8/4P3/4K3 b - - 0 1")

	ws := Evaluate(white)
	bs := Evaluate(black)
	if ws <= 0 {
		t.Errorf("white up a pawn should score positive, got %d", ws)
	}
	if bs >= 0 {
		t.Errorf("black behind a pawn should score negative, got %d", bs)
	}
	if ws+bs != 2*tempoBonus {
		t.Errorf("eval not antisymmetric: white %d, black %d", ws, bs)
	}
}

func TestEvalMaterialDominates(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/8/8/8/8/Q3K3 w - - 0 1")
	score := Evaluate(pos)
	if score < QueenValue/2 {
		t.Errorf("queen-up eval = %d, suspiciously low", score)
	}
}

func TestEvalBounded(t *testing.T) {
	// Even an absurd material pile stays out of the mate score band.
	pos := mustFEN(t, "QQQQQQrk/6pp/8/8/8/8/8/QQQQK3 w - - 0 1")
	score := Evaluate(pos)
	if score >= MateScore-MaxPly || score <= -MateScore+MaxPly {
		t.Errorf("eval %d bleeds into the mate band", score)
	}
}

func TestEvalDeterministic(t *testing.T) {
	pos := mustFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	first := Evaluate(pos)
	for i := 0; i < 10; i++ {
		if got := Evaluate(pos); got != first {
			t.Fatalf("eval changed between calls: %d then %d", first, got)
		}
	}
}

func TestEvalDoubledPawnsPenalised(t *testing.T) {
	clean := mustFEN(t, "4k3/8/8/8/8/8/3PP3/4K3 w - - 0 1")
	doubled := mustFEN(t, "4k3/8/8/8/8/3P4/3P4/4K3 w - - 0 1")
	if Evaluate(doubled) >= Evaluate(clean) {
		t.Errorf("doubled pawns (%d) should score below side-by-side pawns (%d)",
			Evaluate(doubled), Evaluate(clean))
	}
}
