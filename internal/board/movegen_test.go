package board

import "testing"

func TestStartingPositionMoves(t *testing.T) {
	pos := NewPosition()
	moves := pos.GenerateLegalMoves()
	if moves.Len() != 20 {
		t.Fatalf("starting position has %d moves, want 20", moves.Len())
	}
}

func TestNoDuplicateMoves(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/P6k/8/8/8/8/p6K/8 w - - 0 1",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("parse %q: %v", fen, err)
		}
		moves := pos.GenerateLegalMoves()
		seen := make(map[Move]bool)
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			if seen[m] {
				t.Errorf("%s: duplicate move %v", fen, m)
			}
			seen[m] = true
		}
	}
}

func TestGenerationIsStable(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	first := pos.GenerateLegalMoves()
	second := pos.GenerateLegalMoves()
	if first.Len() != second.Len() {
		t.Fatalf("lengths differ: %d vs %d", first.Len(), second.Len())
	}
	for i := 0; i < first.Len(); i++ {
		if first.Get(i) != second.Get(i) {
			t.Fatalf("order differs at %d: %v vs %v", i, first.Get(i), second.Get(i))
		}
	}
}

func TestPromotionGeneratesAllFourPieces(t *testing.T) {
	pos, err := ParseFEN("4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	moves := pos.GenerateLegalMoves()
	promos := make(map[PieceType]bool)
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.IsPromotion() {
			promos[m.Promotion()] = true
		}
	}
	for _, pt := range []PieceType{Knight, Bishop, Rook, Queen} {
		if !promos[pt] {
			t.Errorf("missing promotion to %v", pt)
		}
	}
}

func TestStalemateHasNoMoves(t *testing.T) {
	pos, err := ParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	moves := pos.GenerateLegalMoves()
	if moves.Len() != 0 {
		t.Fatalf("stalemate position has %d moves, want 0", moves.Len())
	}
	if pos.InCheck() {
		t.Error("stalemated side must not be in check")
	}
	if !pos.IsStalemate() {
		t.Error("IsStalemate = false")
	}
	if pos.IsCheckmate() {
		t.Error("stalemate misreported as checkmate")
	}
}

func TestBackRankCheckmate(t *testing.T) {
	pos, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if !pos.InCheck() {
		t.Fatal("expected check")
	}
	if !pos.IsCheckmate() {
		t.Error("expected checkmate")
	}
}

func TestDoubleCheckOnlyKingMoves(t *testing.T) {
	// White king on e1 is checked by the rook on e8 and the knight on f3.
	pos, err := ParseFEN("4r2k/8/8/8/8/5n2/8/R3K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	checkers := pos.Checkers()
	if checkers.PopCount() != 2 {
		t.Fatalf("expected double check, got %d checkers", checkers.PopCount())
	}
	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		if moves.Get(i).From() != pos.KingSquare[White] {
			t.Errorf("non-king move %v generated in double check", moves.Get(i))
		}
	}
}

func TestPinnedPieceMovesAlongRayOnly(t *testing.T) {
	// The white rook on e4 is pinned by the rook on e8; it may slide on
	// the e-file but never leave it.
	pos, err := ParseFEN("4r2k/8/8/8/4R3/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.From() == E4 && m.To().File() != 4 {
			t.Errorf("pinned rook left the pin ray: %v", m)
		}
	}
	if pos.FindMove(E4, E8, NoPieceType) == NoMove {
		t.Error("pinned rook should still capture along the ray")
	}
	if pos.FindMove(E4, A4, NoPieceType) != NoMove {
		t.Error("pinned rook must not move off the e-file")
	}
}

func TestCheckEvasionsBlockOrCapture(t *testing.T) {
	// Single check by the rook on e8; legal replies are king moves,
	// capturing the checker, or interposing on the e-file.
	pos, err := ParseFEN("4r2k/8/8/8/8/8/3Q4/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.From() == pos.KingSquare[White] {
			continue
		}
		if m.To().File() != 4 {
			t.Errorf("evasion %v neither blocks nor captures on the e-file", m)
		}
	}
	if pos.FindMove(D2, E2, NoPieceType) == NoMove {
		t.Error("queen interposition d2e2 should be legal")
	}
	if pos.FindMove(D2, D8, NoPieceType) != NoMove {
		t.Error("d2d8 does not address the check and must be illegal")
	}
}

func TestCastlingBlockedThroughCheck(t *testing.T) {
	// The rook on f8 guards f1, so white may not castle kingside but may
	// castle queenside.
	pos, err := ParseFEN("5rk1/8/8/8/8/8/8/R3K2R w KQ - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if pos.FindMove(E1, G1, NoPieceType) != NoMove {
		t.Error("kingside castling through an attacked square must be illegal")
	}
	if pos.FindMove(E1, C1, NoPieceType) == NoMove {
		t.Error("queenside castling should be legal")
	}
}

func TestGenerateCapturesSubset(t *testing.T) {
	pos, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	all := pos.GenerateLegalMoves()
	captures := pos.GenerateCaptures()
	for i := 0; i < captures.Len(); i++ {
		m := captures.Get(i)
		if !all.Contains(m) {
			t.Errorf("capture %v not in the full move list", m)
		}
		if !m.IsCapture() && !m.IsPromotion() {
			t.Errorf("%v is neither capture nor promotion", m)
		}
	}
	// Every capture in the full list must appear in the capture list.
	for i := 0; i < all.Len(); i++ {
		m := all.Get(i)
		if m.IsCapture() && !captures.Contains(m) {
			t.Errorf("capture %v missing from capture generator", m)
		}
	}
}
