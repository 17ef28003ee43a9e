// Package engine implements the search: evaluation, transposition table,
// move ordering, negamax with quiescence, and time management.
package engine

import (
	"github.com/rglenister/natto/internal/board"
)

// Centipawn piece values.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
)

var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, 0, 0}

const (
	tempoBonus = 10

	bishopPairBonus     = 30
	doubledPawnPenalty  = -15
	isolatedPawnPenalty = -20
)

// Piece-square tables from White's perspective; Black squares are
// mirrored. Index 0 is a1.

var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, -20, -20, 10, 10, 5,
	5, -5, -10, 0, 0, -10, -5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, 5, 10, 25, 25, 10, 5, 5,
	10, 10, 20, 30, 30, 20, 10, 10,
	50, 50, 50, 50, 50, 50, 50, 50,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 5, 5, 0, 0, 0,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	5, 10, 10, 10, 10, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-10, 5, 5, 5, 5, 5, 0, -10,
	0, 0, 5, 5, 5, 5, 0, -5,
	-5, 0, 5, 5, 5, 5, 0, -5,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

// King tables: sheltered in the middlegame, centralised in the endgame;
// interpolated by game phase.
var kingMidgamePST = [64]int{
	20, 30, 10, 0, 0, 10, 30, 20,
	20, 20, 0, 0, 0, 0, 20, 20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
}

var kingEndgamePST = [64]int{
	-50, -30, -30, -30, -30, -30, -30, -50,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-50, -40, -30, -20, -20, -30, -40, -50,
}

var psts = [5][64]int{pawnPST, knightPST, bishopPST, rookPST, queenPST}

const maxPhase = 24

// Evaluate returns the static evaluation in centipawns from the side to
// move's perspective. It is pure, deterministic, and bounded well below
// the mate threshold.
func Evaluate(pos *board.Position) int {
	var score, kingMg, kingEg, phase int

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}

		for pt := board.Pawn; pt <= board.Queen; pt++ {
			bb := pos.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				pstSq := sq
				if c == board.Black {
					pstSq = sq.Mirror()
				}
				score += sign * (pieceValues[pt] + psts[pt][pstSq])

				switch pt {
				case board.Knight, board.Bishop:
					phase++
				case board.Rook:
					phase += 2
				case board.Queen:
					phase += 4
				}
			}
		}

		ksq := pos.KingSquare[c]
		if c == board.Black {
			ksq = ksq.Mirror()
		}
		kingMg += sign * kingMidgamePST[ksq]
		kingEg += sign * kingEndgamePST[ksq]

		if pos.Pieces[c][board.Bishop].PopCount() >= 2 {
			score += sign * bishopPairBonus
		}
		score += sign * pawnStructure(pos.Pieces[c][board.Pawn])
	}

	if phase > maxPhase {
		phase = maxPhase
	}
	score += (kingMg*phase + kingEg*(maxPhase-phase)) / maxPhase

	if pos.SideToMove == board.Black {
		score = -score
	}
	return score + tempoBonus
}

// pawnStructure scores doubled and isolated pawns for one side.
func pawnStructure(pawns board.Bitboard) int {
	var score int
	for file := 0; file < 8; file++ {
		onFile := (pawns & board.FileMask[file]).PopCount()
		if onFile == 0 {
			continue
		}
		if onFile > 1 {
			score += (onFile - 1) * doubledPawnPenalty
		}
		var neighbors board.Bitboard
		if file > 0 {
			neighbors |= board.FileMask[file-1]
		}
		if file < 7 {
			neighbors |= board.FileMask[file+1]
		}
		if pawns&neighbors == 0 {
			score += onFile * isolatedPawnPenalty
		}
	}
	return score
}
