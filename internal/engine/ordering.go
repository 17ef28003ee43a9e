package engine

import (
	"github.com/rglenister/natto/internal/board"
)

// Ordering priorities. Captures land between the TT move and killers via
// their MVV-LVA score.
const (
	ttMoveScore   = 1000000
	captureBase   = 100000
	promotionBase = 90000
	killerScore1  = 80000
	killerScore2  = 70000
)

// mvvLva scores captures by most valuable victim, least valuable attacker.
var mvvLva [6][6]int

func init() {
	for victim := board.Pawn; victim < board.King; victim++ {
		for attacker := board.Pawn; attacker <= board.King; attacker++ {
			mvvLva[victim][attacker] = pieceValues[victim]*10 - pieceValues[attacker]/10
		}
	}
}

// MoveOrderer ranks moves for the search: TT move first, then captures by
// MVV-LVA, then killers, then history, then the rest.
type MoveOrderer struct {
	killers [MaxPly][2]board.Move
	history [64][64]int
}

// NewMoveOrderer returns an empty orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and halves the history scores between searches.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
	for i := range mo.history {
		for j := range mo.history[i] {
			mo.history[i][j] /= 2
		}
	}
}

// ScoreMoves assigns an ordering score to every move in the list.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove board.Move) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, ttMove)
	}
	return scores
}

func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move) int {
	if m == ttMove {
		return ttMoveScore
	}

	if m.IsCapture() {
		attacker := pos.PieceAt(m.From()).Type()
		victim := board.Pawn
		if !m.IsEnPassant() {
			victim = pos.PieceAt(m.To()).Type()
		}
		return captureBase + mvvLva[victim][attacker]
	}

	if m.IsPromotion() {
		return promotionBase + pieceValues[m.Promotion()]
	}

	if ply < MaxPly {
		if m == mo.killers[ply][0] {
			return killerScore1
		}
		if m == mo.killers[ply][1] {
			return killerScore2
		}
	}

	return mo.history[m.From()][m.To()]
}

// PickMove selects the best remaining move into position index, so the
// list is only sorted as far as the search actually walks it.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers records a quiet move that caused a beta cutoff.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory rewards or punishes a quiet move by depth squared.
func (mo *MoveOrderer) UpdateHistory(m board.Move, depth int, good bool) {
	from, to := m.From(), m.To()
	bonus := depth * depth
	if good {
		mo.history[from][to] += bonus
		if mo.history[from][to] > killerScore2 {
			for i := range mo.history {
				for j := range mo.history[i] {
					mo.history[i][j] /= 2
				}
			}
		}
	} else {
		mo.history[from][to] -= bonus
		if mo.history[from][to] < -killerScore2 {
			mo.history[from][to] = -killerScore2
		}
	}
}
