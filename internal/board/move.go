package board

import "fmt"

// Move encodes a chess move in 16 bits:
//
//	bits 0-5   from square
//	bits 6-11  to square
//	bits 12-15 flag nibble
//
// The flag nibble distinguishes every special move so make/unmake never has
// to re-derive it from board state. Promotion flags carry the promoted piece
// in their low two bits (knight=0 .. queen=3); bit 3 marks promotions and,
// combined with bit 2, promotion captures.
type Move uint16

// MoveFlag is the 4-bit move kind.
type MoveFlag uint16

const (
	Quiet       MoveFlag = 0
	DoublePush  MoveFlag = 1
	CastleKing  MoveFlag = 2
	CastleQueen MoveFlag = 3
	Capture     MoveFlag = 4
	EnPassant   MoveFlag = 5

	PromoKnight        MoveFlag = 8
	PromoBishop        MoveFlag = 9
	PromoRook          MoveFlag = 10
	PromoQueen         MoveFlag = 11
	PromoCaptureKnight MoveFlag = 12
	PromoCaptureBishop MoveFlag = 13
	PromoCaptureRook   MoveFlag = 14
	PromoCaptureQueen  MoveFlag = 15
)

// NoMove is the null move value; it can never encode a legal move.
const NoMove Move = 0

// NewMove builds a move with the given flag.
func NewMove(from, to Square, flag MoveFlag) Move {
	return Move(from) | Move(to)<<6 | Move(flag)<<12
}

// NewPromotion builds a promotion move; capture selects the capturing form.
func NewPromotion(from, to Square, promo PieceType, capture bool) Move {
	flag := PromoKnight + MoveFlag(promo-Knight)
	if capture {
		flag += 4
	}
	return NewMove(from, to, flag)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Flag returns the move kind.
func (m Move) Flag() MoveFlag {
	return MoveFlag(m >> 12)
}

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m&0x8000 != 0
}

// IsCapture reports whether the move removes an enemy piece, counting
// en passant and promotion captures.
func (m Move) IsCapture() bool {
	f := m.Flag()
	return f == Capture || f == EnPassant || f >= PromoCaptureKnight
}

// IsCastle reports whether the move is a castling move.
func (m Move) IsCastle() bool {
	f := m.Flag()
	return f == CastleKing || f == CastleQueen
}

// IsEnPassant reports whether the move is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == EnPassant
}

// Promotion returns the promoted piece type; only meaningful when
// IsPromotion is true.
func (m Move) Promotion() PieceType {
	return Knight + PieceType((m>>12)&3)
}

// String formats the move in UCI long algebraic notation, e.g. "e2e4",
// "e7e8q", "e1g1" for castling.
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string("nbrq"[m.Promotion()-Knight])
	}
	return s
}

// ParseUCIMove splits a UCI move string into from, to and promotion piece.
// The promotion is NoPieceType when absent. It performs no legality check.
func ParseUCIMove(s string) (from, to Square, promo PieceType, err error) {
	if len(s) != 4 && len(s) != 5 {
		return NoSquare, NoSquare, NoPieceType, fmt.Errorf("invalid move %q", s)
	}
	from, err = ParseSquare(s[0:2])
	if err != nil {
		return NoSquare, NoSquare, NoPieceType, err
	}
	to, err = ParseSquare(s[2:4])
	if err != nil {
		return NoSquare, NoSquare, NoPieceType, err
	}
	promo = NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoSquare, NoSquare, NoPieceType, fmt.Errorf("invalid promotion %q", s)
		}
	}
	return from, to, promo, nil
}

// MoveList is a fixed-capacity move buffer; generation writes into it
// without allocating.
type MoveList struct {
	moves [256]Move
	count int
}

// Add appends a move.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Swap exchanges two moves.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear empties the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice backed by the list.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
