package board

// GenerateLegalMoves returns every legal move for the side to move.
// Generation is pseudo-legal followed by a pin/evasion-mask legality
// filter; order is deterministic for identical positions.
func (p *Position) GenerateLegalMoves() *MoveList {
	var pseudo MoveList
	p.generatePseudoLegal(&pseudo)
	return p.filterLegal(&pseudo)
}

// GenerateCaptures returns the legal captures, en passant captures and
// promotions used by quiescence search. All four promotion pieces are
// emitted, push promotions included.
func (p *Position) GenerateCaptures() *MoveList {
	var pseudo MoveList
	p.generatePseudoCaptures(&pseudo)
	return p.filterLegal(&pseudo)
}

// HasLegalMoves reports whether the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	var pseudo MoveList
	p.generatePseudoLegal(&pseudo)
	checkers := p.Checkers()
	pinned := p.pinnedPieces()
	for i := 0; i < pseudo.Len(); i++ {
		if p.isLegal(pseudo.Get(i), pinned, checkers) {
			return true
		}
	}
	return false
}

// IsCheckmate reports whether the side to move is mated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports whether the side to move has no moves but is not
// in check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

func (p *Position) generatePseudoLegal(ml *MoveList) {
	us := p.SideToMove
	occupied := p.AllOccupied
	enemies := p.Occupied[us.Other()]

	p.generatePawnMoves(ml, us, enemies, occupied)
	p.generatePieceMoves(ml, us, Knight, ^p.Occupied[us], occupied)
	p.generatePieceMoves(ml, us, Bishop, ^p.Occupied[us], occupied)
	p.generatePieceMoves(ml, us, Rook, ^p.Occupied[us], occupied)
	p.generatePieceMoves(ml, us, Queen, ^p.Occupied[us], occupied)
	p.generateKingMoves(ml, us, ^p.Occupied[us])
	p.generateCastlingMoves(ml, us)
}

func (p *Position) generatePseudoCaptures(ml *MoveList) {
	us := p.SideToMove
	occupied := p.AllOccupied
	enemies := p.Occupied[us.Other()]

	p.generatePawnCaptures(ml, us, enemies, occupied)
	p.generatePieceMoves(ml, us, Knight, enemies, occupied)
	p.generatePieceMoves(ml, us, Bishop, enemies, occupied)
	p.generatePieceMoves(ml, us, Rook, enemies, occupied)
	p.generatePieceMoves(ml, us, Queen, enemies, occupied)
	p.generateKingMoves(ml, us, enemies)
}

// generatePieceMoves emits knight/slider moves to squares inside targets,
// tagging captures by occupancy.
func (p *Position) generatePieceMoves(ml *MoveList, us Color, pt PieceType, targets, occupied Bitboard) {
	pieces := p.Pieces[us][pt]
	for pieces != 0 {
		from := pieces.PopLSB()
		var attacks Bitboard
		switch pt {
		case Knight:
			attacks = KnightAttacks(from)
		case Bishop:
			attacks = BishopAttacks(from, occupied)
		case Rook:
			attacks = RookAttacks(from, occupied)
		case Queen:
			attacks = QueenAttacks(from, occupied)
		}
		attacks &= targets
		for attacks != 0 {
			to := attacks.PopLSB()
			if occupied.IsSet(to) {
				ml.Add(NewMove(from, to, Capture))
			} else {
				ml.Add(NewMove(from, to, Quiet))
			}
		}
	}
}

func (p *Position) generateKingMoves(ml *MoveList, us Color, targets Bitboard) {
	from := p.KingSquare[us]
	attacks := KingAttacks(from) & targets
	for attacks != 0 {
		to := attacks.PopLSB()
		if p.AllOccupied.IsSet(to) {
			ml.Add(NewMove(from, to, Capture))
		} else {
			ml.Add(NewMove(from, to, Quiet))
		}
	}
}

func (p *Position) generatePawnMoves(ml *MoveList, us Color, enemies, occupied Bitboard) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied

	var push1, push2, attackL, attackR, promoRank Bitboard
	var pushDir int
	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promoRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promoRank = Rank1
		pushDir = -8
	}

	for bb := push1 & ^promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir), to, Quiet))
	}
	for bb := push2; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-2*pushDir), to, DoublePush))
	}
	for bb := attackL & ^promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir+1), to, Capture))
	}
	for bb := attackR & ^promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir-1), to, Capture))
	}
	for bb := push1 & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir), to, false)
	}
	for bb := attackL & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir+1), to, true)
	}
	for bb := attackR & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir-1), to, true)
	}

	p.generateEnPassant(ml, us, pawns)
}

func (p *Position) generatePawnCaptures(ml *MoveList, us Color, enemies, occupied Bitboard) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied

	var attackL, attackR, promoPush, promoRank Bitboard
	var pushDir int
	if us == White {
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promoPush = pawns.North() & empty & Rank8
		promoRank = Rank8
		pushDir = 8
	} else {
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promoPush = pawns.South() & empty & Rank1
		promoRank = Rank1
		pushDir = -8
	}

	for bb := attackL & ^promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir+1), to, Capture))
	}
	for bb := attackR & ^promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir-1), to, Capture))
	}
	for bb := attackL & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir+1), to, true)
	}
	for bb := attackR & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir-1), to, true)
	}
	for bb := promoPush; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir), to, false)
	}

	p.generateEnPassant(ml, us, pawns)
}

func (p *Position) generateEnPassant(ml *MoveList, us Color, pawns Bitboard) {
	if p.EnPassant == NoSquare {
		return
	}
	epBB := SquareBB(p.EnPassant)
	var attackers Bitboard
	if us == White {
		attackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
	} else {
		attackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
	}
	for attackers != 0 {
		ml.Add(NewMove(attackers.PopLSB(), p.EnPassant, EnPassant))
	}
}

func addPromotions(ml *MoveList, from, to Square, capture bool) {
	ml.Add(NewPromotion(from, to, Queen, capture))
	ml.Add(NewPromotion(from, to, Rook, capture))
	ml.Add(NewPromotion(from, to, Bishop, capture))
	ml.Add(NewPromotion(from, to, Knight, capture))
}

func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()

	type castle struct {
		right      CastlingRights
		flag       MoveFlag
		kingFrom   Square
		kingTo     Square
		emptyMask  Bitboard
		checkedSqs [3]Square
	}
	var candidates [2]castle
	if us == White {
		candidates = [2]castle{
			{WhiteKingSide, CastleKing, E1, G1, SquareBB(F1) | SquareBB(G1), [3]Square{E1, F1, G1}},
			{WhiteQueenSide, CastleQueen, E1, C1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), [3]Square{E1, D1, C1}},
		}
	} else {
		candidates = [2]castle{
			{BlackKingSide, CastleKing, E8, G8, SquareBB(F8) | SquareBB(G8), [3]Square{E8, F8, G8}},
			{BlackQueenSide, CastleQueen, E8, C8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), [3]Square{E8, D8, C8}},
		}
	}

	for _, c := range candidates {
		if p.CastlingRights&c.right == 0 || p.AllOccupied&c.emptyMask != 0 {
			continue
		}
		attacked := false
		for _, sq := range c.checkedSqs {
			if p.IsSquareAttacked(sq, them) {
				attacked = true
				break
			}
		}
		if !attacked {
			ml.Add(NewMove(c.kingFrom, c.kingTo, c.flag))
		}
	}
}

// filterLegal keeps the legal subset of a pseudo-legal move list. Unpinned
// non-king moves are legal without further work when not in check; pinned
// pieces, king moves, evasions and en passant take the slow paths.
func (p *Position) filterLegal(pseudo *MoveList) *MoveList {
	legal := &MoveList{}
	checkers := p.Checkers()
	pinned := p.pinnedPieces()
	for i := 0; i < pseudo.Len(); i++ {
		m := pseudo.Get(i)
		if p.isLegal(m, pinned, checkers) {
			legal.Add(m)
		}
	}
	return legal
}

func (p *Position) isLegal(m Move, pinned, checkers Bitboard) bool {
	from, to := m.From(), m.To()
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]

	if from == ksq {
		if m.IsCastle() {
			// Path attacks were checked during generation.
			return checkers == 0
		}
		// Remove the king from occupancy so sliders see through it.
		occ := p.AllOccupied &^ SquareBB(from)
		return p.AttackersByColor(to, them, occ) == 0
	}

	if checkers != 0 {
		if checkers.PopCount() > 1 {
			return false // double check: only king moves
		}
		checker := checkers.LSB()

		if m.IsEnPassant() {
			capSq := to - 8
			if us == Black {
				capSq = to + 8
			}
			if capSq == checker {
				return p.isLegalEnPassant(m)
			}
			return false
		}

		// Must capture the checker or interpose on the check ray.
		if (SquareBB(checker)|Between(checker, ksq))&SquareBB(to) == 0 {
			return false
		}
		if pinned&SquareBB(from) != 0 && !Aligned(from, to, ksq) {
			return false
		}
		return true
	}

	if m.IsEnPassant() {
		// Removing two pawns from one rank can expose a horizontal pin the
		// pin mask cannot see; probe with make/unmake.
		return p.isLegalEnPassant(m)
	}

	if pinned&SquareBB(from) == 0 {
		return true
	}
	return Aligned(from, to, ksq)
}

func (p *Position) isLegalEnPassant(m Move) bool {
	us := p.SideToMove
	them := us.Other()
	undo := p.MakeMove(m)
	attacked := p.IsSquareAttacked(p.KingSquare[us], them)
	p.UnmakeMove(m, undo)
	return !attacked
}

// FindMove locates the legal move matching a from/to/promotion triple, as
// parsed from UCI long algebraic notation. Returns NoMove when no legal
// move matches.
func (p *Position) FindMove(from, to Square, promo PieceType) Move {
	legal := p.GenerateLegalMoves()
	for i := 0; i < legal.Len(); i++ {
		m := legal.Get(i)
		if m.From() != from || m.To() != to {
			continue
		}
		if m.IsPromotion() {
			if promo == m.Promotion() {
				return m
			}
			continue
		}
		if promo == NoPieceType {
			return m
		}
	}
	return NoMove
}
