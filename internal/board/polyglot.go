package board

// Polyglot-layout key table: 12 piece kinds by 64 squares, then the side
// to move key. Castling and en passant keys are omitted since positions
// here carry neither.
var (
	polyglotPieces     [12][64]uint64
	polyglotSideToMove uint64
)

func init() {
	initPolyglotKeys()
}

// PolyglotHash computes the opening book key of the position. Piece kinds
// follow the Polyglot order: black pawn, white pawn, black knight, and so
// on up to the white king.
func (p *Position) PolyglotHash() uint64 {
	var hash uint64
	for sq := A1; sq <= H8; sq++ {
		k := p.cells[sq]
		if k == noCode {
			continue
		}
		kind := 2 * int(k.pieceType())
		if k.color() == White {
			kind++
		}
		hash ^= polyglotPieces[kind][sq]
	}
	if p.side == White {
		hash ^= polyglotSideToMove
	}
	return hash
}

func initPolyglotKeys() {
	rng := &prng{state: 0x37b4a4b3f0d1c0d0}
	for piece := range 12 {
		for sq := range 64 {
			polyglotPieces[piece][sq] = rng.next()
		}
	}
	polyglotSideToMove = rng.next()
}
