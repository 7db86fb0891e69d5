package board

// Zobrist hash keys for position hashing.
// Uses PRNG with fixed seed for reproducibility.
var (
	zobristPiece      [2][6][64]uint64 // [Color][PieceType][Square]
	zobristSideToMove uint64           // XOR when black to move
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := &prng{state: 0x98F107A2BEEF1234}

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}
	zobristSideToMove = rng.next()
}

// zobristFor returns the key of a packed piece on sq, 0 for an empty square.
func zobristFor(k code, sq Square) uint64 {
	if k >= noCode {
		return 0
	}
	return zobristPiece[k.color()][k.pieceType()][sq]
}

// computeHash recomputes the key from scratch.
func (p *Position) computeHash() uint64 {
	var h uint64
	for sq := A1; sq <= H8; sq++ {
		h ^= zobristFor(p.cells[sq], sq)
	}
	if p.side == Black {
		h ^= zobristSideToMove
	}
	return h
}
