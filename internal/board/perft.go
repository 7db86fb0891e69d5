package board

// Perft counts the leaf nodes of the pseudo-legal move tree at the given
// depth. A position whose king has been taken is a leaf.
func Perft(pos *Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	if !pos.HasKing(pos.SideToMove()) {
		return 1
	}

	moves := PseudoLegalMoves(pos)
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, m := range moves {
		nodes += Perft(pos.Apply(m), depth-1)
	}
	return nodes
}
