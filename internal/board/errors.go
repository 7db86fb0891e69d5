package board

import "errors"

var (
	ErrInvalidSquare  = errors.New("invalid square")
	ErrNoPiece        = errors.New("no piece at square")
	ErrIllegalMove    = errors.New("illegal move")
	ErrSquareOccupied = errors.New("square already occupied")
	ErrInvalidFEN     = errors.New("invalid FEN")
)
