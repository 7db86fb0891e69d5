// Package book reads and writes opening books in the Polyglot entry layout
// and picks weighted book moves for a position.
package book

import (
	"encoding/binary"
	"errors"
	"io"
	"math/rand/v2"
	"os"
	"slices"

	"github.com/hailam/chesscore/internal/board"
)

// entrySize is the Polyglot record size: key, move, weight, learn.
const entrySize = 16

// ErrPromotion marks a book move that needs promotion, which the rules
// here do not model.
var ErrPromotion = errors.New("book: promotion moves are not supported")

// Entry is one book move with its weight. From and To are the only parts
// of the move stored; Probe rebuilds the full move against a position.
type Entry struct {
	From, To board.Square
	Weight   uint16
}

// Book represents an opening book.
type Book struct {
	entries map[uint64][]Entry
	size    int
}

// New creates an empty book.
func New() *Book {
	return &Book{entries: make(map[uint64][]Entry)}
}

// LoadPolyglot loads a book from a file.
func LoadPolyglot(filename string) (*Book, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadPolyglotReader(file)
}

// LoadPolyglotReader loads a book from a reader. Entries whose move cannot
// be represented are skipped.
func LoadPolyglotReader(r io.Reader) (*Book, error) {
	b := New()

	var rec [entrySize]byte
	for {
		_, err := io.ReadFull(r, rec[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		key := binary.BigEndian.Uint64(rec[0:8])
		from, to, err := decodeMove(binary.BigEndian.Uint16(rec[8:10]))
		if err != nil {
			continue
		}
		b.add(key, Entry{From: from, To: to, Weight: binary.BigEndian.Uint16(rec[10:12])})
	}

	return b, nil
}

// Add records a move for pos.
func (b *Book) Add(pos *board.Position, m board.Move, weight uint16) {
	b.add(pos.PolyglotHash(), Entry{From: m.From(), To: m.To, Weight: weight})
}

func (b *Book) add(key uint64, e Entry) {
	b.entries[key] = append(b.entries[key], e)
	b.size++
}

// WriteTo writes the book in Polyglot layout, keys ascending.
func (b *Book) WriteTo(w io.Writer) (int64, error) {
	keys := make([]uint64, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var n int64
	var rec [entrySize]byte
	for _, k := range keys {
		for _, e := range sortedByWeight(b.entries[k]) {
			binary.BigEndian.PutUint64(rec[0:8], k)
			binary.BigEndian.PutUint16(rec[8:10], encodeMove(e.From, e.To))
			binary.BigEndian.PutUint16(rec[10:12], e.Weight)
			binary.BigEndian.PutUint32(rec[12:16], 0)
			written, err := w.Write(rec[:])
			n += int64(written)
			if err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// decodeMove unpacks a Polyglot move:
// bits 0-5 to square, 6-11 from square, 12-14 promotion piece.
func decodeMove(data uint16) (from, to board.Square, err error) {
	if data>>12&7 != 0 {
		return board.NoSquare, board.NoSquare, ErrPromotion
	}
	return board.Square(data >> 6 & 63), board.Square(data & 63), nil
}

func encodeMove(from, to board.Square) uint16 {
	return uint16(from)<<6 | uint16(to)
}

// Probe picks a book move for pos by weighted random selection. Entries
// that are not valid moves for the side to move are ignored.
func (b *Book) Probe(pos *board.Position) (board.Move, bool) {
	moves, weights := b.candidates(pos)
	if len(moves) == 0 {
		return board.NoMove, false
	}

	var total uint32
	for _, w := range weights {
		total += uint32(w)
	}
	if total == 0 {
		return moves[0], true
	}

	r := rand.Uint32N(total)
	var cumulative uint32
	for i, w := range weights {
		cumulative += uint32(w)
		if r < cumulative {
			return moves[i], true
		}
	}
	return moves[0], true
}

// ProbeAll returns all book entries for the position, sorted by weight.
func (b *Book) ProbeAll(pos *board.Position) []Entry {
	if b == nil {
		return nil
	}
	return sortedByWeight(b.entries[pos.PolyglotHash()])
}

func (b *Book) candidates(pos *board.Position) ([]board.Move, []uint16) {
	var moves []board.Move
	var weights []uint16
	for _, e := range b.ProbeAll(pos) {
		if m, ok := verify(pos, e); ok {
			moves = append(moves, m)
			weights = append(weights, e.Weight)
		}
	}
	return moves, weights
}

// verify rebuilds the entry as a move on pos and checks it is playable.
func verify(pos *board.Position, e Entry) (board.Move, bool) {
	m, err := board.NewMove(pos, e.From, e.To)
	if err != nil || m.Piece.Color != pos.SideToMove() {
		return board.NoMove, false
	}
	if !board.IsMoveValid(m.Piece, m.To, pos) {
		return board.NoMove, false
	}
	return m, true
}

func sortedByWeight(entries []Entry) []Entry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		return int(b.Weight) - int(a.Weight)
	})
	return out
}

// Size returns the number of entries in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return b.size
}

// Positions returns the number of distinct positions in the book.
func (b *Book) Positions() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}
