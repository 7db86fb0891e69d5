package engine

import "github.com/hailam/chesscore/internal/board"

// LowerEntry records that a position's score is at least Score when
// searched to Depth. SideToMove is part of the stored key.
type LowerEntry struct {
	Depth      int
	Score      int
	SideToMove board.Color
}

// UpperEntry records that a position's score is at most Score when
// searched to Depth.
type UpperEntry struct {
	Depth int
	Score int
}

// ttKey identifies a table slot: the position hash plus the root flag.
type ttKey struct {
	hash uint64
	root bool
}

// generation is one pair of bound maps.
type generation struct {
	lower map[ttKey]LowerEntry
	upper map[ttKey]UpperEntry
}

func newGeneration() generation {
	return generation{
		lower: make(map[ttKey]LowerEntry),
		upper: make(map[ttKey]UpperEntry),
	}
}

// TranspositionTable caches search bounds across two generations.
// Lookups read the old generation and stores write the new one, so a pass
// only sees results proven by the previous pass. A table belongs to one
// search session and is not safe for concurrent use.
type TranspositionTable struct {
	old generation
	new generation

	// Statistics
	hits   uint64
	probes uint64
}

// NewTranspositionTable creates an empty table.
func NewTranspositionTable() *TranspositionTable {
	return &TranspositionTable{
		old: newGeneration(),
		new: newGeneration(),
	}
}

// Lookup returns the bounds stored for (hash, root) in the old generation.
// A nil result means no bound of that kind is known.
func (tt *TranspositionTable) Lookup(hash uint64, root bool) (*LowerEntry, *UpperEntry) {
	tt.probes++
	k := ttKey{hash, root}
	var lower *LowerEntry
	var upper *UpperEntry
	if e, ok := tt.old.lower[k]; ok {
		lower = &e
	}
	if e, ok := tt.old.upper[k]; ok {
		upper = &e
	}
	if lower != nil || upper != nil {
		tt.hits++
	}
	return lower, upper
}

// StoreLower writes a lower bound into the new generation, replacing any
// previous entry for the key regardless of its depth.
func (tt *TranspositionTable) StoreLower(hash uint64, root bool, e LowerEntry) {
	tt.new.lower[ttKey{hash, root}] = e
}

// StoreUpper writes an upper bound into the new generation, replacing any
// previous entry for the key regardless of its depth.
func (tt *TranspositionTable) StoreUpper(hash uint64, root bool, e UpperEntry) {
	tt.new.upper[ttKey{hash, root}] = e
}

// Rotate makes the new generation old and starts an empty new one.
// Call it exactly once per root pass, never during recursion.
func (tt *TranspositionTable) Rotate() {
	tt.old = tt.new
	tt.new = newGeneration()
}

// Clear drops both generations and resets statistics.
func (tt *TranspositionTable) Clear() {
	tt.old = newGeneration()
	tt.new = newGeneration()
	tt.hits = 0
	tt.probes = 0
}

// Len returns the number of entries in the new and old generations.
func (tt *TranspositionTable) Len() (newEntries, oldEntries int) {
	return len(tt.new.lower) + len(tt.new.upper), len(tt.old.lower) + len(tt.old.upper)
}

// HitRate returns the percentage of lookups that found at least one bound.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}
