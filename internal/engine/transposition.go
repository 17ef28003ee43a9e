package engine

import (
	"github.com/rglenister/natto/internal/board"
)

// Bound classifies a stored score relative to the search window.
type Bound uint8

const (
	BoundExact Bound = iota
	BoundLower       // beta cutoff
	BoundUpper       // no move raised alpha
)

// TTEntry is one transposition table slot.
type TTEntry struct {
	Key      uint64
	BestMove board.Move
	Score    int16
	Depth    int8
	Bound    Bound
	Age      uint8
}

const bucketSize = 2

// TranspositionTable caches search results keyed by Zobrist hash. Buckets
// hold two entries; replacement prefers entries from older searches, then
// shallower depth. The search is single-threaded so no locking is needed.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64
	age     uint8
}

// NewTranspositionTable builds a table of the given size in megabytes,
// rounded down to a power of two of entries.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	const entrySize = 16
	numEntries := uint64(sizeMB) * 1024 * 1024 / entrySize
	numEntries = floorPowerOfTwo(numEntries)
	if numEntries < bucketSize {
		numEntries = bucketSize
	}
	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		mask:    numEntries - 1,
	}
}

func floorPowerOfTwo(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// bucket returns the first index of the bucket for hash.
func (tt *TranspositionTable) bucket(hash uint64) uint64 {
	return (hash & tt.mask) &^ (bucketSize - 1)
}

// Probe looks up the position; the stored key is verified to reject
// index collisions.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	base := tt.bucket(hash)
	for i := uint64(0); i < bucketSize; i++ {
		e := tt.entries[base+i]
		if e.Key == hash && e.Depth > 0 {
			return e, true
		}
	}
	return TTEntry{}, false
}

// Store writes a search result. Within a bucket, an entry with the same
// key is always updated; otherwise the entry from the oldest search is
// replaced, ties broken by shallowest depth. A deeper entry from the
// current search is never displaced by a shallower one.
func (tt *TranspositionTable) Store(hash uint64, depth, score int, bound Bound, bestMove board.Move) {
	base := tt.bucket(hash)

	victim := -1
	for i := 0; i < bucketSize; i++ {
		e := &tt.entries[base+uint64(i)]
		if e.Key == hash || e.Depth == 0 {
			victim = i
			break
		}
		if victim < 0 {
			victim = i
			continue
		}
		v := &tt.entries[base+uint64(victim)]
		if ageBefore(e.Age, v.Age, tt.age) || (e.Age == v.Age && e.Depth < v.Depth) {
			victim = i
		}
	}

	e := &tt.entries[base+uint64(victim)]
	if e.Key != hash && e.Age == tt.age && int(e.Depth) > depth && e.Depth > 0 {
		return
	}
	*e = TTEntry{
		Key:      hash,
		BestMove: bestMove,
		Score:    int16(score),
		Depth:    int8(depth),
		Bound:    bound,
		Age:      tt.age,
	}
}

// ageBefore reports whether age a is further from the current age than b.
func ageBefore(a, b, current uint8) bool {
	return current-a > current-b
}

// NewSearch bumps the age counter; stale entries become preferred
// replacement victims.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Clear wipes the table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.age = 0
}

// Size returns the number of entries.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.entries))
}

// HashFull estimates the permille of the table used by the current search.
func (tt *TranspositionTable) HashFull() int {
	sample := 1000
	if sample > len(tt.entries) {
		sample = len(tt.entries)
	}
	used := 0
	for i := 0; i < sample; i++ {
		if tt.entries[i].Depth > 0 && tt.entries[i].Age == tt.age {
			used++
		}
	}
	return used * 1000 / sample
}

// Mate scores are stored relative to the probing node rather than the
// root, so a cached mate is valid at any ply.

// scoreToTT converts a root-relative mate score for storage.
func scoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}

// scoreFromTT converts a stored mate score back to root-relative.
func scoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}
