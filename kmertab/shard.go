// Package kmertab implements a single shard of the k-mer table described in
// spec.md §4.2: a linear-probing, open-addressed map from a packed uint64
// k-mer key to an int32 scaffold id, supporting set-if-absent, get,
// increment, and rebalance.
//
// A Shard is used single-writer during index build (the index builder
// routes each key to exactly one shard by key%W before calling
// SetIfAbsent), and read-only by many goroutines afterwards, mirroring
// fusion/kmer_index.go's kmerIndexShard. Unlike the teacher's
// mmap/unsafe-pointer table, this shard is a plain Go slice of entries —
// there is no correctness requirement in spec.md for the huge-page layout,
// and carrying unsafe+madvise here would copy an optimization rather than
// the idiom it expresses.
package kmertab

import (
	farm "github.com/dgryski/go-farm"
)

// Empty is the sentinel value meaning "no entry here" in an open slot, and
// is also what Get returns on a miss, per spec.md §4.2 ("get returns -1 on
// absence").
const Empty int32 = -1

type entry struct {
	key      uint64
	val      int32
	occupied bool
}

// Shard is one of the W partitions of the k-mer table's key space, keyed by
// key % W. It is not safe for concurrent writers; spec.md's "single-writer
// per shard" design means cross-shard routing is the only synchronization
// the table needs.
type Shard struct {
	entries  []entry
	size     int
	capacity int
	mask     uint64 // capacity-1; capacity is always a power of 2
}

const (
	initialCapacity  = 16
	maxLoadFactorInv = 2 // rebalance when size > capacity/maxLoadFactorInv... see Rebalance doc
)

// NewShard creates an empty shard with room for roughly sizeHint entries
// before its first rebalance.
func NewShard(sizeHint int) *Shard {
	capacity := initialCapacity
	for capacity < sizeHint*2 {
		capacity <<= 1
	}
	return &Shard{
		entries:  make([]entry, capacity),
		capacity: capacity,
		mask:     uint64(capacity - 1),
	}
}

// hashSlot picks the initial probe position for key using a farm hash,
// exactly as fusion/kmer_index.go's hashKmer does for its own sharded
// table ("farm.Hash64WithSeed... lower bits... implement a vanilla
// linear-probing hashtable").
func hashSlot(key uint64, mask uint64) uint64 {
	return farm.Hash64WithSeed(nil, key) & mask
}

// SetIfAbsent inserts (key, val) if key is not already present, and never
// overwrites an existing entry. It returns 1 if the key was inserted, 0 if
// it was already present, per spec.md §4.2.
func (s *Shard) SetIfAbsent(key uint64, val int32) int {
	if s.size > s.capacity/maxLoadFactorInv {
		s.Rebalance()
	}
	idx := s.probe(key)
	if s.entries[idx].occupied {
		return 0
	}
	s.entries[idx] = entry{key: key, val: val, occupied: true}
	s.size++
	return 1
}

// Get returns the value stored for key, or Empty if key is absent.
func (s *Shard) Get(key uint64) int32 {
	idx, found := s.find(key)
	if !found {
		return Empty
	}
	return s.entries[idx].val
}

// Increment adds delta to the value stored for key, creating the key with
// a default value of 0 first if absent, per spec.md §4.2 ("increment
// creates keys with default 0 before adding").
func (s *Shard) Increment(key uint64, delta int32) int32 {
	if s.size > s.capacity/maxLoadFactorInv {
		s.Rebalance()
	}
	idx := s.probe(key)
	if !s.entries[idx].occupied {
		s.entries[idx] = entry{key: key, val: 0, occupied: true}
		s.size++
	}
	s.entries[idx].val += delta
	return s.entries[idx].val
}

// Len returns the number of distinct keys currently stored.
func (s *Shard) Len() int { return s.size }

// Rebalance doubles the shard's capacity and reinserts every entry.
// SetIfAbsent and Increment call it before inserting whenever size exceeds
// half the capacity (slot count), so callers need not police the load
// factor themselves.
func (s *Shard) Rebalance() {
	old := s.entries
	newCapacity := s.capacity * 2
	s.entries = make([]entry, newCapacity)
	s.capacity = newCapacity
	s.mask = uint64(newCapacity - 1)
	s.size = 0
	for _, e := range old {
		if !e.occupied {
			continue
		}
		idx := s.probe(e.key)
		s.entries[idx] = e
		s.size++
	}
}

// probe returns the slot key currently occupies, or the first empty slot
// on its probe sequence if key is absent (linear probing with wraparound,
// matching kmerIndexShard.get's control flow).
func (s *Shard) probe(key uint64) uint64 {
	idx := hashSlot(key, s.mask)
	for {
		e := &s.entries[idx]
		if !e.occupied || e.key == key {
			return idx
		}
		idx = (idx + 1) & s.mask
	}
}

func (s *Shard) find(key uint64) (uint64, bool) {
	idx := hashSlot(key, s.mask)
	for {
		e := &s.entries[idx]
		if !e.occupied {
			return 0, false
		}
		if e.key == key {
			return idx, true
		}
		idx = (idx + 1) & s.mask
	}
}
