package kindex

import (
	"sync/atomic"

	"blainsmith.com/go/seahash"
)

// ScaffoldInfo is one entry in the scaffold registry: spec.md §3's
// append-only list of (name, length) pairs. Index 0 is reserved empty, per
// spec.md.
type ScaffoldInfo struct {
	Name   string
	Length int
}

// ScaffoldRegistry is the append-only (name, length) registry plus the
// per-scaffold hit counters, shared read-only after build except for the
// atomic counter updates workers perform while scanning reads (spec.md §3,
// §4.7).
type ScaffoldRegistry struct {
	infos []ScaffoldInfo
	// byNameChecksum dedups literal/adapter reference names using a
	// seahash checksum of the name, the way a content-addressed cache
	// would, before falling back to an exact string compare on collision.
	byNameChecksum map[uint64][]int32

	readsHit  []int64
	basesHit  []int64
}

// NewScaffoldRegistry creates a registry with the reserved empty entry at
// index 0.
func NewScaffoldRegistry() *ScaffoldRegistry {
	r := &ScaffoldRegistry{
		byNameChecksum: make(map[uint64][]int32),
	}
	r.intern(ScaffoldInfo{Name: "", Length: 0})
	return r
}

func checksum(name string) uint64 {
	h := seahash.New()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

// Lookup returns the id of a previously interned scaffold with the given
// name, or (-1, false) if none exists yet.
func (r *ScaffoldRegistry) Lookup(name string) (int32, bool) {
	sum := checksum(name)
	for _, id := range r.byNameChecksum[sum] {
		if r.infos[id].Name == name {
			return id, true
		}
	}
	return -1, false
}

// InternOrLookup returns the id for name, assigning a new monotonically
// increasing id (and recording length) if this is the first time name has
// been observed, per spec.md §6.1 ("Each record assigned a monotonically
// increasing scaffold id on first observation").
func (r *ScaffoldRegistry) InternOrLookup(name string, length int) int32 {
	if id, ok := r.Lookup(name); ok {
		return id
	}
	return r.intern(ScaffoldInfo{Name: name, Length: length})
}

func (r *ScaffoldRegistry) intern(info ScaffoldInfo) int32 {
	id := int32(len(r.infos))
	r.infos = append(r.infos, info)
	r.readsHit = append(r.readsHit, 0)
	r.basesHit = append(r.basesHit, 0)
	sum := checksum(info.Name)
	r.byNameChecksum[sum] = append(r.byNameChecksum[sum], id)
	return id
}

// Info returns the registry entry for id.
func (r *ScaffoldRegistry) Info(id int32) ScaffoldInfo { return r.infos[id] }

// Len returns the number of registered scaffolds, including the reserved
// entry at index 0.
func (r *ScaffoldRegistry) Len() int { return len(r.infos) }

// AddHit atomically increments the per-scaffold read/base hit counters,
// safe for concurrent callers per spec.md §3/§4.7 ("shared across workers
// as atomic additions").
func (r *ScaffoldRegistry) AddHit(id int32, reads, bases int64) {
	atomic.AddInt64(&r.readsHit[id], reads)
	atomic.AddInt64(&r.basesHit[id], bases)
}

// ReadsHit and BasesHit return the current per-scaffold counters.
func (r *ScaffoldRegistry) ReadsHit(id int32) int64 { return atomic.LoadInt64(&r.readsHit[id]) }
func (r *ScaffoldRegistry) BasesHit(id int32) int64 { return atomic.LoadInt64(&r.basesHit[id]) }
