package kindex

// Query implements spec.md §4.4's index query surface: build the canonical
// key for (forward, reverse, ell), honor the speed gate, look it up, and
// if it misses and hdist > 0, retry with Hamming-distance substitutions up
// to hdist, returning on the first hit. Callers pass Config.QHDist for a
// full-length probe or Config.QHDist2 for a short-kmer tail probe, per
// spec.md's "Short-kmer tail probes use qHdist2 instead of qHdist".
func (ix *Index) Query(forward, reverse uint64, ell int, hdist int) (scaffoldID int32, found bool) {
	mid := ix.Config.midMaskLen()
	if ell != ix.Config.K {
		// Short-kmer tail probes don't apply the central middle mask,
		// matching how emitShortKmerTails builds its keys (mid==0).
		mid = 0
	}
	key := uint64(ix.Alphabet.Canonical(forward, reverse, ell, ix.Config.Rcomp, mid))
	return ix.queryKey(key, ell, hdist)
}

func (ix *Index) queryKey(key uint64, ell, hdist int) (int32, bool) {
	if ix.speedSkip(key) {
		return -1, false
	}
	if v := ix.rawGet(key); v != -1 {
		return v, true
	}
	if hdist <= 0 {
		return -1, false
	}
	if v, ok := ix.querySubstitutions(key, ell, hdist); ok {
		return v, true
	}
	return -1, false
}

// querySubstitutions performs a breadth-first, depth-bounded search over
// Hamming-distance substitutions of key, returning the first hit
// encountered. Breadth-first order means the closest (lowest edit
// distance) match is always preferred when more than one exists.
func (ix *Index) querySubstitutions(key uint64, ell, depth int) (int32, bool) {
	a := ix.Alphabet
	seen := map[uint64]bool{key: true}
	frontier := []uint64{key}
	for d := 0; d < depth; d++ {
		var next []uint64
		for _, cur := range frontier {
			for i := 0; i < ell; i++ {
				orig := symbolAt(a, cur, i)
				for s := uint8(0); s <= a.MaxSymbol; s++ {
					if s == orig {
						continue
					}
					variant := a.Set(cur&^a.LengthTag(ell), i, s) | a.LengthTag(ell)
					if seen[variant] {
						continue
					}
					seen[variant] = true
					if v := ix.rawGet(variant); v != -1 {
						return v, true
					}
					next = append(next, variant)
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return -1, false
}
