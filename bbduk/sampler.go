package bbduk

import (
	"encoding/binary"

	"github.com/minio/highwayhash"
)

// Sampler implements spec.md §6.2's "input may be sampled by samplerate
// (Bernoulli, seeded)" as a deterministic per-read gate rather than a PRNG
// draw: the same (numericID, seed) always yields the same keep/drop
// decision regardless of which worker goroutine processes the read or in
// what order, mirroring fusion.groupCandidatesByGenePair's use of
// highwayhash.Sum over a small encoded key.
type Sampler struct {
	rate float64
	key  [highwayhash.Size]byte
}

// NewSampler builds a Sampler for the given rate (1 keeps everything) and
// seed. rate is clamped to [0, 1].
func NewSampler(rate float64, seed uint64) *Sampler {
	if rate > 1 {
		rate = 1
	}
	if rate < 0 {
		rate = 0
	}
	var key [highwayhash.Size]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	return &Sampler{rate: rate, key: key}
}

// Keep reports whether the read with the given numericID survives the
// sampler gate.
func (s *Sampler) Keep(numericID uint64) bool {
	if s.rate >= 1 {
		return true
	}
	if s.rate <= 0 {
		return false
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], numericID)
	sum := highwayhash.Sum(buf[:], s.key[:])
	// Use the low 53 bits as a uniform fraction of [0, 1); float64 has a
	// 53-bit mantissa, so this avoids precision loss.
	frac := float64(binary.LittleEndian.Uint64(sum[:8])&((1<<53)-1)) / float64(uint64(1)<<53)
	return frac < s.rate
}
