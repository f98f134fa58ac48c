package kindex

import (
	"github.com/grailbio/bbduk/kmer"
	"github.com/grailbio/bbduk/kmertab"
)

// Index is the read-only-after-build structure described in spec.md §3's
// "Lifecycle": a sharded k-mer table plus the scaffold registry, safe for
// concurrent queries by any number of workers once BuildSequential or
// harness.BuildIndex has returned it.
type Index struct {
	Config    Config
	Alphabet  *kmer.Alphabet
	Scaffolds *ScaffoldRegistry

	shards []*kmertab.Shard
}

// NewIndex allocates an empty index with Config.Ways shards.
func NewIndex(cfg Config) *Index {
	var a *kmer.Alphabet
	if cfg.Alphabet == kmer.Amino {
		a = kmer.NewAminoAlphabet()
	} else {
		a = kmer.NewNucleotideAlphabet()
	}
	ways := cfg.Ways
	if ways <= 0 {
		ways = 1
	}
	shards := make([]*kmertab.Shard, ways)
	for i := range shards {
		shards[i] = kmertab.NewShard(1024)
	}
	return &Index{
		Config:    cfg,
		Alphabet:  a,
		Scaffolds: NewScaffoldRegistry(),
		shards:    shards,
	}
}

// ShardOf returns the shard index owning key, per spec.md §3's "shard =
// key mod W" invariant.
func (ix *Index) ShardOf(key uint64) int {
	return int(key % uint64(len(ix.shards)))
}

// Shard returns the i'th shard directly, for use by the build harness's
// per-shard loader goroutines.
func (ix *Index) Shard(i int) *kmertab.Shard { return ix.shards[i] }

// NumShards returns W, the configured shard count.
func (ix *Index) NumShards() int { return len(ix.shards) }

// KeyCount sums the number of distinct keys across all shards. Used to
// detect the "zero keys installed" failure case in spec.md §4.3/§7.
func (ix *Index) KeyCount() int {
	n := 0
	for _, s := range ix.shards {
		n += s.Len()
	}
	return n
}

// rawGet looks up key in its owning shard without any Hamming retry.
func (ix *Index) rawGet(key uint64) int32 {
	shard := ix.shards[ix.ShardOf(key)]
	return shard.Get(key)
}

// speedSkip implements spec.md §4.3/§4.4's probabilistic key-skip lever:
// "if speed>0 and (key & INT63_MAX) mod 17 < speed, skip". It is
// deliberately a stored-value decision, not a Bernoulli sample: the same
// key is always skipped or always kept, so it behaves identically at build
// time and query time.
func (ix *Index) speedSkip(key uint64) bool {
	if ix.Config.Speed <= 0 {
		return false
	}
	return (key&0x7FFFFFFFFFFFFFFF)%17 < uint64(ix.Config.Speed)
}
