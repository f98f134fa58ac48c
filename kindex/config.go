// Package kindex implements the k-mer index builder and query surface
// described in spec.md §4.3-§4.4: a sharded k-mer table is populated from
// one or more reference sequence sets, and then queried, with optional
// substitution (Hamming-distance) seed mutation on both sides.
package kindex

import "github.com/grailbio/bbduk/kmer"

// Config mirrors spec.md §3's "Index config (immutable after build)" and
// §6.3's recognized options, following the flat-struct-with-defaults shape
// of fusion.Opts/fusion.DefaultOpts.
type Config struct {
	// K is the index k-mer length (clamped to <=31 nucleotide, <=12 amino).
	K int
	// MinK is the shortest tail k-mer probed when UseShortKmers is set.
	MinK int
	// Alphabet selects the nucleotide or amino symbol space.
	Alphabet kmer.Kind
	// Rcomp canonicalizes nucleotide keys via reverse complement.
	Rcomp bool
	// ForbidN is passed to kmer.NewScanner. An ambiguous symbol aborts the
	// k-mer window whether ForbidN is true or false.
	ForbidN bool
	// ReplicateAmbiguous expands a reference containing ambiguity codes
	// into the cross-product of unambiguous sequences before indexing.
	ReplicateAmbiguous bool
	// MidMaskLen is the width (in symbols) of the central wildcard window.
	// A negative value means "auto": kmer.DefaultMiddleMaskLen(K).
	MidMaskLen int
	// HDist and EDist are the build-time distances used to expand each
	// reference k-mer into its mutational neighborhood: every k-mer within
	// max(HDist, EDist) substitutions. Insertions and deletions are not
	// generated.
	HDist int
	EDist int
	// QHDist and QHDist2 are query-time Hamming retry distances, for
	// full-length and short k-mers respectively.
	QHDist  int
	QHDist2 int
	// Ways is the shard count W (spec.md default 7).
	Ways int
	// Speed is the probabilistic key-skip lever, 0..16 (0 disables it).
	Speed int
	// Skip, MinSkip, MaxSkip bound the k-mer stride during build.
	Skip, MinSkip, MaxSkip int
	// UseShortKmers enables additional length-tagged k-mers at record ends
	// down to MinK.
	UseShortKmers bool
}

// DefaultConfig matches spec.md §6.3's documented defaults.
var DefaultConfig = Config{
	K:        31,
	MinK:     6,
	Alphabet: kmer.Nucleotide,
	Rcomp:    true,
	MidMaskLen: -1,
	Ways:     7,
	Speed:    0,
	Skip:     1,
	MinSkip:  1,
	MaxSkip:  1,
}

// midMaskLen resolves Config.MidMaskLen's "auto" sentinel.
func (c Config) midMaskLen() int {
	if c.MidMaskLen >= 0 {
		return c.MidMaskLen
	}
	return kmer.DefaultMiddleMaskLen(c.K)
}

func (c Config) skipStride() int {
	if c.Skip > 0 {
		return c.Skip
	}
	return 1
}
