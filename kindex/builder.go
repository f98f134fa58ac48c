package kindex

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/bbduk/kmer"
)

// ReferenceRecord is one reference/adapter/contaminant/literal sequence
// presented to the builder, per spec.md §6.1. ScaffoldID must already have
// been interned via (*ScaffoldRegistry).InternOrLookup by the caller:
// interning is not safe to perform concurrently from multiple build-loader
// goroutines, so it happens once, in the single producer, before a record
// is broadcast to the per-shard loaders (spec.md §4.7).
type ReferenceRecord struct {
	ScaffoldID int32
	Seq        []byte
}

// KeyEvent is one canonical key generated while indexing a reference
// record, together with the k-mer length it was built from (K for a
// full-length key, or a shorter length for a UseShortKmers tail probe).
type KeyEvent struct {
	Key uint64
	Len int
}

// Builder generates the stream of KeyEvents for a reference record,
// applying canonicalization, the speed-skip lever, short-kmer tails, and
// substitution-only seed mutation, per spec.md §4.3. A Builder owns a
// kmer.Scanner so it can be reused across many records without
// reallocating scratch state — the "per-thread processor value type"
// pattern from spec.md §9 applies equally to index-build loaders and
// read-scan workers.
type Builder struct {
	cfg      Config
	alphabet *kmer.Alphabet
	scanner  *kmer.Scanner
}

// NewBuilder creates a Builder for the given config and alphabet.
func NewBuilder(cfg Config, a *kmer.Alphabet) *Builder {
	return &Builder{
		cfg:      cfg,
		alphabet: a,
		scanner:  kmer.NewScanner(a, cfg.K, cfg.ForbidN),
	}
}

// Keys generates every KeyEvent for seq and passes it to emit. It does not
// touch a shard or a scaffold registry: callers (typically one per-shard
// build-loader, filtering by Index.ShardOf) are responsible for routing.
func (b *Builder) Keys(seq []byte, emit func(KeyEvent)) {
	cfg := b.cfg
	a := b.alphabet
	mid := cfg.midMaskLen()
	stride := cfg.skipStride()

	b.scanner.Reset(seq)
	pos := 0
	for b.scanner.Scan() {
		w := b.scanner.Get()
		if w.Pos != pos {
			// A Scan() call skipped ambiguous bytes; resync our stride
			// counter to the new position rather than apply a stale phase.
			pos = w.Pos
		}
		if pos%stride == 0 {
			key := a.Canonical(w.ForwardBits, w.ReverseBits, cfg.K, cfg.Rcomp, mid)
			b.emitWithMutation(uint64(key), cfg.K, emit)
		}
		pos++
	}

	if cfg.UseShortKmers {
		b.emitShortKmerTails(seq, emit)
	}
}

// emitWithMutation applies the build-time speed gate and then emits key
// itself, plus (if HDist/EDist are configured) its mutational neighborhood.
func (b *Builder) emitWithMutation(key uint64, ell int, emit func(KeyEvent)) {
	if SpeedSkip(b.cfg.Speed, key) {
		return
	}
	emit(KeyEvent{Key: key, Len: ell})
	if b.cfg.HDist > 0 {
		b.mutateSubstitutions(key, ell, b.cfg.HDist, emit)
	}
	if b.cfg.EDist > 0 {
		// EDist only widens the substitution depth to max(HDist, EDist);
		// no insertion or deletion variants are generated.
		if b.cfg.EDist > b.cfg.HDist {
			b.mutateSubstitutions(key, ell, b.cfg.EDist, emit)
		}
	}
}

// mutateSubstitutions performs the bounded, iterative (explicit-stack, per
// spec.md §9) enumeration of every k-mer within Hamming distance depth of
// the original key, routing each through emit. Revisiting the original key
// is prevented by the seen-set, and set_if_absent's idempotence (applied
// downstream by the shard) absorbs any duplicate paths to the same
// variant.
func (b *Builder) mutateSubstitutions(key uint64, ell, depth int, emit func(KeyEvent)) {
	a := b.alphabet
	type frame struct {
		bits  uint64
		depth int
	}
	seen := map[uint64]bool{key: true}
	stack := []frame{{key, 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.depth >= depth {
			continue
		}
		for i := 0; i < ell; i++ {
			orig := symbolAt(a, cur.bits, i)
			for s := uint8(0); s <= a.MaxSymbol; s++ {
				if s == orig {
					continue
				}
				variant := a.Set(cur.bits&^a.LengthTag(ell), i, s) | a.LengthTag(ell)
				if seen[variant] {
					continue
				}
				seen[variant] = true
				emit(KeyEvent{Key: variant, Len: ell})
				stack = append(stack, frame{variant, cur.depth + 1})
			}
		}
	}
}

// symbolAt extracts the symbol code at position i from a packed k-mer's low
// bits (0 = the lowest bits, which hold the rightmost/3' symbol of a
// Scanner-packed window).
func symbolAt(a *kmer.Alphabet, bits uint64, i int) uint8 {
	shift := uint(i) * a.BitsPerSymbol
	symMask := uint64(1)<<a.BitsPerSymbol - 1
	return uint8((bits >> shift) & symMask)
}

// emitShortKmerTails generates the additional length-tagged k-mers at the
// left and right ends of the record, lengths K-1 down to MinK, per
// spec.md §4.3's "useShortKmers" clause.
func (b *Builder) emitShortKmerTails(seq []byte, emit func(KeyEvent)) {
	cfg := b.cfg
	a := b.alphabet
	if len(seq) < cfg.MinK {
		return
	}
	maxEll := cfg.K - 1
	if maxEll > len(seq) {
		maxEll = len(seq)
	}
	for ell := maxEll; ell >= cfg.MinK; ell-- {
		// Left tail: window [0, ell).
		if forward, reverse, ok := kmer.EncodeWindow(a, seq[:ell]); ok {
			key := a.Canonical(forward, reverse, ell, cfg.Rcomp, 0)
			b.emitWithMutation(uint64(key), ell, emit)
		}
		// Right tail: window [len(seq)-ell, len(seq)).
		start := len(seq) - ell
		if forward, reverse, ok := kmer.EncodeWindow(a, seq[start:]); ok {
			key := a.Canonical(forward, reverse, ell, cfg.Rcomp, 0)
			b.emitWithMutation(uint64(key), ell, emit)
		}
	}
}

// SpeedSkip implements spec.md §4.3/§4.4's "speed" lever: a deterministic
// function of the key alone, so the same key is skipped consistently at
// both build and query time. speed == 0 disables it.
func SpeedSkip(speed int, key uint64) bool {
	if speed <= 0 {
		return false
	}
	return (key&0x7FFFFFFFFFFFFFFF)%17 < uint64(speed)
}

// Insert routes a single KeyEvent to its owning shard, calling
// SetIfAbsent. It is the synchronous (non-harness) insertion path, used
// directly by tests and by BuildSequential.
func (ix *Index) Insert(ev KeyEvent, scaffoldID int32) {
	shard := ix.shards[ix.ShardOf(ev.Key)]
	shard.SetIfAbsent(ev.Key, scaffoldID)
}

// BuildSequential builds an index from refs in a single goroutine. It is
// the logical reference implementation of the build semantics; the
// concurrent multi-loader harness in bbduk/harness produces an identical
// index (same keys, same scaffold assignments) by constructon, since
// set_if_absent is idempotent and shard ownership is a pure function of
// the key.
func BuildSequential(cfg Config, refs []ReferenceRecord) *Index {
	ix := NewIndex(cfg)
	b := NewBuilder(cfg, ix.Alphabet)
	for _, rec := range refs {
		seqs := [][]byte{rec.Seq}
		if cfg.ReplicateAmbiguous {
			seqs = ExpandAmbiguous(rec.Seq)
		}
		for _, seq := range seqs {
			b.Keys(seq, func(ev KeyEvent) {
				ix.Insert(ev, rec.ScaffoldID)
			})
		}
	}
	if ix.KeyCount() == 0 {
		log.Error.Printf("kindex: zero keys installed from %d reference record(s)", len(refs))
	}
	return ix
}
