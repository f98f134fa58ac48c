package bbduk

import (
	"github.com/grailbio/bbduk/kindex"
	"github.com/grailbio/bbduk/kmer"
)

// OverlapMerger estimates a pair's insert size from mate overlap. It is the
// external collaborator spec.md §1 places out of scope ("read-pair overlap
// merging... treated as a black box exposing ... parameters to the
// engine"); a nil merger disables the overlap-trim phase entirely.
type OverlapMerger func(r1, r2 []byte) (insertSize int, unambiguous bool)

// Channel is one of the three ordered output streams described in
// spec.md §4.7.
type Channel int

const (
	ChannelNone Channel = iota
	ChannelUnmatched
	ChannelMatched
	ChannelSingleton
)

// Disposition names the channel (if any) each mate of a pair should be
// written to, per spec.md §4.6's "output disposition per pair" table.
type Disposition struct {
	R1, R2 Channel
}

// Processor is the per-thread, per-worker-clone state spec.md §9
// prescribes in place of the source's copy-constructor pattern: an
// immutable index and config shared read-only across every worker, plus a
// reusable k-mer scanner and counters owned exclusively by this goroutine.
// One Processor is created per query worker by the harness.
type Processor struct {
	Index   *kindex.Index
	Config  Config
	Overlap OverlapMerger

	scanner *kmer.Scanner
	sampler *Sampler
	Stats   Stats
}

// NewProcessor builds a Processor bound to ix and cfg. ix is shared
// read-only across every Processor; scanner/sampler state is private.
func NewProcessor(ix *kindex.Index, cfg Config) *Processor {
	return &Processor{
		Index:   ix,
		Config:  cfg,
		scanner: kmer.NewScanner(ix.Alphabet, ix.Config.K, ix.Config.ForbidN),
		sampler: NewSampler(cfg.SampleRate, cfg.SampleSeed),
	}
}

// Process runs the full per-read pipeline (spec.md §4.6) over one pair
// (R2 may be nil for unpaired input), short-circuiting per-mate phases on
// Read.Discarded, and returns the output disposition.
func (p *Processor) Process(pair *Pair) Disposition {
	if !p.sampler.Keep(pair.R1.NumericID) {
		return Disposition{}
	}

	p.countIn(pair.R1)
	p.countIn(pair.R2)

	p.forceTrim(pair.R1)
	p.forceTrim(pair.R2)

	if !p.initialFilters(pair.R1) {
		pair.R1.Discarded = true
		p.Stats.InitialFilterFailed++
	}
	if pair.R2 != nil && !p.initialFilters(pair.R2) {
		pair.R2.Discarded = true
		p.Stats.InitialFilterFailed++
	}
	if p.Config.GCPerPair && pair.R2 != nil && !pair.R1.Discarded && !pair.R2.Discarded {
		if gc := pairGCFraction(pair.R1.Seq, pair.R2.Seq); gc < p.Config.MinGC || gc > p.Config.MaxGC {
			pair.R1.Discarded = true
			pair.R2.Discarded = true
			p.Stats.InitialFilterFailed += 2
		}
	}

	p.kmerPhase(pair.R1)
	p.kmerPhase(pair.R2)

	if p.Config.RemovePairsIfEitherBad && pair.R2 != nil {
		if pair.R1.Discarded || pair.R2.Discarded {
			pair.R1.Discarded = true
			pair.R2.Discarded = true
		}
	}

	if pair.R2 != nil && p.Overlap != nil && !pair.R1.Discarded && !pair.R2.Discarded {
		p.overlapTrim(pair)
	}

	p.secondaryTrim(pair.R1)
	p.secondaryTrim(pair.R2)

	p.finalFilters(pair.R1)
	p.finalFilters(pair.R2)

	d := p.disposition(pair)
	p.tally(pair.R1, d.R1)
	p.tally(pair.R2, d.R2)
	return d
}

func (p *Processor) countIn(r *Read) {
	if r == nil {
		return
	}
	p.Stats.ReadsIn++
	p.Stats.BasesIn += int64(r.Len())
}

func (p *Processor) tally(r *Read, ch Channel) {
	if r == nil || ch == ChannelNone {
		return
	}
	p.Stats.ReadsOut++
	p.Stats.BasesOut += int64(r.Len())
	switch ch {
	case ChannelMatched:
		p.Stats.MatchedReads++
	case ChannelSingleton:
		p.Stats.SingletonReads++
	case ChannelUnmatched:
		p.Stats.UnmatchedReads++
	}
}

// forceTrim implements spec.md §4.6 step 1.
func (p *Processor) forceTrim(r *Read) {
	if r == nil || r.Discarded {
		return
	}
	cfg := p.Config
	l := r.Len()
	start := cfg.ForceTrimLeft
	end := l - cfg.ForceTrimRight
	if cfg.ForceTrimRight2 > 0 {
		if alt := l - cfg.ForceTrimRight2; alt < end {
			end = alt
		}
	}
	if cfg.ForceTrimModulo > 0 && end > start {
		end -= (end - start) % cfg.ForceTrimModulo
	}
	if start != 0 || end != l {
		r.Trim(start, end)
		p.Stats.ForceTrimmedReads++
	}
}

// initialFilters implements spec.md §4.6 step 2.
func (p *Processor) initialFilters(r *Read) bool {
	if r == nil {
		return true
	}
	cfg := p.Config
	if cfg.RequireChastity && !r.ChastityPass {
		return false
	}
	if cfg.FlowcellFilter {
		if r.X < cfg.FlowcellXMin || r.X > cfg.FlowcellXMax ||
			r.Y < cfg.FlowcellYMin || r.Y > cfg.FlowcellYMax {
			return false
		}
	}
	if len(cfg.BarcodeWhitelist) > 0 && !BarcodeValid(r.Barcode, cfg.BarcodeWhitelist, cfg.BarcodeMaxEditDist) {
		return false
	}
	if !cfg.GCPerPair {
		if gc := gcFraction(r.Seq); gc < cfg.MinGC || gc > cfg.MaxGC {
			return false
		}
	}
	return true
}

// kmerPhase implements spec.md §4.5/§4.6 step 3.
func (p *Processor) kmerPhase(r *Read) {
	if r == nil || r.Discarded {
		return
	}
	out := Scan(p.Index, p.Config, r.Seq, p.scanner)

	switch p.Config.Mode {
	case ModeKTrimLeft, ModeKTrimRight, ModeKTrimBoth:
		before := r.Len()
		r.Trim(out.TrimStart, out.TrimEnd)
		if r.Len() != before {
			p.Stats.KmerTrimmedReads++
			p.Stats.KmerTrimmedBases += int64(before - r.Len())
		}
	case ModeKTrimN:
		ApplyMask(r.Seq, r.Qual, out.Mask, p.Config)
	case ModeKSplit:
		// ksplit would change a read's cardinality (one record becomes
		// many fragments), which the per-mate {r1?, r2?} disposition cannot
		// express. The read is trimmed to its single longest fragment; the
		// other fragments are dropped and are not emitted anywhere.
		if len(out.Fragments) == 0 {
			r.Discarded = true
			return
		}
		best := out.Fragments[0]
		for _, f := range out.Fragments[1:] {
			if f[1]-f[0] > best[1]-best[0] {
				best = f
			}
		}
		r.Trim(best[0], best[1])
	default:
		if out.Discard {
			r.Discarded = true
			p.Stats.KmerFiltered++
			return
		}
		if p.Config.FindBestMatch && out.BestScaffold >= 0 {
			r.renamedSuffix = FindBestMatchAnnotation(p.Index.Scaffolds, map[int32]int{out.BestScaffold: out.BestCount})
			p.Index.Scaffolds.AddHit(out.BestScaffold, 1, int64(r.Len()))
		}
	}
	if r.Len() < p.Config.MinReadLength {
		r.Discarded = true
	}
}

// overlapTrim implements spec.md §4.6 step 4: ask the external overlap
// merger for the pair's insert size, and trim any overhang past it.
func (p *Processor) overlapTrim(pair *Pair) {
	insert, ok := p.Overlap(pair.R1.Seq, pair.R2.Seq)
	if !ok {
		return
	}
	if insert < pair.R1.Len() {
		before := pair.R1.Len()
		pair.R1.Trim(0, insert)
		p.Stats.OverlapTrimmedReads++
		p.Stats.OverlapTrimmedBases += int64(before - pair.R1.Len())
	}
	if insert < pair.R2.Len() {
		before := pair.R2.Len()
		pair.R2.Trim(0, insert)
		p.Stats.OverlapTrimmedReads++
		p.Stats.OverlapTrimmedBases += int64(before - pair.R2.Len())
	}
}

// secondaryTrim implements spec.md §4.6 step 5, in the specified order:
// swift, polymer, entropy, quality.
func (p *Processor) secondaryTrim(r *Read) {
	if r == nil || r.Discarded {
		return
	}
	cfg := p.Config

	if cfg.SwiftTrim {
		start, end := swiftTrimRange(r.Seq)
		p.cropTo(r, start, end)
	}

	for _, base := range cfg.Polymers {
		if r.Len() == 0 {
			break
		}
		start, end := PolymerTrimRange(r.Seq, base, cfg.PolymerMinRun, cfg.PolymerMaxNonPoly)
		p.cropTo(r, start, end)
	}

	if r.Len() > 0 && cfg.EntropyWindow > 0 {
		switch {
		case cfg.EntropyMask:
			ApplyMask(r.Seq, r.Qual, EntropyMaskWindows(r.Seq, cfg.EntropyWindow, cfg.EntropyCutoff), cfg)
		case cfg.EntropyTrim:
			start, end := EntropyTrimRange(r.Seq, cfg.EntropyWindow, cfg.EntropyCutoff)
			p.cropTo(r, start, end)
		case cfg.EntropyMarkOnly:
			if LowEntropy(r.Seq, cfg.EntropyCutoff) {
				p.Stats.EntropyFiltered++
			}
		}
	}

	if r.Qual != nil {
		if cfg.QualityTrimRight {
			p.cropTo(r, 0, QualityTrimRight(r.Qual, cfg.QualityOffset, cfg.TrimQuality))
		}
		if cfg.QualityTrimLeft {
			p.cropTo(r, QualityTrimLeft(r.Qual, cfg.QualityOffset, cfg.TrimQuality), r.Len())
		}
	}

	if r.Len() < cfg.MinReadLength {
		r.Discarded = true
	}
}

// cropTo trims r to [start, end) and attributes the removed bases to the
// secondary-trim counter, no-oping when the range already covers the whole
// read.
func (p *Processor) cropTo(r *Read, start, end int) {
	if start <= 0 && end >= r.Len() {
		return
	}
	before := r.Len()
	r.Trim(start, end)
	p.Stats.PolymerTrimmedBases += int64(before - r.Len())
}

// swiftTrimRange implements the "swift" composition-based end trim: a short
// probe window at either end is cropped if its composition is markedly
// less diverse than a generic read, the signature of the low-complexity
// adaptase tail Swift Biosciences library prep leaves behind.
func swiftTrimRange(seq []byte) (start, end int) {
	const probe = 10
	l := len(seq)
	start, end = 0, l
	if l <= probe*2 {
		return start, end
	}
	if normalizedEntropy(seq[:probe]) < 0.5 {
		start = probe
	}
	if normalizedEntropy(seq[l-probe:]) < 0.5 {
		end = l - probe
	}
	return start, end
}

// finalFilters implements spec.md §4.6 step 6.
func (p *Processor) finalFilters(r *Read) {
	if r == nil || r.Discarded {
		return
	}
	cfg := p.Config
	l := r.Len()

	bad := l < cfg.MinLength || (cfg.MaxLength > 0 && l > cfg.MaxLength)
	if !bad && r.Qual != nil && cfg.MinAvgQuality > 0 {
		bad = AverageQuality(r.Qual, cfg.QualityOffset) < cfg.MinAvgQuality
	}
	if !bad && r.Qual != nil && cfg.MinBaseQuality > 0 {
		bad = MinBaseQuality(r.Qual, cfg.QualityOffset) < cfg.MinBaseQuality
	}
	if !bad && cfg.MaxNCount >= 0 {
		bad = countN(r.Seq) > cfg.MaxNCount
	}
	if !bad && cfg.MinConsecutiveRun > 0 {
		bad = longestCalledRun(r.Seq) < cfg.MinConsecutiveRun
	}
	if !bad && cfg.MinBaseFrequency > 0 {
		bad = !meetsBaseFrequency(r.Seq, cfg.MinBaseFrequency)
	}
	if !bad && cfg.StandaloneEntropy > 0 {
		bad = LowEntropy(r.Seq, cfg.StandaloneEntropy)
	}

	if bad {
		r.Discarded = true
		p.Stats.FinalFilterFailed++
		return
	}
	if cfg.QuantizeQuality && r.Qual != nil {
		QuantizeQuality(r.Qual, cfg.QualityOffset)
	}
}

// disposition implements spec.md §4.6's output-disposition table.
func (p *Processor) disposition(pair *Pair) Disposition {
	r1Bad := pair.R1 == nil || pair.R1.Discarded
	if pair.R2 == nil {
		if r1Bad {
			return Disposition{}
		}
		return Disposition{R1: ChannelUnmatched}
	}
	r2Bad := pair.R2.Discarded

	switch {
	case r1Bad && r2Bad:
		if p.Config.TrimFailuresTo1bp {
			truncateTo1bp(pair.R1)
			truncateTo1bp(pair.R2)
			return Disposition{R1: ChannelUnmatched, R2: ChannelUnmatched}
		}
		// Both mates failed (whether by the k-mer phase or a later filter);
		// per spec.md §4.6's disposition table this is still emitted, to the
		// matched channel, so a caller configuring outm can inspect what was
		// removed. Whether anything is actually written from there is a
		// harness-level decision (is outm configured at all), not this
		// Processor's.
		return Disposition{R1: ChannelMatched, R2: ChannelMatched}
	case !r1Bad && !r2Bad:
		return Disposition{R1: ChannelUnmatched, R2: ChannelUnmatched}
	case !r1Bad: // r2Bad
		return Disposition{R1: p.survivorChannel(), R2: ChannelMatched}
	default: // r1Bad, !r2Bad
		return Disposition{R1: ChannelMatched, R2: p.survivorChannel()}
	}
}

func (p *Processor) survivorChannel() Channel {
	if p.Config.PairedToSingle {
		return ChannelSingleton
	}
	return ChannelUnmatched
}

func truncateTo1bp(r *Read) {
	r.Trim(0, minInt(1, r.Len()))
}
