package bbduk

import (
	"math"

	"github.com/grailbio/bbduk/kindex"
	"github.com/grailbio/bbduk/kmer"
)

// ScanOutcome is the result of the k-mer phase (spec.md §4.5) for one read:
// exactly the fields populated depend on cfg.Mode.
type ScanOutcome struct {
	Discard bool

	// TrimStart/TrimEnd bound the surviving [start, end) range, for the
	// trim-tips modes.
	TrimStart, TrimEnd int

	// Mask is a per-base "should be overwritten/lowercased" bitset, for
	// ModeKTrimN.
	Mask []bool

	// Fragments holds maximal unmasked [start, end) substrings, for
	// ModeKSplit.
	Fragments [][2]int

	BestScaffold int32
	BestCount    int

	HitCount     int
	ValidKmers   int
	CoveredBases int
}

// restrictRange implements spec.md §4.5's "position range is restricted"
// rule.
func restrictRange(l, restrictLeft, restrictRight int) (startR, stopL int) {
	startR = 0
	if restrictRight > 0 {
		startR = l - restrictRight
		if startR < 0 {
			startR = 0
		}
	}
	stopL = l
	if restrictLeft > 0 && restrictLeft < l {
		stopL = restrictLeft
	}
	return startR, stopL
}

// Scan runs the k-mer phase over seq, dispatching to the mode selected by
// cfg.Mode. sc is a caller-owned, reusable *kmer.Scanner (per-thread scratch
// state, per spec.md §9's "per-thread processor value type" design note).
func Scan(ix *kindex.Index, cfg Config, seq []byte, sc *kmer.Scanner) ScanOutcome {
	l := len(seq)
	out := ScanOutcome{TrimStart: 0, TrimEnd: l, BestScaffold: -1}
	if l < ix.Config.K {
		return out
	}
	startR, stopL := restrictRange(l, cfg.RestrictLeft, cfg.RestrictRight)

	switch cfg.Mode {
	case ModeKTrimLeft, ModeKTrimRight, ModeKTrimBoth:
		return scanTrim(ix, cfg, seq, sc, startR, stopL)
	case ModeKTrimN:
		t := collectHitWindows(ix, cfg, seq, sc, startR, stopL)
		out.Mask = rasterizeMask(t, l, cfg.MaskFullyCovered)
		return out
	case ModeKSplit:
		t := collectHitWindows(ix, cfg, seq, sc, startR, stopL)
		mask := rasterizeMask(t, l, false)
		out.Fragments = fragmentsFromMask(mask, cfg.MinReadLength)
		return out
	default:
		return scanFilter(ix, cfg, seq, sc, startR, stopL)
	}
}

func fragmentsFromMask(mask []bool, minLen int) [][2]int {
	var frags [][2]int
	start := -1
	for i := 0; i <= len(mask); i++ {
		open := i < len(mask) && !mask[i]
		if open {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			if i-start >= minLen {
				frags = append(frags, [2]int{start, i})
			}
			start = -1
		}
	}
	return frags
}

// scanFilter implements modes 1-3 (filter-by-count, filter-by-coverage,
// find-best-match), which are not mutually exclusive: find-best-match is an
// optional classification overlay on top of whichever filter threshold
// applies.
func scanFilter(ix *kindex.Index, cfg Config, seq []byte, sc *kmer.Scanner, startR, stopL int) ScanOutcome {
	k := ix.Config.K
	l := len(seq)
	out := ScanOutcome{TrimStart: 0, TrimEnd: l, BestScaffold: -1}

	var scaffoldCounts map[int32]int
	if cfg.FindBestMatch {
		scaffoldCounts = make(map[int32]int)
	}

	lastCovered := -1
	sc.Reset(seq)
	for sc.Scan() {
		w := sc.Get()
		if w.Pos < startR || w.Pos >= stopL {
			continue
		}
		out.ValidKmers++
		id, found := ix.Query(w.ForwardBits, w.ReverseBits, k, cfg.QHDist)
		if !found {
			continue
		}
		out.HitCount++
		i := w.Pos + k - 1
		coveredStart := i - k + 1
		if lastCovered+1 > coveredStart {
			coveredStart = lastCovered + 1
		}
		if i >= coveredStart {
			out.CoveredBases += i - coveredStart + 1
		}
		lastCovered = i

		if scaffoldCounts != nil {
			scaffoldCounts[id]++
		}
	}

	if cfg.MinCoveredFraction > 0 {
		need := int(math.Ceil(cfg.MinCoveredFraction * float64(l)))
		out.Discard = out.CoveredBases >= need
	} else {
		maxBad := cfg.MaxBadKmers
		if cfg.MinKmerFraction > 0 && out.ValidKmers > 0 {
			frac := int(math.Floor(float64(out.ValidKmers-1) * cfg.MinKmerFraction))
			if frac > maxBad {
				maxBad = frac
			}
		}
		out.Discard = out.HitCount > maxBad
	}

	if len(scaffoldCounts) > 0 {
		// Ties yield the lowest scaffold id, per spec.md §8's explicit
		// testable property (overriding the looser "first-seen order"
		// wording in §4.5 mode 3 - see DESIGN.md).
		ranked := rankScaffoldCounts(scaffoldCounts)
		out.BestScaffold = ranked[0].ID
		out.BestCount = ranked[0].Count
	}
	return out
}

// scanTrim implements mode 4, trim-tips.
func scanTrim(ix *kindex.Index, cfg Config, seq []byte, sc *kmer.Scanner, startR, stopL int) ScanOutcome {
	k := ix.Config.K
	l := len(seq)
	out := ScanOutcome{TrimStart: 0, TrimEnd: l, BestScaffold: -1}

	doRight := cfg.Mode == ModeKTrimRight || cfg.Mode == ModeKTrimBoth
	doLeft := cfg.Mode == ModeKTrimLeft || cfg.Mode == ModeKTrimBoth

	firstHit, lastHit := -1, -1
	sc.Reset(seq)
	for sc.Scan() {
		w := sc.Get()
		if w.Pos < startR || w.Pos >= stopL {
			continue
		}
		if _, found := ix.Query(w.ForwardBits, w.ReverseBits, k, cfg.QHDist); !found {
			continue
		}
		i := w.Pos + k - 1
		if firstHit == -1 {
			firstHit = i
		}
		lastHit = i
	}

	if doRight {
		if firstHit != -1 {
			end := rightTrimBoundary(firstHit, k, cfg.TrimPad, cfg.KTrimExclusive)
			if end < out.TrimEnd {
				out.TrimEnd = end
			}
		} else if ix.Config.UseShortKmers {
			if end, ok := shortKmerRightProbe(ix, cfg, seq); ok && end < out.TrimEnd {
				out.TrimEnd = end
			}
		}
	}
	if doLeft {
		if lastHit != -1 {
			start := leftTrimBoundary(lastHit, cfg.TrimPad, cfg.KTrimExclusive)
			if start > out.TrimStart {
				out.TrimStart = start
			}
		} else if ix.Config.UseShortKmers {
			if start, ok := shortKmerLeftProbe(ix, cfg, seq); ok && start > out.TrimStart {
				out.TrimStart = start
			}
		}
	}

	if out.TrimStart < 0 {
		out.TrimStart = 0
	}
	if out.TrimEnd > l {
		out.TrimEnd = l
	}
	if out.TrimStart >= out.TrimEnd {
		out.TrimStart, out.TrimEnd = 0, 0
	}
	return out
}

func rightTrimBoundary(i, ell, trimPad int, exclusive bool) int {
	if exclusive {
		return i - ell + 2
	}
	return i - ell + 1 - trimPad
}

func leftTrimBoundary(i, trimPad int, exclusive bool) int {
	if exclusive {
		return i + 1
	}
	return i + trimPad + 1
}

// shortKmerLeftProbe re-scans the left edge with shrinking windows from
// length k-1 down to minK, per spec.md §4.5 mode 4's useShortKmers fallback.
func shortKmerLeftProbe(ix *kindex.Index, cfg Config, seq []byte) (int, bool) {
	a := ix.Alphabet
	for ell := ix.Config.K - 1; ell >= ix.Config.MinK; ell-- {
		if ell <= 0 || ell > len(seq) {
			continue
		}
		fwd, rev, ok := kmer.EncodeWindow(a, seq[:ell])
		if !ok {
			continue
		}
		if _, found := ix.Query(fwd, rev, ell, cfg.QHDist2); found {
			return leftTrimBoundary(ell-1, cfg.TrimPad, cfg.KTrimExclusive), true
		}
	}
	return 0, false
}

func shortKmerRightProbe(ix *kindex.Index, cfg Config, seq []byte) (int, bool) {
	a := ix.Alphabet
	l := len(seq)
	for ell := ix.Config.K - 1; ell >= ix.Config.MinK; ell-- {
		if ell <= 0 || ell > l {
			continue
		}
		fwd, rev, ok := kmer.EncodeWindow(a, seq[l-ell:])
		if !ok {
			continue
		}
		if _, found := ix.Query(fwd, rev, ell, cfg.QHDist2); found {
			return rightTrimBoundary(l-1, ell, cfg.TrimPad, cfg.KTrimExclusive), true
		}
	}
	return l, false
}
