package bbduk

import (
	"github.com/biogo/store/interval"

	"github.com/grailbio/bbduk/kindex"
	"github.com/grailbio/bbduk/kmer"
)

// hitWindow is one k-mer-hit masked window, half-open [start, end), stored
// in an interval.IntTree the way kortschak-loopy's readAnnotations stores
// GFF features: Insert each window as it is discovered, call AdjustRanges
// once, then query the whole union back out.
type hitWindow struct {
	start, end int
	id         uintptr
}

func (h hitWindow) ID() uintptr { return h.id }
func (h hitWindow) Range() interval.IntRange {
	return interval.IntRange{Start: h.start, End: h.end}
}
func (h hitWindow) Overlap(b interval.IntRange) bool {
	return h.end > b.Start && h.start < b.End
}

// fullRangeQuery is a synthetic IntInterface covering [0, L), used solely to
// pull every stored hitWindow back out of the tree via Get.
type fullRangeQuery struct{ r interval.IntRange }

func (q fullRangeQuery) ID() uintptr              { return 0 }
func (q fullRangeQuery) Range() interval.IntRange { return q.r }
func (q fullRangeQuery) Overlap(interval.IntRange) bool { return true }

// collectHitWindows scans seq for k-mer hits restricted to [startR, stopL)
// and returns each hit's padded window as an interval tree, per spec.md
// §4.5 modes 5-6's "set bits [max(0, i-k+1-trimPad), min(L, i+1+trimPad))".
func collectHitWindows(ix *kindex.Index, cfg Config, seq []byte, sc *kmer.Scanner, startR, stopL int) *interval.IntTree {
	k := ix.Config.K
	L := len(seq)
	t := &interval.IntTree{}
	var nextID uintptr
	sc.Reset(seq)
	for sc.Scan() {
		w := sc.Get()
		if w.Pos < startR || w.Pos >= stopL {
			continue
		}
		_, found := ix.Query(w.ForwardBits, w.ReverseBits, k, cfg.QHDist)
		if !found {
			continue
		}
		i := w.Pos + k - 1
		lo := i - k + 1 - cfg.TrimPad
		hi := i + 1 + cfg.TrimPad
		if lo < 0 {
			lo = 0
		}
		if hi > L {
			hi = L
		}
		if lo >= hi {
			continue
		}
		nextID++
		t.Insert(hitWindow{lo, hi, nextID}, true)
	}
	t.AdjustRanges()
	return t
}

// rasterizeMask flattens an interval tree of hit windows into a per-base
// bool slice. invert implements kmaskFullyCovered's inversion: positions
// start masked and are un-masked by a hit.
func rasterizeMask(t *interval.IntTree, L int, invert bool) []bool {
	mask := make([]bool, L)
	if invert {
		for i := range mask {
			mask[i] = true
		}
	}
	for _, iv := range t.Get(fullRangeQuery{interval.IntRange{Start: 0, End: L}}) {
		h := iv.(hitWindow)
		for p := h.start; p < h.end; p++ {
			mask[p] = !invert
		}
	}
	return mask
}

// ApplyMask implements the ktrimN disposal described in spec.md §4.5 mode
// 5: masked bases are either lowercased in place or overwritten with
// cfg.MaskSymbol, with the corresponding quality byte (if present) zeroed.
func ApplyMask(seq, qual []byte, mask []bool, cfg Config) {
	for i, m := range mask {
		if !m {
			continue
		}
		if cfg.MaskLowercase {
			seq[i] = toLowerASCII(seq[i])
		} else {
			seq[i] = cfg.MaskSymbol
		}
		if qual != nil {
			qual[i] = 0
		}
	}
}

func toLowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
