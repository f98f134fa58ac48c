package bbduk

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// normalizedEntropy computes the Shannon entropy of a window's base
// composition via gonum/stat.Entropy, normalized to [0, 1] by the maximum
// possible entropy for a 4-symbol alphabet (log 4), matching the
// composition-based low-complexity detector used throughout spec.md §4.6
// (entropy mask/trim/mark, standalone entropy filter). A window of all one
// base scores 0; a perfectly uniform ACGT window scores 1.
func normalizedEntropy(window []byte) float64 {
	if len(window) == 0 {
		return 1
	}
	var counts [256]int
	for _, b := range window {
		counts[toUpperASCII(b)]++
	}
	p := make([]float64, 0, 4)
	for _, c := range counts {
		if c > 0 {
			p = append(p, float64(c)/float64(len(window)))
		}
	}
	return stat.Entropy(p) / math.Log(4)
}

func toUpperASCII(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// EntropyMaskWindows implements spec.md §4.6 step 5's sliding-window
// entropy mask: every base covered by at least one window whose
// normalized entropy falls below cutoff is flagged.
func EntropyMaskWindows(seq []byte, window int, cutoff float64) []bool {
	l := len(seq)
	mask := make([]bool, l)
	if window <= 0 || window > l {
		window = l
	}
	if window == 0 {
		return mask
	}
	for start := 0; start+window <= l; start++ {
		if normalizedEntropy(seq[start:start+window]) < cutoff {
			for p := start; p < start+window; p++ {
				mask[p] = true
			}
		}
	}
	return mask
}

// EntropyTrimRange implements the entropy-trim variant: low-complexity runs
// are cropped from each end inward (rather than masked in place), stopping
// as soon as a window clears the cutoff.
func EntropyTrimRange(seq []byte, window int, cutoff float64) (start, end int) {
	l := len(seq)
	start, end = 0, l
	if window <= 0 || window > l {
		return start, end
	}
	for start+window <= end {
		if normalizedEntropy(seq[start:start+window]) >= cutoff {
			break
		}
		start++
	}
	for end-window >= start {
		if normalizedEntropy(seq[end-window:end]) >= cutoff {
			break
		}
		end--
	}
	if start > end {
		start = end
	}
	return start, end
}

// LowEntropy reports whether seq as a whole (the standalone final-filter
// cutoff, or the entropy-mark mode's per-read annotation) is below cutoff.
func LowEntropy(seq []byte, cutoff float64) bool {
	return normalizedEntropy(seq) < cutoff
}
