package kindex

import "github.com/grailbio/base/log"

// iupacExpansion maps an IUPAC ambiguity code to the set of concrete bases
// it represents. Plain A/C/G/T are intentionally absent: ExpandAmbiguous
// only needs to special-case symbols outside the core 4-letter alphabet.
var iupacExpansion = map[byte][]byte{
	'R': {'A', 'G'},
	'Y': {'C', 'T'},
	'S': {'G', 'C'},
	'W': {'A', 'T'},
	'K': {'G', 'T'},
	'M': {'A', 'C'},
	'B': {'C', 'G', 'T'},
	'D': {'A', 'G', 'T'},
	'H': {'A', 'C', 'T'},
	'V': {'A', 'C', 'G'},
	'N': {'A', 'C', 'G', 'T'},
}

// maxAmbiguousExpansions bounds the cross-product expansion performed by
// ExpandAmbiguous, per spec.md §9's general guidance that combinatorial
// expansion must be capped. A reference with many ambiguous positions
// would otherwise expand exponentially.
const maxAmbiguousExpansions = 64

// ExpandAmbiguous implements spec.md §4.3's "replicateAmbiguous" policy:
// a reference containing ambiguous symbols is expanded into the
// cross-product of unambiguous sequences. The expansion is capped at
// maxAmbiguousExpansions; if the true cross-product is larger, a warning
// is logged and only the first maxAmbiguousExpansions variants (in
// lexicographic order of substitution choice) are returned.
func ExpandAmbiguous(seq []byte) [][]byte {
	var ambigPos []int
	var options [][]byte
	for i, ch := range seq {
		up := upper(ch)
		if opts, ok := iupacExpansion[up]; ok {
			ambigPos = append(ambigPos, i)
			options = append(options, opts)
		}
	}
	if len(ambigPos) == 0 {
		return [][]byte{seq}
	}

	total := 1
	truncated := false
	for _, opts := range options {
		total *= len(opts)
		if total > maxAmbiguousExpansions {
			truncated = true
			break
		}
	}
	if truncated {
		log.Error.Printf("kindex: ambiguous-base expansion capped at %d variants (sequence has %d ambiguous positions)", maxAmbiguousExpansions, len(ambigPos))
	}

	var results [][]byte
	choice := make([]int, len(ambigPos))
	for len(results) < maxAmbiguousExpansions {
		variant := make([]byte, len(seq))
		copy(variant, seq)
		for j, pos := range ambigPos {
			variant[pos] = options[j][choice[j]]
		}
		results = append(results, variant)

		// Odometer-increment choice; stop once it wraps back to all zero.
		i := len(choice) - 1
		for i >= 0 {
			choice[i]++
			if choice[i] < len(options[i]) {
				break
			}
			choice[i] = 0
			i--
		}
		if i < 0 {
			break
		}
	}
	return results
}

func upper(ch byte) byte {
	if ch >= 'a' && ch <= 'z' {
		return ch - ('a' - 'A')
	}
	return ch
}
