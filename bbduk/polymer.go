package bbduk

// PolymerTrimRange implements spec.md §4.6 step 5's polymer trim/filter:
// a homopolymer run of the given base is located at the appropriate end of
// the read (poly-A and the right-side G/C variants anchor to the 3' end,
// the left-side G/C variants anchor to the 5' end), tolerating up to
// maxNonPoly interrupting bases counted from that end; the trim boundary
// only moves once at least minRun matching bases have been seen.
func PolymerTrimRange(seq []byte, base PolymerBase, minRun, maxNonPoly int) (start, end int) {
	l := len(seq)
	start, end = 0, l
	switch base {
	case PolymerA:
		end = polymerBoundaryFromRight(seq, 'A', minRun, maxNonPoly)
	case PolymerGRight:
		end = polymerBoundaryFromRight(seq, 'G', minRun, maxNonPoly)
	case PolymerCRight:
		end = polymerBoundaryFromRight(seq, 'C', minRun, maxNonPoly)
	case PolymerGLeft:
		start = polymerBoundaryFromLeft(seq, 'G', minRun, maxNonPoly)
	case PolymerCLeft:
		start = polymerBoundaryFromLeft(seq, 'C', minRun, maxNonPoly)
	}
	return start, end
}

// polymerBoundaryFromRight walks the read from its 3' end, extending the
// candidate run through interruptions (up to maxNonPoly of them) and
// remembering the leftmost boundary seen once the run has reached minRun
// matches.
func polymerBoundaryFromRight(seq []byte, base byte, minRun, maxNonPoly int) int {
	boundary := len(seq)
	matched, nonPoly := 0, 0
	for i := len(seq) - 1; i >= 0; i-- {
		if toUpperASCII(seq[i]) == base {
			matched++
		} else {
			nonPoly++
			if nonPoly > maxNonPoly {
				break
			}
		}
		if matched >= minRun {
			boundary = i
		}
	}
	return boundary
}

func polymerBoundaryFromLeft(seq []byte, base byte, minRun, maxNonPoly int) int {
	boundary := 0
	matched, nonPoly := 0, 0
	for i := 0; i < len(seq); i++ {
		if toUpperASCII(seq[i]) == base {
			matched++
		} else {
			nonPoly++
			if nonPoly > maxNonPoly {
				break
			}
		}
		if matched >= minRun {
			boundary = i + 1
		}
	}
	return boundary
}
