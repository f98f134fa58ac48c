package bbduk

// quantizeBins are the quality-score bucket boundaries used by
// QuantizeQuality, matching the small-alphabet binning common to
// instrument-level quality compression (e.g. Illumina's 4-level scheme).
var quantizeBins = []byte{2, 11, 25, 37}

// QualityTrimRight implements spec.md §4.6 step 5's "quality trim
// (modified-Phred running sum)" from the 3' end: walk from the last base
// backward accumulating (cutoff - phred) and remember the leftmost position
// at which the running sum peaked, the same running-sum algorithm used by
// BWA's -q and cutadapt's 3' quality trim.
func QualityTrimRight(qual []byte, offset int, cutoff float64) int {
	l := len(qual)
	maxPos := l
	var sum, maxSum float64
	for i := l - 1; i >= 0; i-- {
		q := float64(qual[i]) - float64(offset)
		sum += cutoff - q
		if sum < 0 {
			break
		}
		if sum > maxSum {
			maxSum = sum
			maxPos = i
		}
	}
	return maxPos
}

// QualityTrimLeft is QualityTrimRight's mirror for the 5' end.
func QualityTrimLeft(qual []byte, offset int, cutoff float64) int {
	l := len(qual)
	maxPos := 0
	var sum, maxSum float64
	for i := 0; i < l; i++ {
		q := float64(qual[i]) - float64(offset)
		sum += cutoff - q
		if sum < 0 {
			break
		}
		if sum > maxSum {
			maxSum = sum
			maxPos = i + 1
		}
	}
	return maxPos
}

// AverageQuality returns the mean Phred score, or 0 for an empty/absent
// quality track.
func AverageQuality(qual []byte, offset int) float64 {
	if len(qual) == 0 {
		return 0
	}
	var sum int
	for _, q := range qual {
		sum += int(q) - offset
	}
	return float64(sum) / float64(len(qual))
}

// MinBaseQuality returns the lowest Phred score in qual.
func MinBaseQuality(qual []byte, offset int) float64 {
	if len(qual) == 0 {
		return 0
	}
	min := int(qual[0]) - offset
	for _, q := range qual[1:] {
		if v := int(q) - offset; v < min {
			min = v
		}
	}
	return float64(min)
}

// QuantizeQuality rounds every quality byte down to its bin (scores below
// the lowest bin are raised to that bin), implementing
// the optional quality-quantization step applied to survivors in spec.md
// §4.6 step 6.
func QuantizeQuality(qual []byte, offset int) {
	for i, q := range qual {
		phred := int(q) - offset
		bin := quantizeBins[0]
		for _, b := range quantizeBins {
			if phred >= int(b) {
				bin = b
			}
		}
		qual[i] = bin + byte(offset)
	}
}
