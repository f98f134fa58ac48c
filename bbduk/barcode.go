package bbduk

import "github.com/antzucaro/matchr"

// BarcodeValid implements the initial-filters barcode-validity check
// (spec.md §4.6 step 2): a barcode is valid if it is within maxEditDist of
// any entry in the whitelist, via the standard Levenshtein distance the
// same way util.Levenshtein's own tests cross-check matchr.Levenshtein
// (util/distance_test.go). The grailbio-specific downstream-sequence
// variant in util.Levenshtein exists to absorb adapter read-through; the
// plain matchr distance is used here because the pipeline already trims
// adapters before this filter runs.
func BarcodeValid(barcode string, whitelist []string, maxEditDist int) bool {
	if len(whitelist) == 0 {
		return true
	}
	for _, known := range whitelist {
		if matchr.Levenshtein(barcode, known) <= maxEditDist {
			return true
		}
	}
	return false
}
