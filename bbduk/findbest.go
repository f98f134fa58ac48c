package bbduk

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/grailbio/bbduk/kindex"
)

// scaffoldCount is one candidate in the find-best-match tally.
type scaffoldCount struct {
	ID    int32
	Count int
}

// rankScaffoldCounts orders candidates by descending count, tied by
// ascending scaffold id, via slices.SortFunc so the outcome is independent
// of Go's randomized map iteration order (spec.md §8: "Find-best-match is
// scaffold-order-stable: ties yield the lowest scaffold id").
func rankScaffoldCounts(counts map[int32]int) []scaffoldCount {
	ranked := make([]scaffoldCount, 0, len(counts))
	for id, c := range counts {
		ranked = append(ranked, scaffoldCount{ID: id, Count: c})
	}
	slices.SortFunc(ranked, func(a, b scaffoldCount) bool {
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.ID < b.ID
	})
	return ranked
}

// FindBestMatchAnnotation renders the "\tname=count" suffix appended to a
// read id in find-best-match mode (spec.md §4.5 mode 3).
func FindBestMatchAnnotation(reg *kindex.ScaffoldRegistry, counts map[int32]int) string {
	ranked := rankScaffoldCounts(counts)
	if len(ranked) == 0 {
		return ""
	}
	best := ranked[0]
	return fmt.Sprintf("\t%s=%d", reg.Info(best.ID).Name, best.Count)
}
