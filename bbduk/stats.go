package bbduk

import (
	"fmt"
	"sync"
)

// Stats accumulates the "final summary line with counters" required by
// spec.md §7, per-thread during the run and merged at the end, mirroring
// markduplicates.Metrics's Add/Merge shape.
type Stats struct {
	ReadsIn, BasesIn   int64
	ReadsOut, BasesOut int64

	ForceTrimmedReads   int64
	InitialFilterFailed int64
	KmerFiltered        int64
	KmerTrimmedReads    int64
	KmerTrimmedBases    int64
	OverlapTrimmedReads int64
	OverlapTrimmedBases int64
	PolymerTrimmedBases int64
	EntropyFiltered     int64
	QualityTrimmedBases int64
	FinalFilterFailed   int64

	MatchedReads   int64
	SingletonReads int64
	UnmatchedReads int64
}

// Add accumulates other into s.
func (s *Stats) Add(other *Stats) {
	s.ReadsIn += other.ReadsIn
	s.BasesIn += other.BasesIn
	s.ReadsOut += other.ReadsOut
	s.BasesOut += other.BasesOut
	s.ForceTrimmedReads += other.ForceTrimmedReads
	s.InitialFilterFailed += other.InitialFilterFailed
	s.KmerFiltered += other.KmerFiltered
	s.KmerTrimmedReads += other.KmerTrimmedReads
	s.KmerTrimmedBases += other.KmerTrimmedBases
	s.OverlapTrimmedReads += other.OverlapTrimmedReads
	s.OverlapTrimmedBases += other.OverlapTrimmedBases
	s.PolymerTrimmedBases += other.PolymerTrimmedBases
	s.EntropyFiltered += other.EntropyFiltered
	s.QualityTrimmedBases += other.QualityTrimmedBases
	s.FinalFilterFailed += other.FinalFilterFailed
	s.MatchedReads += other.MatchedReads
	s.SingletonReads += other.SingletonReads
	s.UnmatchedReads += other.UnmatchedReads
}

// String renders the summary line spec.md §7 requires on completion.
func (s *Stats) String() string {
	return fmt.Sprintf(
		"reads_in=%d bases_in=%d reads_out=%d bases_out=%d kmer_filtered=%d "+
			"kmer_trimmed_reads=%d entropy_filtered=%d final_filter_failed=%d "+
			"matched=%d singleton=%d unmatched=%d",
		s.ReadsIn, s.BasesIn, s.ReadsOut, s.BasesOut, s.KmerFiltered,
		s.KmerTrimmedReads, s.EntropyFiltered, s.FinalFilterFailed,
		s.MatchedReads, s.SingletonReads, s.UnmatchedReads)
}

// StatsCollection merges per-worker Stats into one global total, guarded by
// a mutex the way markduplicates.MetricsCollection.Merge is: spec.md §4.7's
// "worker count < 4" branch of the scaffold-counter merge policy, applied
// here to run-wide counters rather than per-scaffold ones.
type StatsCollection struct {
	mu    sync.Mutex
	Total Stats
}

// Merge folds a worker's final Stats into the collection's Total.
func (c *StatsCollection) Merge(s *Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Total.Add(s)
}
