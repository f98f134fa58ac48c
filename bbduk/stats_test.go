package bbduk

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsAddAccumulates(t *testing.T) {
	total := Stats{ReadsIn: 10, BasesIn: 100, MatchedReads: 2}
	delta := Stats{ReadsIn: 5, BasesIn: 50, MatchedReads: 1, UnmatchedReads: 3}
	total.Add(&delta)

	assert.Equal(t, int64(15), total.ReadsIn)
	assert.Equal(t, int64(150), total.BasesIn)
	assert.Equal(t, int64(3), total.MatchedReads)
	assert.Equal(t, int64(3), total.UnmatchedReads)
}

func TestStatsCollectionMergeIsConcurrencySafe(t *testing.T) {
	var c StatsCollection
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := Stats{ReadsIn: 1}
			c.Merge(&s)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(20), c.Total.ReadsIn)
}

func TestStatsStringIncludesCounters(t *testing.T) {
	s := Stats{ReadsIn: 4, MatchedReads: 1}
	out := s.String()
	assert.Contains(t, out, "reads_in=4")
	assert.Contains(t, out, "matched=1")
}
