package harness

import (
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/bbduk/bbduk"
	"github.com/grailbio/bbduk/kindex"
)

// Batch is a producer-assigned group of read pairs, the query-side analog
// of RefBatch. Its ID is load-bearing here: the three ChannelWriters use
// it to restore the producer's order after T workers process batches
// concurrently, per spec.md §4.7.
type Batch struct {
	ID    uint64
	Pairs []*bbduk.Pair
}

// BatchSource streams read-pair Batches, the way a paired-FASTQ reader
// would, without this package knowing anything about file formats.
type BatchSource interface {
	Next() (batch Batch, ok bool)
	Err() error
}

// Writers bundles the three ordered output sinks spec.md §4.7 describes.
// A nil entry means that channel's output is discarded.
type Writers struct {
	Unmatched *ChannelWriter
	Matched   *ChannelWriter
	Singleton *ChannelWriter
}

func (w Writers) submit(id uint64, unmatched, matched, singleton []*bbduk.Read) {
	if w.Unmatched != nil {
		w.Unmatched.Submit(id, unmatched)
	}
	if w.Matched != nil {
		w.Matched.Submit(id, matched)
	}
	if w.Singleton != nil {
		w.Singleton.Submit(id, singleton)
	}
}

// RunFilter runs the §4.7 query side: workers query workers, each owning
// its own bbduk.Processor clone, pull whole batches from src, run every
// pair through the per-read pipeline, and submit the resulting per-channel
// sub-lists to out, tagged with the batch id so out can restore producer
// order. It returns the merged run-wide Stats.
func RunFilter(ix *kindex.Index, cfg bbduk.Config, overlap bbduk.OverlapMerger, workers int, src BatchSource, out Writers) (bbduk.Stats, error) {
	if workers <= 0 {
		workers = 1
	}
	batchCh := make(chan Batch, 32)
	var errs errFlag
	var wg sync.WaitGroup
	procs := make([]*bbduk.Processor, workers)
	for i := range procs {
		procs[i] = bbduk.NewProcessor(ix, cfg)
		procs[i].Overlap = overlap
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(p *bbduk.Processor) {
			defer wg.Done()
			for batch := range batchCh {
				if errs.isSet() {
					continue
				}
				var unmatched, matched, singleton []*bbduk.Read
				for _, pair := range batch.Pairs {
					d := p.Process(pair)
					route(&unmatched, &matched, &singleton, pair.R1, d.R1)
					route(&unmatched, &matched, &singleton, pair.R2, d.R2)
				}
				out.submit(batch.ID, unmatched, matched, singleton)
			}
		}(procs[i])
	}

	for {
		batch, ok := src.Next()
		if !ok {
			break
		}
		batchCh <- batch
	}
	close(batchCh)
	wg.Wait()

	var once errors.Once
	once.Set(src.Err())
	once.Set(errs.get())
	if err := once.Err(); err != nil {
		return bbduk.Stats{}, err
	}

	// Fold every worker's final Stats into one run-wide total. Each
	// Processor's Stats is private to its own worker goroutine until this
	// point, so the merge itself is safe to fan out across
	// traverse.Each's bounded pool, per spec.md §4.7's "merge per-thread
	// state at run end".
	var total bbduk.StatsCollection
	if err := traverse.Each(len(procs), func(i int) error {
		total.Merge(&procs[i].Stats)
		return nil
	}); err != nil {
		return bbduk.Stats{}, err
	}
	return total.Total, nil
}

func route(unmatched, matched, singleton *[]*bbduk.Read, r *bbduk.Read, ch bbduk.Channel) {
	if r == nil || ch == bbduk.ChannelNone {
		return
	}
	switch ch {
	case bbduk.ChannelUnmatched:
		*unmatched = append(*unmatched, r)
	case bbduk.ChannelMatched:
		*matched = append(*matched, r)
	case bbduk.ChannelSingleton:
		*singleton = append(*singleton, r)
	}
}
