package harness

import (
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/bbduk/kindex"
)

// RefRecord is one reference sequence presented to the build side of the
// harness, named but not yet interned: interning happens once, in the
// single producer goroutine, per kindex.ReferenceRecord's documented
// requirement.
type RefRecord struct {
	Name string
	Seq  []byte
}

// RefBatch is a producer-assigned group of reference records. The batch
// id is unused on the build side (build has no ordered output) but is
// kept symmetric with Batch for callers that want to log progress.
type RefBatch struct {
	ID   uint64
	Refs []RefRecord
}

// RefSource streams RefBatches, the way a FASTA reader over a reference
// or contaminant-literal file would, without this package knowing
// anything about file formats (spec.md §1's codec non-goal).
type RefSource interface {
	// Next returns the next batch, or ok=false once exhausted.
	Next() (batch RefBatch, ok bool)
	// Err returns any error observed by the source; checked after Next
	// returns ok=false.
	Err() error
}

// BuildIndex runs the §4.7 build side: a single producer reads batches
// from src and interns each record's scaffold id, then broadcasts the
// batch (now holding kindex.ReferenceRecords) to cfg.Ways per-shard loader
// goroutines. Each loader regenerates every KeyEvent independently via its
// own kindex.Builder and keeps only the events owning its shard, per
// kindex.Index.ShardOf — deliberately redundant work that avoids any
// synchronization between loaders, the same trade spec.md §4.7 describes.
func BuildIndex(cfg kindex.Config, src RefSource) (*kindex.Index, error) {
	ix := kindex.NewIndex(cfg)
	w := ix.NumShards()

	loaderCh := make([]chan []kindex.ReferenceRecord, w)
	for i := range loaderCh {
		loaderCh[i] = make(chan []kindex.ReferenceRecord, 4)
	}

	var wg sync.WaitGroup
	for shard := 0; shard < w; shard++ {
		wg.Add(1)
		go func(shard int) {
			defer wg.Done()
			b := kindex.NewBuilder(cfg, ix.Alphabet)
			for batch := range loaderCh[shard] {
				for _, rec := range batch {
					seqs := [][]byte{rec.Seq}
					if cfg.ReplicateAmbiguous {
						seqs = kindex.ExpandAmbiguous(rec.Seq)
					}
					for _, seq := range seqs {
						b.Keys(seq, func(ev kindex.KeyEvent) {
							if ix.ShardOf(ev.Key) != shard {
								return
							}
							ix.Insert(ev, rec.ScaffoldID)
						})
					}
				}
			}
		}(shard)
	}

	for {
		batch, ok := src.Next()
		if !ok {
			break
		}
		recs := make([]kindex.ReferenceRecord, len(batch.Refs))
		for i, ref := range batch.Refs {
			id := ix.Scaffolds.InternOrLookup(ref.Name, len(ref.Seq))
			recs[i] = kindex.ReferenceRecord{ScaffoldID: id, Seq: ref.Seq}
		}
		for shard := 0; shard < w; shard++ {
			loaderCh[shard] <- recs
		}
	}
	for shard := range loaderCh {
		close(loaderCh[shard])
	}
	wg.Wait()

	var once errors.Once
	once.Set(src.Err())
	if err := once.Err(); err != nil {
		return nil, err
	}
	return ix, nil
}
