// Package harness implements the concurrent build/query orchestration
// described in spec.md §4.7: a single producer broadcasting reference
// batches to W per-shard build loaders, T query workers each cloning a
// bbduk.Processor, and three ordered output writers that restore batch
// order after concurrent processing. It follows the teacher's own
// hand-rolled goroutine-plus-channel idiom (cmd/bio-fusion/main.go's
// processFASTQ, fusion/gene_db.go's ReadTranscriptome) rather than a
// worker-pool library: channel close is the poison sentinel, a
// sync.WaitGroup is the join point, and github.com/grailbio/base/errors.Once
// is the accumulator for the multiple independent close/flush errors a
// teardown can raise at once.
package harness

import "sync"

// errFlag is the "shared global error flag" spec.md §7 describes: once
// set, every goroutine still reading its input channel drains without
// processing and exits, rather than retrying or partially recovering.
type errFlag struct {
	mu  sync.Mutex
	err error
}

func (f *errFlag) set(err error) {
	if err == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err == nil {
		f.err = err
	}
}

func (f *errFlag) isSet() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err != nil
}

func (f *errFlag) get() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
