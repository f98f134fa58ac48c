package harness

import (
	"io"
	"sync"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/bbduk/bbduk"
	"github.com/klauspost/compress/gzip"
)

// RecordWriter formats one read onto the underlying stream. harness never
// interprets FASTA/FASTQ framing itself (spec.md §1's codec non-goal);
// callers supply the format the same way they supply a BatchSource for
// input.
type RecordWriter func(w io.Writer, r *bbduk.Read) error

// pendingBatch is one not-yet-flushed worker result, ordered by batch id
// the way cmd/bio-bam-sort/sorter's mergeLeaf orders shard readers by
// sort key: llrb.Tree needs only a Compare method, not a full sort.Interface.
type pendingBatch struct {
	id    uint64
	reads []*bbduk.Read
}

func (b *pendingBatch) Compare(c llrb.Comparable) int {
	other := c.(*pendingBatch)
	switch {
	case b.id < other.id:
		return -1
	case b.id > other.id:
		return 1
	default:
		return 0
	}
}

// ChannelWriter restores producer batch order across T concurrent query
// workers before formatting reads onto a compressed sink, exactly the
// role internalMergeShards' llrb.Tree reorder buffer plays for
// out-of-order shard merge: out-of-order Submit calls are buffered in the
// tree and only flushed once the next expected batch id is the smallest id
// in the tree.
//
// When Ordered is false, Submit flushes every batch immediately in
// arrival order instead (read order within a batch is still preserved),
// matching spec.md §4.7's "ordered=false" relaxation.
type ChannelWriter struct {
	Ordered bool

	mu     sync.Mutex
	out    io.WriteCloser
	format RecordWriter
	tree   llrb.Tree
	next   uint64
	err    errors.Once
}

// NewChannelWriter wraps sink with gzip compression (the teacher's
// klauspost/compress drop-in, e.g. pileup/common.go) and formats each
// flushed read with format.
func NewChannelWriter(sink io.Writer, format RecordWriter) *ChannelWriter {
	return &ChannelWriter{
		out:    gzip.NewWriter(sink),
		format: format,
	}
}

// Submit hands a worker's per-batch result to the writer. Safe for
// concurrent callers; batches may arrive in any order.
func (w *ChannelWriter) Submit(id uint64, reads []*bbduk.Read) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.Ordered {
		w.flush(reads)
		return
	}

	w.tree.Insert(&pendingBatch{id: id, reads: reads})
	for w.tree.Len() > 0 {
		var head *pendingBatch
		w.tree.Do(func(c llrb.Comparable) bool {
			head = c.(*pendingBatch)
			return true
		})
		if head.id != w.next {
			break
		}
		w.tree.DeleteMin()
		w.flush(head.reads)
		w.next++
	}
}

func (w *ChannelWriter) flush(reads []*bbduk.Read) {
	for _, r := range reads {
		if err := w.format(w.out, r); err != nil {
			w.err.Set(err)
			return
		}
	}
}

// Close flushes the gzip trailer, returning the first error observed
// across every Submit/Close call. It does not close the underlying sink;
// the caller that opened the sink closes it.
func (w *ChannelWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err.Set(w.out.Close())
	return w.err.Err()
}

// Pending reports how many out-of-order batches are currently buffered
// waiting for earlier batches to arrive, for callers monitoring backlog.
func (w *ChannelWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tree.Len()
}
