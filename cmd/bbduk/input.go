package main

import (
	"context"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/bbduk/bbduk"
	"github.com/grailbio/bbduk/bbduk/harness"
	"github.com/grailbio/bbduk/encoding/fasta"
	"github.com/grailbio/bbduk/encoding/fastq"
)

// openMaybeCompressed opens path and transparently unwraps gzip/bgzip
// compression, matching cmd/bio-fusion/main.go's readFASTQ.
func openMaybeCompressed(ctx context.Context, path string) (f file.File, r io.Reader, err error) {
	f, err = file.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	r = f.Reader(ctx)
	if u := compress.NewReaderPath(r, f.Name()); u != nil {
		r = u
	}
	return f, r, nil
}

// fastaRefSource reads every sequence out of one or more reference FASTA
// files and presents them as RefBatches of one, in scaffold-registration
// order, since index interning order only needs to be deterministic, not
// batched for throughput (reference sets are orders of magnitude smaller
// than read sets).
type fastaRefSource struct {
	ctx   context.Context
	paths []string

	pathIdx int
	fa      fasta.Fasta
	names   []string
	nameIdx int
	nextID  uint64
	err     error
}

func newFastaRefSource(ctx context.Context, paths []string) *fastaRefSource {
	return &fastaRefSource{ctx: ctx, paths: paths}
}

func (s *fastaRefSource) Next() (harness.RefBatch, bool) {
	for {
		if s.fa == nil {
			if s.pathIdx >= len(s.paths) {
				return harness.RefBatch{}, false
			}
			_, r, err := openMaybeCompressed(s.ctx, s.paths[s.pathIdx])
			if err != nil {
				s.err = err
				return harness.RefBatch{}, false
			}
			s.pathIdx++
			fa, err := fasta.New(r)
			if err != nil {
				s.err = err
				return harness.RefBatch{}, false
			}
			s.fa = fa
			s.names = fa.SeqNames()
			s.nameIdx = 0
		}
		if s.nameIdx >= len(s.names) {
			s.fa = nil
			continue
		}
		name := s.names[s.nameIdx]
		s.nameIdx++
		length, err := s.fa.Len(name)
		if err != nil {
			s.err = err
			return harness.RefBatch{}, false
		}
		seq, err := s.fa.Get(name, 0, length)
		if err != nil {
			s.err = err
			return harness.RefBatch{}, false
		}
		id := s.nextID
		s.nextID++
		return harness.RefBatch{ID: id, Refs: []harness.RefRecord{{Name: name, Seq: []byte(seq)}}}, true
	}
}

func (s *fastaRefSource) Err() error { return s.err }

// fastqBatchSource pairs two FASTQ streams (R2 may be absent for unpaired
// input) and groups them into fixed-size Batches, the unit the harness
// reorders on. batchSize mirrors cmd/bio-fusion/main.go's readFASTQ
// progress-log granularity, repurposed here as the unit of concurrency
// instead of a log cadence.
type fastqBatchSource struct {
	sc        *fastq.PairScanner
	single    *fastq.Scanner
	batchSize int

	nextBatchID uint64
	nextReadID  uint64
	err         error
}

func newPairedBatchSource(r1, r2 io.Reader, batchSize int) *fastqBatchSource {
	return &fastqBatchSource{
		sc:        fastq.NewPairScanner(r1, r2, fastq.ID|fastq.Seq|fastq.Qual),
		batchSize: batchSize,
	}
}

func newUnpairedBatchSource(r1 io.Reader, batchSize int) *fastqBatchSource {
	return &fastqBatchSource{
		single:    fastq.NewScanner(r1, fastq.ID|fastq.Seq|fastq.Qual),
		batchSize: batchSize,
	}
}

func (s *fastqBatchSource) Next() (harness.Batch, bool) {
	var pairs []*bbduk.Pair
	for len(pairs) < s.batchSize {
		pair, ok := s.scanOne()
		if !ok {
			break
		}
		pairs = append(pairs, pair)
	}
	if len(pairs) == 0 {
		return harness.Batch{}, false
	}
	id := s.nextBatchID
	s.nextBatchID++
	return harness.Batch{ID: id, Pairs: pairs}, true
}

func (s *fastqBatchSource) scanOne() (*bbduk.Pair, bool) {
	if s.sc != nil {
		var r1, r2 fastq.Read
		if !s.sc.Scan(&r1, &r2) {
			return nil, false
		}
		return &bbduk.Pair{R1: s.toRead(&r1), R2: s.toRead(&r2)}, true
	}
	var r1 fastq.Read
	if !s.single.Scan(&r1) {
		return nil, false
	}
	return &bbduk.Pair{R1: s.toRead(&r1)}, true
}

func (s *fastqBatchSource) toRead(r *fastq.Read) *bbduk.Read {
	id := s.nextReadID
	s.nextReadID++
	return &bbduk.Read{
		ID:        r.ID,
		Seq:       []byte(r.Seq),
		Qual:      []byte(r.Qual),
		NumericID: id,
	}
}

func (s *fastqBatchSource) Err() error {
	if s.sc != nil {
		return s.sc.Err()
	}
	return s.single.Err()
}
