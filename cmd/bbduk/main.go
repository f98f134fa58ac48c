// Command bbduk filters and trims FASTQ reads against a k-mer reference
// index, the way BBDuk does: build an index from one or more reference
// FASTA files, then stream read pairs through it, writing survivors,
// contaminant hits, and de-paired singletons to separate output files.
package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/bbduk/bbduk"
	"github.com/grailbio/bbduk/bbduk/harness"
	"github.com/grailbio/bbduk/kindex"
)

type cliFlags struct {
	ref      string
	in1, in2 string

	outUnmatched string
	outMatched   string
	outSingleton string

	configPath string
	workers    int
	batchSize  int

	k, minK, ways   int
	hdist, edist    int
	qhdist, qhdist2 int
	rcomp           bool
}

func bindFlags(f *flag.FlagSet, c *cliFlags) {
	f.StringVar(&c.ref, "ref", "", "Comma-separated list of reference FASTA files to build the k-mer index from.")
	f.StringVar(&c.in1, "in", "", "Input FASTQ file (R1, or unpaired reads).")
	f.StringVar(&c.in2, "in2", "", "Input FASTQ file (R2). Leave empty for unpaired input.")
	f.StringVar(&c.outUnmatched, "out", "", "Output FASTQ file for reads that pass filtering.")
	f.StringVar(&c.outMatched, "outm", "", "Output FASTQ file for reads that matched the reference (contaminants).")
	f.StringVar(&c.outSingleton, "outs", "", "Output FASTQ file for singleton reads left over when one mate of a pair is discarded.")
	f.StringVar(&c.configPath, "config", "", "YAML file of pipeline options overriding bbduk.DefaultConfig; see bbduk.LoadConfig.")
	f.IntVar(&c.workers, "threads", 4, "Number of query worker goroutines.")
	f.IntVar(&c.batchSize, "batch-size", 1000, "Read pairs per harness batch.")

	f.IntVar(&c.k, "k", kindex.DefaultConfig.K, "Reference k-mer length.")
	f.IntVar(&c.minK, "mink", kindex.DefaultConfig.MinK, "Shortest tail k-mer length, when short k-mers are needed at read ends.")
	f.IntVar(&c.ways, "ways", kindex.DefaultConfig.Ways, "Number of index shards.")
	f.IntVar(&c.hdist, "hdist", kindex.DefaultConfig.HDist, "Build-time Hamming distance for reference k-mer mutation.")
	f.IntVar(&c.edist, "edist", kindex.DefaultConfig.EDist, "Build-time edit distance for reference k-mer mutation.")
	f.IntVar(&c.qhdist, "qhdist", kindex.DefaultConfig.QHDist, "Query-time Hamming distance for full-length k-mers.")
	f.IntVar(&c.qhdist2, "qhdist2", kindex.DefaultConfig.QHDist2, "Query-time Hamming distance for short k-mers.")
	f.BoolVar(&c.rcomp, "rcomp", kindex.DefaultConfig.Rcomp, "Canonicalize nucleotide k-mers by reverse complement.")
}

func (c cliFlags) indexConfig() kindex.Config {
	cfg := kindex.DefaultConfig
	cfg.K = c.k
	cfg.MinK = c.minK
	cfg.Ways = c.ways
	cfg.HDist = c.hdist
	cfg.EDist = c.edist
	cfg.QHDist = c.qhdist
	cfg.QHDist2 = c.qhdist2
	cfg.Rcomp = c.rcomp
	return cfg
}

func (c cliFlags) pipelineConfig(ctx context.Context) (bbduk.Config, error) {
	if c.configPath == "" {
		return bbduk.DefaultConfig, nil
	}
	data, err := file.ReadFile(ctx, c.configPath)
	if err != nil {
		return bbduk.Config{}, err
	}
	return bbduk.LoadConfig(data)
}

func main() {
	var c cliFlags
	bindFlags(flag.CommandLine, &c)

	cleanup := grail.Init()
	defer cleanup()
	ctx := vcontext.Background()

	if err := run(ctx, c); err != nil {
		log.Fatal(err)
	}
}

// run builds the reference index, streams the input through the filtering
// harness, and reports final stats. It is split out from main so tests can
// drive it directly against temp files rather than a subprocess.
func run(ctx context.Context, c cliFlags) error {
	if c.ref == "" {
		return fmt.Errorf("-ref is required")
	}
	if c.in1 == "" {
		return fmt.Errorf("-in is required")
	}

	pcfg, err := c.pipelineConfig(ctx)
	if err != nil {
		return err
	}

	log.Printf("building index from %s", c.ref)
	ix, err := harness.BuildIndex(c.indexConfig(), newFastaRefSource(ctx, strings.Split(c.ref, ",")))
	if err != nil {
		return err
	}
	log.Printf("index built: %d keys across %d shards, %d scaffolds",
		ix.KeyCount(), ix.NumShards(), ix.Scaffolds.Len())

	var once errors.Once

	_, in1, err := openMaybeCompressed(ctx, c.in1)
	if err != nil {
		return err
	}
	var src harness.BatchSource
	if c.in2 != "" {
		_, in2, err := openMaybeCompressed(ctx, c.in2)
		if err != nil {
			return err
		}
		src = newPairedBatchSource(in1, in2, c.batchSize)
	} else {
		src = newUnpairedBatchSource(in1, c.batchSize)
	}

	writers, closeWriters, err := openWriters(ctx, c)
	if err != nil {
		return err
	}

	stats, runErr := harness.RunFilter(ix, pcfg, nil, c.workers, src, writers)
	once.Set(runErr)
	once.Set(closeWriters())
	if err := once.Err(); err != nil {
		return err
	}

	log.Printf("done: %s", stats.String())
	return nil
}

// openWriters opens the requested output paths as gzip-compressed,
// batch-ordered ChannelWriters. Paths left blank leave the corresponding
// channel nil, so the harness silently drops reads routed there.
func openWriters(ctx context.Context, c cliFlags) (harness.Writers, func() error, error) {
	var w harness.Writers
	var files []file.File
	open := func(path string, dst **harness.ChannelWriter) error {
		if path == "" {
			return nil
		}
		f, err := file.Create(ctx, path)
		if err != nil {
			return err
		}
		files = append(files, f)
		cw := harness.NewChannelWriter(f.Writer(ctx), writeFASTQRecord)
		cw.Ordered = true
		*dst = cw
		return nil
	}
	if err := open(c.outUnmatched, &w.Unmatched); err != nil {
		return harness.Writers{}, nil, err
	}
	if err := open(c.outMatched, &w.Matched); err != nil {
		return harness.Writers{}, nil, err
	}
	if err := open(c.outSingleton, &w.Singleton); err != nil {
		return harness.Writers{}, nil, err
	}

	closeAll := func() error {
		var once errors.Once
		for _, cw := range []*harness.ChannelWriter{w.Unmatched, w.Matched, w.Singleton} {
			if cw != nil {
				once.Set(cw.Close())
			}
		}
		for _, f := range files {
			once.Set(f.Close(ctx))
		}
		return once.Err()
	}
	return w, closeAll, nil
}
