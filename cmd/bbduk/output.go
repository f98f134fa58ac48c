package main

import (
	"io"

	"github.com/grailbio/bbduk/bbduk"
	"github.com/grailbio/bbduk/encoding/fastq"
)

// writeFASTQRecord is a harness.RecordWriter: it converts a processed Read
// back into FASTQ and writes it with encoding/fastq.Writer, the mirror image
// of fastqBatchSource.toRead in input.go.
func writeFASTQRecord(w io.Writer, r *bbduk.Read) error {
	fw := fastq.NewWriter(w)
	return fw.Write(&fastq.Read{
		ID:   r.OutputID(),
		Seq:  string(r.Seq),
		Unk:  "+",
		Qual: string(r.Qual),
	})
}
