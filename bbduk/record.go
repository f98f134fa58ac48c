// Package bbduk implements the per-read scanning and per-read pipeline
// described in spec.md §4.5-§4.6: force-trim, initial filters, the k-mer
// phase (filter/trim/mask/split), overlap-trim, secondary trimming, and
// final filters, producing a per-mate output Disposition per pair.
package bbduk

// Read is one sequence record consumed from an external reader, per
// spec.md §3's "Read record (consumed from external reader)". The
// external FASTA/FASTQ/SAM/BAM codec is out of scope (spec.md §1); this
// type is the narrow surface the pipeline actually needs.
type Read struct {
	ID   string
	Seq  []byte
	Qual []byte // nil if the source has no quality track

	// NumericID is a monotonically assigned identifier, used for
	// deterministic sampling.
	NumericID uint64

	// Discarded is set true once any pipeline phase decides to drop this
	// read; later phases must short-circuit on it.
	Discarded bool

	// Mate is the other read of a pair, or nil for unpaired input. The
	// back-pointer is consumed only within the pipeline and is expected
	// to be released (set nil) per-batch by the caller, per spec.md §9's
	// note that no cyclic references persist across batches.
	Mate *Read

	// X, Y are optional flowcell coordinates, consulted only by the
	// flowcell xy-location window initial filter.
	X, Y int

	// ChastityPass mirrors the Illumina "filter" field in a read header
	// (Y = failed chastity); consulted only by the chastity initial filter.
	ChastityPass bool

	// Barcode is the inline or index barcode associated with this read,
	// consulted only by the barcode-validity initial filter.
	Barcode string

	// renamedSuffix accumulates find-best-match annotations
	// ("\tname=count") appended to ID on output.
	renamedSuffix string
}

// Len returns the current sequence length (post any trim already applied).
func (r *Read) Len() int { return len(r.Seq) }

// Trim cuts the read (and quality, if present) down to [start, end).
func (r *Read) Trim(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(r.Seq) {
		end = len(r.Seq)
	}
	if start >= end {
		r.Seq = r.Seq[:0]
		if r.Qual != nil {
			r.Qual = r.Qual[:0]
		}
		return
	}
	r.Seq = r.Seq[start:end]
	if r.Qual != nil {
		r.Qual = r.Qual[start:end]
	}
}

// OutputID returns ID with any find-best-match annotation appended.
func (r *Read) OutputID() string {
	if r.renamedSuffix == "" {
		return r.ID
	}
	return r.ID + r.renamedSuffix
}

// Pair bundles two mates (R2 may be nil for unpaired input) as they move
// through the pipeline together.
type Pair struct {
	R1, R2 *Read
}

// KeepMask is a 2-bit {r1?, r2?} keep flag set. Processor.Process does not
// return it; it reports its per-mate result as a Disposition.
type KeepMask uint8

const (
	KeepNone KeepMask = 0
	KeepR1   KeepMask = 1 << 0
	KeepR2   KeepMask = 1 << 1
	KeepBoth          = KeepR1 | KeepR2
)

func (m KeepMask) R1() bool { return m&KeepR1 != 0 }
func (m KeepMask) R2() bool { return m&KeepR2 != 0 }
