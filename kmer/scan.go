package kmer

// Window is the state of a rolling k-mer scan at one position: the forward
// and reverse-complement packed bits (reverseComp is left at 0 for amino
// data, which has no complement strand), the window's length (always k for
// a window returned by Scanner.Get after a successful Scan), and the 0-based
// position of the window's leftmost symbol.
type Window struct {
	Pos         int
	ForwardBits uint64
	ReverseBits uint64
	Len         int
}

// Scanner produces the rolling forward/reverse-complement k-mer at every
// position of a sequence, mirroring fusion.kmerizer's incremental-update
// fast path with a fallback restart on ambiguous symbols. One Scanner is
// reused across many Reset calls by the index builder and the read
// scanner's per-thread processor, avoiding per-read allocation.
type Scanner struct {
	a       *Alphabet
	k       int
	forbidN bool
	seq     []byte
	pos     int // next byte to consume
	win     Window
	haveWin bool
}

// NewScanner creates a Scanner for k-mers of length k over alphabet a. Any
// symbol outside the alphabet aborts the current window and scanning
// resumes just past it. forbidN is stored but not consulted: ambiguous
// symbols are handled the same way whether it is true or false, and no
// window containing an ambiguous symbol is ever produced.
func NewScanner(a *Alphabet, k int, forbidN bool) *Scanner {
	return &Scanner{a: a, k: k, forbidN: forbidN}
}

// Reset starts scanning a new sequence from position 0.
func (s *Scanner) Reset(seq []byte) {
	s.seq = seq
	s.pos = 0
	s.haveWin = false
	s.win = Window{}
}

// Scan advances to the next valid, full-length window and reports whether
// one was found. Positions containing a symbol outside the alphabet are
// skipped over (the window is rebuilt from scratch starting just past the
// bad symbol), matching fusion.kmerizer.Scan's nextAmbiguousPosition
// fallback.
func (s *Scanner) Scan() bool {
	k := s.k
	bits := s.a.BitsPerSymbol
	if s.haveWin && s.win.Len == k && s.pos < len(s.seq) {
		// Fast path: slide the window by one symbol.
		ch := s.seq[s.pos]
		sym, ok := s.a.Encode(ch)
		if ok {
			s.win.Pos++
			s.win.ForwardBits = ((s.win.ForwardBits << bits) | uint64(sym)) & s.fullMask()
			if s.a.Kind == Nucleotide {
				rc, _ := s.a.ComplementEncode(ch)
				shift := uint(k-1) * bits
				s.win.ReverseBits = (s.win.ReverseBits >> bits) | (uint64(rc) << shift)
			}
			s.pos++
			return true
		}
		// Ambiguous symbol: fall through to the rebuild loop, which will
		// skip past it.
		s.haveWin = false
	}

	for s.pos+k <= len(s.seq) {
		ok, forward, reverse := s.tryWindow(s.pos)
		if !ok {
			s.pos = s.nextAmbiguous(s.pos) + 1
			continue
		}
		s.win = Window{Pos: s.pos, ForwardBits: forward, ReverseBits: reverse, Len: k}
		s.haveWin = true
		s.pos += k
		return true
	}
	return false
}

// Get returns the window produced by the most recent successful Scan call.
func (s *Scanner) Get() Window { return s.win }

func (s *Scanner) fullMask() uint64 {
	return uint64(1)<<(uint(s.k)*s.a.BitsPerSymbol) - 1
}

// tryWindow attempts to build a full-length window starting at pos,
// returning ok == false at the first ambiguous symbol.
func (s *Scanner) tryWindow(pos int) (ok bool, forward, reverse uint64) {
	bits := s.a.BitsPerSymbol
	for i := 0; i < s.k; i++ {
		ch := s.seq[pos+i]
		sym, good := s.a.Encode(ch)
		if !good {
			return false, 0, 0
		}
		forward = (forward << bits) | uint64(sym)
		if s.a.Kind == Nucleotide {
			rc, _ := s.a.ComplementEncode(ch)
			reverse |= uint64(rc) << (uint(i) * bits)
		}
	}
	return true, forward, reverse
}

// EncodeWindow packs an arbitrary byte window (not necessarily produced by
// a Scanner) into forward/reverse-complement bits, reporting ok == false if
// any byte is outside the alphabet. Used for the short k-mers at record
// and read ends (index builder tails and read-scanner probes), which are
// shorter than the Scanner's k.
func EncodeWindow(a *Alphabet, seq []byte) (forward, reverse uint64, ok bool) {
	bits := a.BitsPerSymbol
	for i, ch := range seq {
		sym, good := a.Encode(ch)
		if !good {
			return 0, 0, false
		}
		forward = (forward << bits) | uint64(sym)
		if a.Kind == Nucleotide {
			rc, _ := a.ComplementEncode(ch)
			reverse |= uint64(rc) << (uint(i) * bits)
		}
	}
	return forward, reverse, true
}

func (s *Scanner) nextAmbiguous(from int) int {
	for i := from; i < len(s.seq); i++ {
		if _, ok := s.a.Encode(s.seq[i]); !ok {
			return i
		}
	}
	return len(s.seq)
}
