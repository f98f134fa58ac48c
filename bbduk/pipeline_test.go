package bbduk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noHitIndex(t *testing.T) *Processor {
	t.Helper()
	ix := testIndex(t)
	cfg := DefaultConfig
	cfg.SampleRate = 1
	return NewProcessor(ix, cfg)
}

func TestProcessForceTrim(t *testing.T) {
	p := noHitIndex(t)
	p.Config.ForceTrimLeft = 2
	p.Config.ForceTrimRight = 1
	r := &Read{ID: "r", Seq: []byte("AAAAAAAAAA")}
	p.Process(&Pair{R1: r})
	assert.Equal(t, "AAAAAAA", string(r.Seq))
	assert.Equal(t, int64(1), p.Stats.ForceTrimmedReads)
}

func TestProcessForceTrimModulo(t *testing.T) {
	p := noHitIndex(t)
	p.Config.ForceTrimModulo = 3
	r := &Read{ID: "r", Seq: []byte("AAAAAAAAAA")} // length 10 -> largest multiple of 3 is 9
	p.Process(&Pair{R1: r})
	assert.Equal(t, 9, r.Len())
}

func TestProcessInitialFilterChastity(t *testing.T) {
	p := noHitIndex(t)
	p.Config.RequireChastity = true
	r := &Read{ID: "r", Seq: []byte("AAAA"), ChastityPass: false}
	d := p.Process(&Pair{R1: r})
	assert.True(t, r.Discarded)
	assert.Equal(t, ChannelNone, d.R1)
}

func TestProcessInitialFilterGCWindow(t *testing.T) {
	p := noHitIndex(t)
	p.Config.MinGC = 0.6
	p.Config.MaxGC = 1.0
	r := &Read{ID: "r", Seq: []byte("AAAATTTT")} // 0% GC
	p.Process(&Pair{R1: r})
	assert.True(t, r.Discarded)
}

func TestProcessGCPerPairUsesJointComposition(t *testing.T) {
	p := noHitIndex(t)
	p.Config.GCPerPair = true
	p.Config.MinGC = 0.4
	p.Config.MaxGC = 0.6
	// R1 alone is 0% GC and would fail a per-read check, but the pair
	// average (8/16 = 0.5) is within range.
	r1 := &Read{ID: "r1", Seq: []byte("AAAATTTT")}
	r2 := &Read{ID: "r2", Seq: []byte("GGGGCCCC")}
	p.Process(&Pair{R1: r1, R2: r2})
	assert.False(t, r1.Discarded)
	assert.False(t, r2.Discarded)
}

func TestProcessSecondaryTrimPolymerBeforeQuality(t *testing.T) {
	p := noHitIndex(t)
	p.Config.Polymers = []PolymerBase{PolymerA}
	p.Config.PolymerMinRun = 5
	p.Config.QualityTrimRight = true
	r := &Read{
		ID:   "r",
		Seq:  []byte("ACGTACGTACGTACGTAAAAAAAAAA"),
		Qual: []byte{40, 40, 40, 40, 40, 40, 40, 40, 40, 40, 40, 40, 40, 40, 40, 40, 40, 2, 2, 2, 2, 2, 2, 2, 2, 2},
	}
	p.Config.QualityOffset = 33
	p.secondaryTrim(r)
	assert.Equal(t, "ACGTACGTACGTACGT", string(r.Seq))
}

func TestDispositionBothGoodUnmatched(t *testing.T) {
	p := noHitIndex(t)
	r1 := &Read{ID: "r1", Seq: []byte("AAAA")}
	r2 := &Read{ID: "r2", Seq: []byte("TTTT")}
	d := p.disposition(&Pair{R1: r1, R2: r2})
	assert.Equal(t, Disposition{R1: ChannelUnmatched, R2: ChannelUnmatched}, d)
}

func TestDispositionOneBadGoesToMatchedSurvivorUnmatched(t *testing.T) {
	p := noHitIndex(t)
	r1 := &Read{ID: "r1", Seq: []byte("AAAA")}
	r2 := &Read{ID: "r2", Seq: []byte("TTTT"), Discarded: true}
	d := p.disposition(&Pair{R1: r1, R2: r2})
	assert.Equal(t, Disposition{R1: ChannelUnmatched, R2: ChannelMatched}, d)
}

func TestDispositionOneBadSurvivorSingletonWhenConfigured(t *testing.T) {
	p := noHitIndex(t)
	p.Config.PairedToSingle = true
	r1 := &Read{ID: "r1", Seq: []byte("AAAA")}
	r2 := &Read{ID: "r2", Seq: []byte("TTTT"), Discarded: true}
	d := p.disposition(&Pair{R1: r1, R2: r2})
	assert.Equal(t, Disposition{R1: ChannelSingleton, R2: ChannelMatched}, d)
}

func TestDispositionBothBadToMatchedByDefault(t *testing.T) {
	p := noHitIndex(t)
	r1 := &Read{ID: "r1", Seq: []byte("AAAA"), Discarded: true}
	r2 := &Read{ID: "r2", Seq: []byte("TTTT"), Discarded: true}
	d := p.disposition(&Pair{R1: r1, R2: r2})
	assert.Equal(t, Disposition{R1: ChannelMatched, R2: ChannelMatched}, d)
}

func TestDispositionBothBadTruncatedTo1bpWhenConfigured(t *testing.T) {
	p := noHitIndex(t)
	p.Config.TrimFailuresTo1bp = true
	r1 := &Read{ID: "r1", Seq: []byte("AAAA"), Discarded: true}
	r2 := &Read{ID: "r2", Seq: []byte("TTTT"), Discarded: true}
	d := p.disposition(&Pair{R1: r1, R2: r2})
	require.Equal(t, Disposition{R1: ChannelUnmatched, R2: ChannelUnmatched}, d)
	assert.Equal(t, 1, r1.Len())
	assert.Equal(t, 1, r2.Len())
}

func TestDispositionUnpairedKeptIsUnmatched(t *testing.T) {
	p := noHitIndex(t)
	r1 := &Read{ID: "r1", Seq: []byte("AAAA")}
	d := p.disposition(&Pair{R1: r1})
	assert.Equal(t, Disposition{R1: ChannelUnmatched}, d)
}

func TestDispositionUnpairedDiscardedIsNone(t *testing.T) {
	p := noHitIndex(t)
	r1 := &Read{ID: "r1", Seq: []byte("AAAA"), Discarded: true}
	d := p.disposition(&Pair{R1: r1})
	assert.Equal(t, Disposition{}, d)
}

func TestSamplerGateSkipsEntireProcess(t *testing.T) {
	ix := testIndex(t)
	cfg := DefaultConfig
	cfg.SampleRate = 0
	p := NewProcessor(ix, cfg)
	r := &Read{ID: "r", Seq: []byte("AAAA")}
	d := p.Process(&Pair{R1: r})
	assert.Equal(t, Disposition{}, d)
	assert.Equal(t, int64(0), p.Stats.ReadsIn)
}

func TestOverlapTrimCropsOverhang(t *testing.T) {
	p := noHitIndex(t)
	p.Overlap = func(r1, r2 []byte) (int, bool) { return 4, true }
	r1 := &Read{ID: "r1", Seq: []byte("AAAATTTT")}
	r2 := &Read{ID: "r2", Seq: []byte("CCCCGGGG")}
	p.Process(&Pair{R1: r1, R2: r2})
	assert.Equal(t, 4, r1.Len())
	assert.Equal(t, 4, r2.Len())
	assert.Equal(t, int64(8), p.Stats.OverlapTrimmedBases)
}
