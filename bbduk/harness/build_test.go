package harness

import (
	"testing"

	"github.com/grailbio/bbduk/kindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() kindex.Config {
	cfg := kindex.DefaultConfig
	cfg.K = 4
	cfg.MinK = 3
	cfg.MidMaskLen = 0
	cfg.Ways = 3
	return cfg
}

// fakeRefSource replays a fixed slice of RefBatches, one per Next call.
type fakeRefSource struct {
	batches []RefBatch
	i       int
	err     error
}

func (s *fakeRefSource) Next() (RefBatch, bool) {
	if s.i >= len(s.batches) {
		return RefBatch{}, false
	}
	b := s.batches[s.i]
	s.i++
	return b, true
}

func (s *fakeRefSource) Err() error { return s.err }

func TestBuildIndexMatchesSequentialBuild(t *testing.T) {
	cfg := testConfig()
	refs := []kindex.ReferenceRecord{{ScaffoldID: 1, Seq: []byte("ACGTACGTACGT")}}
	want := kindex.BuildSequential(cfg, refs)

	src := &fakeRefSource{batches: []RefBatch{
		{ID: 0, Refs: []RefRecord{{Name: "scaffold-1", Seq: []byte("ACGTACGTACGT")}}},
	}}
	got, err := BuildIndex(cfg, src)
	require.NoError(t, err)
	assert.Equal(t, want.KeyCount(), got.KeyCount())
}

func TestBuildIndexSpreadsAcrossShards(t *testing.T) {
	cfg := testConfig()
	src := &fakeRefSource{batches: []RefBatch{
		{ID: 0, Refs: []RefRecord{{Name: "r1", Seq: []byte("ACGTACGTACGTACGT")}}},
		{ID: 1, Refs: []RefRecord{{Name: "r2", Seq: []byte("TTTTGGGGCCCCAAAA")}}},
	}}
	ix, err := BuildIndex(cfg, src)
	require.NoError(t, err)
	assert.Greater(t, ix.KeyCount(), 0)
	assert.Equal(t, 3, ix.NumShards())
}

func TestBuildIndexInternsScaffoldNamesOnce(t *testing.T) {
	cfg := testConfig()
	src := &fakeRefSource{batches: []RefBatch{
		{ID: 0, Refs: []RefRecord{{Name: "dup", Seq: []byte("AAAA")}}},
		{ID: 1, Refs: []RefRecord{{Name: "dup", Seq: []byte("CCCC")}}},
	}}
	ix, err := BuildIndex(cfg, src)
	require.NoError(t, err)
	id, ok := ix.Scaffolds.Lookup("dup")
	require.True(t, ok)
	// Both batches reused the same interned id; the registry gained
	// exactly one new entry beyond the reserved index-0 slot.
	assert.Equal(t, int32(1), id)
	assert.Equal(t, 2, ix.Scaffolds.Len())
}

func TestBuildIndexPropagatesSourceError(t *testing.T) {
	cfg := testConfig()
	src := &fakeRefSource{err: assertErr}
	_, err := BuildIndex(cfg, src)
	assert.Equal(t, assertErr, err)
}

var assertErr = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }
