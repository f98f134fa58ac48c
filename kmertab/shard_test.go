package kmertab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetIfAbsentNeverOverwrites(t *testing.T) {
	s := NewShard(8)
	assert.Equal(t, 1, s.SetIfAbsent(42, 7))
	assert.Equal(t, 0, s.SetIfAbsent(42, 99))
	assert.Equal(t, int32(7), s.Get(42))
}

func TestGetMissReturnsEmpty(t *testing.T) {
	s := NewShard(8)
	assert.Equal(t, Empty, s.Get(123))
}

func TestIncrementCreatesThenAdds(t *testing.T) {
	s := NewShard(8)
	v := s.Increment(5, 3)
	assert.Equal(t, int32(3), v)
	v = s.Increment(5, 4)
	assert.Equal(t, int32(7), v)
}

func TestRebalancePreservesAllEntries(t *testing.T) {
	s := NewShard(4)
	const n = 500
	for i := 0; i < n; i++ {
		s.SetIfAbsent(uint64(i), int32(i))
	}
	require.Equal(t, n, s.Len())
	for i := 0; i < n; i++ {
		assert.Equal(t, int32(i), s.Get(uint64(i)))
	}
}

func TestSetIfAbsentDoesNotOverwriteAcrossRebalance(t *testing.T) {
	s := NewShard(2)
	s.SetIfAbsent(1, 11)
	for i := 0; i < 200; i++ {
		s.SetIfAbsent(uint64(i+100), int32(i))
	}
	assert.Equal(t, int32(11), s.Get(1))
}
