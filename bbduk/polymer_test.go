package bbduk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolymerTrimRangePolyATail(t *testing.T) {
	seq := []byte("ACGTACGTAAAAAAAAAA")
	start, end := PolymerTrimRange(seq, PolymerA, 5, 0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 8, end)
}

func TestPolymerTrimRangeTolerateInterruption(t *testing.T) {
	seq := []byte("ACGTACGTAAAACAAAAA")
	start, end := PolymerTrimRange(seq, PolymerA, 5, 1)
	assert.Equal(t, 0, start)
	assert.Equal(t, 8, end)
}

func TestPolymerTrimRangeGLeft(t *testing.T) {
	seq := []byte("GGGGGACGTACGT")
	start, end := PolymerTrimRange(seq, PolymerGLeft, 5, 0)
	assert.Equal(t, 5, start)
	assert.Equal(t, len(seq), end)
}

func TestPolymerTrimRangeNoRunLeavesBoundsUnchanged(t *testing.T) {
	seq := []byte("ACGTACGTACGT")
	start, end := PolymerTrimRange(seq, PolymerA, 5, 0)
	assert.Equal(t, 0, start)
	assert.Equal(t, len(seq), end)
}
