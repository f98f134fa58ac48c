package bbduk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSamplerRateOneKeepsEverything(t *testing.T) {
	s := NewSampler(1, 42)
	for id := uint64(0); id < 100; id++ {
		assert.True(t, s.Keep(id))
	}
}

func TestSamplerRateZeroDropsEverything(t *testing.T) {
	s := NewSampler(0, 42)
	for id := uint64(0); id < 100; id++ {
		assert.False(t, s.Keep(id))
	}
}

func TestSamplerDeterministic(t *testing.T) {
	a := NewSampler(0.5, 7)
	b := NewSampler(0.5, 7)
	for id := uint64(0); id < 50; id++ {
		assert.Equal(t, a.Keep(id), b.Keep(id))
	}
}

func TestSamplerDifferentSeedsDiverge(t *testing.T) {
	a := NewSampler(0.5, 1)
	b := NewSampler(0.5, 2)
	diff := false
	for id := uint64(0); id < 200; id++ {
		if a.Keep(id) != b.Keep(id) {
			diff = true
			break
		}
	}
	assert.True(t, diff)
}
