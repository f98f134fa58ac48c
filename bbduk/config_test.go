package bbduk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigOverridesOnlyMentionedFields(t *testing.T) {
	cfg, err := LoadConfig([]byte("min_gc: 0.2\nmax_gc: 0.8\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.MinGC)
	assert.Equal(t, 0.8, cfg.MaxGC)
	// Untouched fields keep DefaultConfig's values.
	assert.Equal(t, DefaultConfig.SampleRate, cfg.SampleRate)
	assert.Equal(t, DefaultConfig.QualityOffset, cfg.QualityOffset)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	_, err := LoadConfig([]byte("min_gc: [this is not a float\n"))
	assert.Error(t, err)
}
