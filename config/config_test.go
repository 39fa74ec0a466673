package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeforcesProfile(t *testing.T) {
	p, err := Default("codeforces")
	require.NoError(t, err)
	assert.Equal(t, 37, p.NumConcepts)
	assert.Equal(t, 38, p.Concepts())
	assert.Equal(t, 7152, p.NumProblems)
	assert.Equal(t, 200, p.Seqlen)
	assert.Equal(t, 64, p.HiddenDim)
	assert.Equal(t, 2, p.HiddenLayers)
	assert.Equal(t, 32, p.BatchSize)
	assert.Equal(t, 0.001, p.LearningRate)
	assert.Equal(t, 35545, p.NodesDim)
	assert.Equal(t, 380615, p.PathsDim)
	assert.Equal(t, 50, p.MaxContexts)
	assert.NoError(t, p.Validate())
}

func TestUnknownProfile(t *testing.T) {
	_, err := Default("nope")
	assert.Error(t, err)
	assert.Contains(t, Profiles(), "codeforces")
}

func TestValidate(t *testing.T) {
	p, err := Default("codeforces")
	require.NoError(t, err)

	p.Model = "gru"
	assert.Error(t, p.Validate())

	p.Model = Code2VecConcat
	p.MaxLen = 0
	assert.NoError(t, p.Validate(), "max_len only matters for the attention model")
	p.CodevecSize = 0
	assert.Error(t, p.Validate())

	p, _ = Default("codeforces")
	p.WeightDecay = -1
	assert.Error(t, p.Validate())

	p, _ = Default("")
	assert.Error(t, p.Validate(), "the empty profile has no concepts")
}
