package yaml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pbanos/sapling/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadParamsOverridesProfile(t *testing.T) {
	p, err := ReadParams([]byte("dataset: codeforces\nmodel: code2vec-concat\nhidden_dim: 32\ninit_lr: 0.01\nnp: 20\n"))
	require.NoError(t, err)
	assert.Equal(t, config.Code2VecConcat, p.Model)
	assert.Equal(t, 32, p.HiddenDim)
	assert.Equal(t, 0.01, p.LearningRate)
	assert.Equal(t, 20, p.MaxContexts)
	assert.Equal(t, 37, p.NumConcepts)
}

func TestReadParamsErrors(t *testing.T) {
	_, err := ReadParams([]byte("dataset: unknown\n"))
	assert.Error(t, err)
	_, err = ReadParams([]byte("hiden_dim: 3\n"))
	assert.Error(t, err)
	_, err = ReadParams([]byte("hidden_dim: [\n"))
	assert.Error(t, err)
}

func TestReadParamsFromFile(t *testing.T) {
	p, err := config.Default("codeforces")
	require.NoError(t, err)
	p.Seed = 7
	data, err := WriteParams(p)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "params.yml")
	require.NoError(t, os.WriteFile(path, data, 0644))
	read, err := ReadParamsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, p, read)

	_, err = ReadParamsFromFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
