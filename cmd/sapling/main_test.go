package main

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/pbanos/sapling/ast"
	"github.com/pbanos/sapling/config"
	"github.com/pbanos/sapling/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSequences(n, steps int) []*dataset.Sequence {
	var sequences []*dataset.Sequence
	for i := 0; i < n; i++ {
		s := &dataset.Sequence{Student: fmt.Sprintf("s%d", i)}
		for t := 0; t < steps; t++ {
			s.Steps = append(s.Steps, dataset.Step{
				Problem:        1,
				Concepts:       []float64{0, 1, 0},
				Targets:        []float64{0, 1, 0},
				ConceptWeights: []float64{0, 0.5, 0},
				Previous:       []float64{1, 0},
				Result:         float64(t % 2),
				Trees:          []*ast.Node{ast.Leaf(2)},
			})
		}
		sequences = append(sequences, s)
	}
	return sequences
}

func testRootConfig(t *testing.T) *rootCmdConfig {
	l, err := newLogger(false, "")
	require.NoError(t, err)
	rcc := &rootCmdConfig{logger: l}
	t.Cleanup(rcc.close)
	return rcc
}

func TestUnsupportedDatasetURI(t *testing.T) {
	rcc := testRootConfig(t)
	_, err := rcc.openDataset(context.Background(), "data.csv")
	assert.Error(t, err)
	_, _, err = rcc.createDataset(context.Background(), "redis://localhost")
	assert.Error(t, err)
}

func TestJSONDatasetRoundTrip(t *testing.T) {
	ctx := context.Background()
	rcc := testRootConfig(t)
	path := filepath.Join(t.TempDir(), "train1.json")

	ds, commit, err := rcc.createDataset(ctx, path)
	require.NoError(t, err)
	_, err = ds.Write(ctx, testSequences(3, 2))
	require.NoError(t, err)
	require.NoError(t, commit())

	read, err := rcc.openDataset(ctx, path)
	require.NoError(t, err)
	count, err := read.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSQLiteDatasetRoundTrip(t *testing.T) {
	ctx := context.Background()
	rcc := testRootConfig(t)
	path := filepath.Join(t.TempDir(), "train1.db")

	ds, commit, err := rcc.createDataset(ctx, path)
	require.NoError(t, err)
	_, err = ds.Write(ctx, testSequences(2, 3))
	require.NoError(t, err)
	require.NoError(t, commit())

	read, err := rcc.openDataset(ctx, path)
	require.NoError(t, err)
	sequences, err := read.Sequences(ctx)
	require.NoError(t, err)
	assert.Len(t, sequences, 2)
}

func TestCopyWindowsAndValidates(t *testing.T) {
	ctx := context.Background()
	p, err := config.Default("")
	require.NoError(t, err)
	p.NumConcepts = 2
	p.Seqlen = 2
	dcc := &datasetCmdConfig{rootCmdConfig: testRootConfig(t), window: true}

	output := dataset.New(nil)
	n, err := dcc.copy(ctx, dataset.New(testSequences(150, 3)), output, p)
	require.NoError(t, err)
	assert.Equal(t, 300, n)

	p.PreviousDim = 3
	_, err = dcc.copy(ctx, dataset.New(testSequences(1, 1)), dataset.New(nil), p)
	assert.Error(t, err)
}

func TestSplitConfigValidation(t *testing.T) {
	assert.NoError(t, (&splitCmdConfig{format: "json", folds: 5}).Validate())
	assert.Error(t, (&splitCmdConfig{format: "csv", folds: 5}).Validate())
	assert.Error(t, (&splitCmdConfig{format: "db", folds: 1}).Validate())
}

func TestTrainConfigValidation(t *testing.T) {
	valid := &trainCmdConfig{trainPattern: "train%d.json", validPattern: "valid%d.json", workers: 1}
	assert.NoError(t, valid.Validate())
	assert.Error(t, (&trainCmdConfig{validPattern: "valid%d.json", workers: 1}).Validate())
	assert.Error(t, (&trainCmdConfig{trainPattern: "train%d.json", validPattern: "valid%d.json", workers: 1, paramsInput: "p.yml", profile: "codeforces"}).Validate())
	assert.Error(t, (&trainCmdConfig{trainPattern: "train%d.json", validPattern: "valid%d.json"}).Validate())
}

func TestCommandsAreRegistered(t *testing.T) {
	root := cliParser()
	for _, name := range []string{"version", "train", "work", "test", "predict", "split", "dataset"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
