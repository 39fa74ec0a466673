package dataset

import (
	"context"
	"math/rand"
	"testing"

	"github.com/pbanos/sapling/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(result float64) Step {
	return Step{
		Problem:        1,
		Concepts:       []float64{0, 1, 0},
		Targets:        []float64{0, 1, 0},
		ConceptWeights: []float64{0, 0.5, 0},
		Previous:       []float64{1, 0},
		Result:         result,
		Trees:          []*ast.Node{ast.Leaf(1)},
	}
}

func sequences(lengths ...int) []*Sequence {
	var result []*Sequence
	for i, l := range lengths {
		s := &Sequence{Student: string(rune('a' + i))}
		for k := 0; k < l; k++ {
			s.Steps = append(s.Steps, step(float64(k%2)))
		}
		result = append(result, s)
	}
	return result
}

func TestMemoryDataset(t *testing.T) {
	ctx := context.Background()
	ds := New(sequences(1, 2))
	n, err := ds.Write(ctx, sequences(3))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := ds.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	seqs, err := ds.Sequences(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, seqs[2].Len())
}

func TestStepPadding(t *testing.T) {
	s := step(1)
	assert.False(t, s.Padding())
	s.Targets = []float64{0, 0, 0}
	assert.True(t, s.Padding())
	s.Targets = []float64{1, 1, 0}
	assert.Equal(t, 2.0, s.TargetCount())
}

func TestValidate(t *testing.T) {
	shape := Shape{Concepts: 3, Previous: 2}
	seqs := sequences(2, 3)
	require.NoError(t, Validate(seqs, shape))

	seqs[1].Steps[2].Targets = []float64{1}
	err := Validate(seqs, shape)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "targets")

	seqs = sequences(1)
	seqs[0].Steps[0].Result = 0.5
	assert.Error(t, Validate(seqs, shape))

	seqs = sequences(1)
	seqs[0].Steps[0].Previous = nil
	assert.Error(t, Validate(seqs, shape))

	seqs = sequences(1)
	seqs[0].Steps[0].Trees = []*ast.Node{{Type: ast.Sentinel}}
	assert.Error(t, Validate(seqs, shape))
}

func TestWindow(t *testing.T) {
	windows := Window(sequences(2, 7), 3)
	require.Len(t, windows, 4)
	assert.Equal(t, 2, windows[0].Len())
	assert.Equal(t, 3, windows[1].Len())
	assert.Equal(t, 3, windows[2].Len())
	assert.Equal(t, 1, windows[3].Len())
	assert.Equal(t, "b", windows[3].Student)
}

func TestBatchesDropTrailingPartialBatch(t *testing.T) {
	seqs := sequences(1, 1, 1, 1, 1)
	batches := Batches(seqs, 2)
	require.Len(t, batches, 2)
	assert.Equal(t, seqs[2:4], batches[1])
	assert.Empty(t, Batches(seqs, 6))
	assert.Nil(t, Batches(seqs, 0))
}

func TestShuffleIsReproducible(t *testing.T) {
	seqs := sequences(1, 1, 1, 1, 1, 1)
	a := Shuffle(rand.New(rand.NewSource(5)), seqs)
	b := Shuffle(rand.New(rand.NewSource(5)), seqs)
	assert.Equal(t, a, b)
	assert.ElementsMatch(t, seqs, a)
	assert.Equal(t, "a", seqs[0].Student)
}
