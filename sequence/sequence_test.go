package sequence

import (
	"testing"

	"github.com/pbanos/sapling/autograd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(values ...float64) []*autograd.Vec {
	result := make([]*autograd.Vec, len(values))
	for i, v := range values {
		result[i] = autograd.NewVec([]float64{v, -v})
	}
	return result
}

func TestShortStepsAreLeftPadded(t *testing.T) {
	a := &Assembler{MaxLen: 4, Dim: 2}
	in := rows(1, 2)
	steps, err := a.Steps([][]*autograd.Vec{in}, 1)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	block := steps[0]
	require.Len(t, block, 4)
	assert.Equal(t, []float64{0, 0}, block[0].Data)
	assert.Equal(t, []float64{0, 0}, block[1].Data)
	assert.Same(t, in[0], block[2])
	assert.Same(t, in[1], block[3])
}

func TestLongStepsKeepEarliestRows(t *testing.T) {
	a := &Assembler{MaxLen: 2, Dim: 2}
	in := rows(1, 2, 3)
	steps, err := a.Steps([][]*autograd.Vec{in, rows(4, 5)}, 2)
	require.NoError(t, err)
	assert.Equal(t, in[:2], steps[0])
	assert.Equal(t, []float64{4, -4}, steps[1][0].Data)
}

func TestMissingStepsAreZero(t *testing.T) {
	a := &Assembler{MaxLen: 2, Dim: 2}
	steps, err := a.Steps([][]*autograd.Vec{rows(1)}, 3)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	for _, block := range steps[1:] {
		require.Len(t, block, 2)
		for _, r := range block {
			assert.Equal(t, []float64{0, 0}, r.Data)
		}
	}
}

func TestStepsErrors(t *testing.T) {
	a := &Assembler{MaxLen: 2, Dim: 2}
	_, err := a.Steps([][]*autograd.Vec{rows(1), rows(2)}, 1)
	assert.Error(t, err)
	_, err = a.Steps([][]*autograd.Vec{{autograd.Zeros(3)}}, 1)
	assert.Error(t, err)
}

func TestBatch(t *testing.T) {
	a := &Assembler{MaxLen: 3, Dim: 2}
	grid, err := a.Batch([][][]*autograd.Vec{
		{rows(1), rows(2, 3)},
		{rows(4, 5, 6, 7)},
	}, 2)
	require.NoError(t, err)
	require.Len(t, grid, 2)
	for _, student := range grid {
		require.Len(t, student, 2)
		for _, block := range student {
			assert.Len(t, block, 3)
		}
	}
	assert.Equal(t, []float64{3, -3}, grid[0][1][2].Data)
	assert.Equal(t, []float64{6, -6}, grid[1][0][2].Data)
	assert.Equal(t, []float64{0, 0}, grid[1][1][0].Data)
}
