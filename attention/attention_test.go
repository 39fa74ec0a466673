package attention

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pbanos/sapling/autograd"
	"github.com/pbanos/sapling/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func newTestAttention() *ConceptAttention {
	return New(3, 2, 4, rand.New(rand.NewSource(3)))
}

func grid(blocks ...[]*autograd.Vec) sequence.Grid {
	return sequence.Grid{blocks}
}

func TestStepWithoutConceptsIsZero(t *testing.T) {
	ca := newTestAttention()
	block := []*autograd.Vec{autograd.NewVec([]float64{1, 2}), autograd.NewVec([]float64{-1, 3})}
	out, err := ca.Forward(
		[][][]float64{{{0, 0, 0}}},
		[][]*autograd.Vec{{autograd.NewVec([]float64{0.3, 0.2, 0.1})}},
		grid(block),
	)
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 4), out[0][0].Data)
}

func TestSingleRowIsGatedProjection(t *testing.T) {
	ca := newTestAttention()
	row := autograd.NewVec([]float64{1, -2})
	out, err := ca.Forward(
		[][][]float64{{{0, 1, 0}}},
		[][]*autograd.Vec{{autograd.NewVec([]float64{0, 0.5, 0})}},
		grid([]*autograd.Vec{row}),
	)
	require.NoError(t, err)
	key := ca.Project.Forward(row)
	assert.InDeltaSlice(t, key.Scale(0.5).Data, out[0][0].Data, 1e-12)
}

func TestConceptsAreAveraged(t *testing.T) {
	ca := newTestAttention()
	row := autograd.NewVec([]float64{0.5, 1})
	out, err := ca.Forward(
		[][][]float64{{{1, 0, 1}}},
		[][]*autograd.Vec{{autograd.NewVec([]float64{1, 0, 1})}},
		grid([]*autograd.Vec{row}),
	)
	require.NoError(t, err)
	assert.InDeltaSlice(t, ca.Project.Forward(row).Data, out[0][0].Data, 1e-12)
}

func TestScaledDotProductOverRows(t *testing.T) {
	ca := newTestAttention()
	rows := []*autograd.Vec{autograd.NewVec([]float64{1, 0}), autograd.NewVec([]float64{0, 1})}
	out, err := ca.Forward(
		[][][]float64{{{0, 0, 1}}},
		[][]*autograd.Vec{{autograd.NewVec([]float64{0, 0, 2})}},
		grid(rows),
	)
	require.NoError(t, err)

	e, err := ca.Concepts.Lookup(2)
	require.NoError(t, err)
	k0, k1 := ca.Project.Forward(rows[0]).Data, ca.Project.Forward(rows[1]).Data
	q := make([]float64, 4)
	floats.ScaleTo(q, 2, e.Data)
	s0, s1 := floats.Dot(q, k0)/2, floats.Dot(q, k1)/2
	a0 := math.Exp(s0) / (math.Exp(s0) + math.Exp(s1))
	expected := make([]float64, 4)
	floats.AddScaled(expected, 2*a0, k0)
	floats.AddScaled(expected, 2*(1-a0), k1)
	assert.InDeltaSlice(t, expected, out[0][0].Data, 1e-9)
}

func TestGradientsReachConceptEmbeddings(t *testing.T) {
	ca := newTestAttention()
	rows := []*autograd.Vec{autograd.NewVec([]float64{1, 0}), autograd.NewVec([]float64{0, 1})}
	out, err := ca.Forward(
		[][][]float64{{{0, 1, 0}}},
		[][]*autograd.Vec{{autograd.NewVec([]float64{0, 1, 0})}},
		grid(rows),
	)
	require.NoError(t, err)
	autograd.Backward(out[0][0].Sum())
	assert.NotEqual(t, make([]float64, 4), ca.Concepts.Table.Rows[1].Grad)
	assert.Equal(t, make([]float64, 4), ca.Concepts.Table.Rows[0].Grad)
}

func TestShapeMismatches(t *testing.T) {
	ca := newTestAttention()
	_, err := ca.Forward(nil, nil, grid(nil))
	assert.Error(t, err)
	_, err = ca.Forward(
		[][][]float64{{{1, 0}}},
		[][]*autograd.Vec{{autograd.NewVec([]float64{1, 0})}},
		grid([]*autograd.Vec{autograd.Zeros(2)}),
	)
	assert.Error(t, err)
}
