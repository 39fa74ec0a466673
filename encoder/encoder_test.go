package encoder

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/pbanos/sapling/ast"
	"github.com/pbanos/sapling/autograd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEncoder(t *testing.T) *TreeEncoder {
	t.Helper()
	return New(6, 4, 3, rand.New(rand.NewSource(11)))
}

func tree(t *testing.T, typ int, children ...*ast.Node) *ast.Node {
	t.Helper()
	n, err := ast.New(typ, children...)
	require.NoError(t, err)
	return n
}

func TestRootOnlyTreeIsItsProjectedEmbedding(t *testing.T) {
	te := newTestEncoder(t)
	out, err := te.Encode([]*ast.Node{ast.Leaf(2)})
	require.NoError(t, err)
	require.Len(t, out, 1)

	e, err := te.Embedding.Lookup(2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, te.Combine.Forward(e).Data, out[0].Data, 1e-12)
}

func TestEncodingIsMaxOverNodeVectors(t *testing.T) {
	te := newTestEncoder(t)
	root := tree(t, 1, ast.Leaf(3), ast.Leaf(4))
	out, err := te.Encode([]*ast.Node{root})
	require.NoError(t, err)

	project := func(typ int) *autograd.Vec {
		e, err := te.Embedding.Lookup(typ)
		require.NoError(t, err)
		return te.Combine.Forward(e)
	}
	left, right := project(3), project(4)
	top := project(1).Add(te.Children[0].Forward(left)).Add(te.Children[1].Forward(right))
	for k := 0; k < te.EncodeDim; k++ {
		expected := math.Max(top.Data[k], math.Max(left.Data[k], right.Data[k]))
		assert.InDelta(t, expected, out[0].Data[k], 1e-12)
	}
}

func TestShallowRowsPoolWithZeroForUnreachedLevels(t *testing.T) {
	te := newTestEncoder(t)
	out, err := te.Encode([]*ast.Node{ast.Leaf(2), tree(t, 1, ast.Leaf(3))})
	require.NoError(t, err)

	e, err := te.Embedding.Lookup(2)
	require.NoError(t, err)
	projected := te.Combine.Forward(e)
	for k, x := range projected.Data {
		assert.InDelta(t, math.Max(x, 0), out[0].Data[k], 1e-12)
	}
}

func TestPermutingTreesPermutesRows(t *testing.T) {
	te := newTestEncoder(t)
	a := tree(t, 1, ast.Leaf(3), tree(t, 2, nil, ast.Leaf(5)))
	b := tree(t, 4, tree(t, 0, ast.Leaf(1)))
	c := ast.Leaf(5)

	forward, err := te.Encode([]*ast.Node{a, b, c})
	require.NoError(t, err)
	swapped, err := te.Encode([]*ast.Node{c, b, a})
	require.NoError(t, err)

	assert.InDeltaSlice(t, forward[0].Data, swapped[2].Data, 1e-12)
	assert.InDeltaSlice(t, forward[1].Data, swapped[1].Data, 1e-12)
	assert.InDeltaSlice(t, forward[2].Data, swapped[0].Data, 1e-12)
}

func TestUnknownNodeTypeFails(t *testing.T) {
	te := newTestEncoder(t)
	_, err := te.Encode([]*ast.Node{tree(t, 1, ast.Leaf(17))})
	assert.Error(t, err)
}

func TestEmptyBatch(t *testing.T) {
	out, err := newTestEncoder(t).Encode(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestConcurrentEncodesDoNotShareState(t *testing.T) {
	te := newTestEncoder(t)
	trees := []*ast.Node{tree(t, 1, ast.Leaf(3), ast.Leaf(4)), ast.Leaf(0)}
	expected, err := te.Encode(trees)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]*autograd.Vec, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = te.Encode(trees)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		require.Len(t, r, 2)
		for row := range r {
			assert.Equal(t, expected[row].Data, r[row].Data)
		}
	}
}

func TestGradientsFlowOnlyToUsedParameters(t *testing.T) {
	te := newTestEncoder(t)
	out, err := te.Encode([]*ast.Node{tree(t, 1, ast.Leaf(3), ast.Leaf(4))})
	require.NoError(t, err)
	autograd.Backward(out[0].Sum())

	assert.NotEqual(t, make([]float64, 3), te.Combine.Bias.Grad)
	unused, err := te.Embedding.Lookup(5)
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 4), unused.Grad)
}
