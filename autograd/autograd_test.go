package autograd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// numericGrad estimates the gradient of f with respect to every element of
// the given vectors by central differences.
func numericGrad(f func() float64, vecs ...*Vec) [][]float64 {
	const h = 1e-6
	result := make([][]float64, len(vecs))
	for i, v := range vecs {
		result[i] = make([]float64, len(v.Data))
		for k := range v.Data {
			orig := v.Data[k]
			v.Data[k] = orig + h
			plus := f()
			v.Data[k] = orig - h
			minus := f()
			v.Data[k] = orig
			result[i][k] = (plus - minus) / (2 * h)
		}
	}
	return result
}

func checkGrads(t *testing.T, build func() *Scalar, vecs ...*Vec) {
	t.Helper()
	ZeroGrad(vecs)
	Backward(build())
	expected := numericGrad(func() float64 { return build().Data }, vecs...)
	for i, v := range vecs {
		assert.InDeltaSlice(t, expected[i], v.Grad, 1e-5, "gradient of input %d", i)
	}
}

func TestElementwiseGradients(t *testing.T) {
	a := NewVec([]float64{0.3, -1.2, 2.0})
	b := NewVec([]float64{-0.7, 0.4, 1.1})
	checkGrads(t, func() *Scalar {
		return a.Add(b).Mul(a.Sub(b)).Tanh().Scale(2).Sigmoid().Sum()
	}, a, b)
}

func TestDotAndReLUGradients(t *testing.T) {
	a := NewVec([]float64{0.3, -1.2, 2.0})
	b := NewVec([]float64{-0.7, 0.4, 1.1})
	checkGrads(t, func() *Scalar {
		return a.ReLU().Dot(b)
	}, a, b)
}

func TestMatVecGradients(t *testing.T) {
	m := NewMatrix(2, 3)
	m.Rows[0].Data = []float64{0.1, 0.2, -0.3}
	m.Rows[1].Data = []float64{-0.5, 0.7, 0.9}
	x := NewVec([]float64{1, -2, 0.5})
	w := NewVec([]float64{0.6, -1.4})
	params := append(m.Params(), x)
	checkGrads(t, func() *Scalar {
		return m.MatVec(x).Tanh().Dot(w)
	}, params...)
}

func TestConcatSliceGradients(t *testing.T) {
	a := NewVec([]float64{0.3, -1.2})
	b := NewVec([]float64{2.0, 0.5, -0.1})
	w := NewVec([]float64{1, 2, 3, 4})
	checkGrads(t, func() *Scalar {
		return Concat(a, b).Slice(1, 5).Tanh().Dot(w)
	}, a, b)
}

func TestSoftmax(t *testing.T) {
	v := NewVec([]float64{1, 2, 3})
	s := Softmax(v)
	assert.InDelta(t, 1.0, s.Sum().Data, 1e-12)
	assert.True(t, s.Data[0] < s.Data[1] && s.Data[1] < s.Data[2])

	w := NewVec([]float64{0.5, -1, 2})
	checkGrads(t, func() *Scalar {
		return Softmax(v).Dot(w)
	}, v)
}

func TestWeightedSumGradients(t *testing.T) {
	weights := NewVec([]float64{0.2, 0.8})
	a := NewVec([]float64{1, -1, 0.5})
	b := NewVec([]float64{0.3, 0.3, -2})
	checkGrads(t, func() *Scalar {
		return WeightedSum(weights, []*Vec{a, b}).Tanh().Sum()
	}, weights, a, b)
}

func TestAddAll(t *testing.T) {
	a := NewVec([]float64{1, 2})
	b := NewVec([]float64{3, 4})
	c := NewVec([]float64{-1, 0.5})
	sum := AddAll([]*Vec{a, b, c})
	assert.Equal(t, []float64{3, 6.5}, sum.Data)
	Backward(sum.Sum())
	assert.Equal(t, []float64{1, 1}, c.Grad)
}

func TestMaxWithZero(t *testing.T) {
	a := NewVec([]float64{-1, 2, -3})
	b := NewVec([]float64{-2, 1, 4})
	out := Max(3, []*Vec{a, b}, true)
	assert.Equal(t, []float64{0, 2, 4}, out.Data)

	Backward(out.Sum())
	assert.Equal(t, []float64{0, 1, 0}, a.Grad)
	assert.Equal(t, []float64{0, 0, 1}, b.Grad)

	ZeroGrad([]*Vec{a, b})
	out = Max(3, []*Vec{a, b}, false)
	assert.Equal(t, []float64{-1, 2, 4}, out.Data)
	Backward(out.Sum())
	assert.Equal(t, []float64{1, 1, 0}, a.Grad)
}

func TestBCEWithLogits(t *testing.T) {
	logits := []*Scalar{NewScalar(0), NewScalar(2), NewScalar(-3)}
	targets := []float64{1, 0, 0}
	loss := BCEWithLogits(logits, targets)

	expected := (math.Log(2) + (2 + math.Log1p(math.Exp(-2))) + math.Log1p(math.Exp(-3))) / 3
	assert.InDelta(t, expected, loss.Data, 1e-12)

	Backward(loss)
	assert.InDelta(t, (0.5-1)/3, logits[0].Grad, 1e-12)
	assert.InDelta(t, Sigmoid(2)/3, logits[1].Grad, 1e-12)
	assert.InDelta(t, Sigmoid(-3)/3, logits[2].Grad, 1e-12)
}

func TestBCEWithLogitsIsStableForLargeLogits(t *testing.T) {
	loss := BCEWithLogits([]*Scalar{NewScalar(1000), NewScalar(-1000)}, []float64{1, 0})
	assert.False(t, math.IsNaN(loss.Data) || math.IsInf(loss.Data, 0))
	assert.InDelta(t, 0, loss.Data, 1e-12)
}

func TestMeanOfScalars(t *testing.T) {
	a, b := NewScalar(1), NewScalar(4)
	m := Mean([]*Scalar{a, b.Mul(NewScalar(2)).Add(NewScalar(-1))})
	assert.InDelta(t, 4, m.Data, 1e-12)
	Backward(m)
	assert.InDelta(t, 0.5, a.Grad, 1e-12)
	assert.InDelta(t, 1, b.Grad, 1e-12)
}

func TestAdamMinimizesQuadratic(t *testing.T) {
	p := NewVec([]float64{3, -2})
	opt := NewAdam(0.1, 0)
	for i := 0; i < 1000; i++ {
		Backward(p.Mul(p).Sum())
		opt.Step([]*Vec{p})
	}
	assert.InDelta(t, 0, p.Data[0], 5e-2)
	assert.InDelta(t, 0, p.Data[1], 5e-2)
	assert.Equal(t, []float64{0, 0}, p.Grad)
	assert.Equal(t, 1000, opt.Steps())
}

func TestAdamFirstStepMovesByLearningRate(t *testing.T) {
	p := NewVec([]float64{1, 1})
	p.Grad = []float64{0.5, -3}
	opt := NewAdam(0.01, 0)
	opt.Step([]*Vec{p})
	require.Len(t, p.Data, 2)
	assert.InDelta(t, 0.99, p.Data[0], 1e-6)
	assert.InDelta(t, 1.01, p.Data[1], 1e-6)
}

func TestAdamWeightDecayShrinksParameters(t *testing.T) {
	p := NewVec([]float64{1})
	opt := NewAdam(0.01, 0.5)
	opt.Step([]*Vec{p})
	assert.Less(t, p.Data[0], 1.0)
}
