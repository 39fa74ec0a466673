package nn

import (
	"math"
	"math/rand"

	"github.com/pbanos/sapling/autograd"
)

// Linear is an affine projection from In to Out dimensions. Bias is nil
// for layers without bias.
type Linear struct {
	Weight *autograd.Matrix
	Bias   *autograd.Vec
	In     int
	Out    int
}

/*
NewLinear returns a linear layer from in to out dimensions with weights and
bias drawn from U(-1/sqrt(in), 1/sqrt(in)).
*/
func NewLinear(in, out int, bias bool, r *rand.Rand) *Linear {
	l := &Linear{Weight: autograd.NewMatrix(out, in), In: in, Out: out}
	bound := 1 / math.Sqrt(float64(in))
	Uniform(r, bound, l.Weight.Rows...)
	if bias {
		l.Bias = autograd.Zeros(out)
		Uniform(r, bound, l.Bias)
	}
	return l
}

// Forward returns W·x + b.
func (l *Linear) Forward(x *autograd.Vec) *autograd.Vec {
	y := l.Weight.MatVec(x)
	if l.Bias != nil {
		y = y.Add(l.Bias)
	}
	return y
}

// Params returns the weight rows followed by the bias, if any.
func (l *Linear) Params() []*autograd.Vec {
	params := append([]*autograd.Vec{}, l.Weight.Params()...)
	if l.Bias != nil {
		params = append(params, l.Bias)
	}
	return params
}
