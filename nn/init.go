/*
Package nn provides the parametrised layers the models are built from:
embedding tables, linear projections and a multi-layer LSTM, together with
the initialisers that fill their parameters.

All initialisers take an explicit *rand.Rand so that a whole model can be
reproduced from a single seed.
*/
package nn

import (
	"math"
	"math/rand"

	"github.com/pbanos/sapling/autograd"
)

// Module is anything holding trainable parameters.
type Module interface {
	Params() []*autograd.Vec
}

// Params returns the parameters of all the given modules in order.
func Params(modules ...Module) []*autograd.Vec {
	var params []*autograd.Vec
	for _, m := range modules {
		params = append(params, m.Params()...)
	}
	return params
}

// Uniform fills the given vectors with values drawn from U(-bound, bound).
func Uniform(r *rand.Rand, bound float64, vecs ...*autograd.Vec) {
	for _, v := range vecs {
		for i := range v.Data {
			v.Data[i] = (2*r.Float64() - 1) * bound
		}
	}
}

// Normal fills the given vectors with values drawn from N(0, std²).
func Normal(r *rand.Rand, std float64, vecs ...*autograd.Vec) {
	for _, v := range vecs {
		for i := range v.Data {
			v.Data[i] = r.NormFloat64() * std
		}
	}
}

// Constant sets every element of the given vectors to c.
func Constant(c float64, vecs ...*autograd.Vec) {
	for _, v := range vecs {
		for i := range v.Data {
			v.Data[i] = c
		}
	}
}

/*
KaimingNormal fills m with values drawn from a normal distribution with
standard deviation sqrt(2 / fan_in), fan_in being the number of columns of
m. This is He initialisation for layers followed by rectifiers.
*/
func KaimingNormal(r *rand.Rand, m *autograd.Matrix) {
	Normal(r, math.Sqrt(2/float64(m.In)), m.Rows...)
}
