package autograd

import "math"

/*
Adam updates parameters with the Adam algorithm. WeightDecay adds an L2
penalty to the gradient of every parameter before the moments are updated,
so a zero WeightDecay gives plain Adam.
*/
type Adam struct {
	LR          float64
	Beta1       float64
	Beta2       float64
	Eps         float64
	WeightDecay float64

	step int
	m    map[*Vec][]float64
	v    map[*Vec][]float64
}

// NewAdam returns an Adam optimizer with the given learning rate and
// weight decay and the usual defaults for the rest of its settings.
func NewAdam(lr, weightDecay float64) *Adam {
	return &Adam{
		LR:          lr,
		Beta1:       0.9,
		Beta2:       0.999,
		Eps:         1e-8,
		WeightDecay: weightDecay,
	}
}

/*
Step updates the given parameters with their accumulated gradients and
zeroes those gradients afterwards.
*/
func (a *Adam) Step(params []*Vec) {
	if a.m == nil {
		a.m = make(map[*Vec][]float64)
		a.v = make(map[*Vec][]float64)
	}
	a.step++
	bc1 := 1 - math.Pow(a.Beta1, float64(a.step))
	bc2 := 1 - math.Pow(a.Beta2, float64(a.step))
	for _, p := range params {
		m, ok := a.m[p]
		if !ok {
			m = make([]float64, len(p.Data))
			a.m[p] = m
		}
		v, ok := a.v[p]
		if !ok {
			v = make([]float64, len(p.Data))
			a.v[p] = v
		}
		for i, g := range p.Grad {
			g += a.WeightDecay * p.Data[i]
			m[i] = a.Beta1*m[i] + (1-a.Beta1)*g
			v[i] = a.Beta2*v[i] + (1-a.Beta2)*g*g
			mHat := m[i] / bc1
			vHat := v[i] / bc2
			p.Data[i] -= a.LR * mHat / (math.Sqrt(vHat) + a.Eps)
		}
	}
	ZeroGrad(params)
}

// Steps returns the number of updates performed so far.
func (a *Adam) Steps() int {
	return a.step
}
