package autograd

import "fmt"

/*
Scalar is a differentiable scalar, used for losses and selected logits
*/
type Scalar struct {
	Data   float64
	Grad   float64
	kids   []Node
	backFn func()
}

// NewScalar returns a scalar holding the given value, without inputs.
func NewScalar(data float64) *Scalar {
	return &Scalar{Data: data}
}

func (s *Scalar) children() []Node { return s.kids }

func (s *Scalar) backward() {
	if s.backFn != nil {
		s.backFn()
	}
}

func (s *Scalar) String() string {
	return fmt.Sprintf("Scalar(%g)", s.Data)
}

// Add returns s + other.
func (s *Scalar) Add(other *Scalar) *Scalar {
	out := &Scalar{Data: s.Data + other.Data}
	out.kids = []Node{s, other}
	out.backFn = func() {
		s.Grad += out.Grad
		other.Grad += out.Grad
	}
	return out
}

// Mul returns s * other.
func (s *Scalar) Mul(other *Scalar) *Scalar {
	out := &Scalar{Data: s.Data * other.Data}
	out.kids = []Node{s, other}
	sData, oData := s.Data, other.Data
	out.backFn = func() {
		s.Grad += oData * out.Grad
		other.Grad += sData * out.Grad
	}
	return out
}

// Scale returns s multiplied by the constant f.
func (s *Scalar) Scale(f float64) *Scalar {
	out := &Scalar{Data: s.Data * f}
	out.kids = []Node{s}
	out.backFn = func() {
		s.Grad += f * out.Grad
	}
	return out
}

// Stack returns a vector with the values of the given scalars.
func Stack(scalars []*Scalar) *Vec {
	d := make([]float64, len(scalars))
	kids := make([]Node, len(scalars))
	for i, s := range scalars {
		d[i] = s.Data
		kids[i] = s
	}
	out := NewVec(d)
	out.kids = kids
	out.backFn = func() {
		for i, s := range scalars {
			s.Grad += out.Grad[i]
		}
	}
	return out
}

// Mean returns the mean of the given scalars, which must not be empty.
func Mean(scalars []*Scalar) *Scalar {
	return Stack(scalars).Sum().Scale(1 / float64(len(scalars)))
}
