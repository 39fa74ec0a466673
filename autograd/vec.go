/*
Package autograd implements reverse-mode automatic differentiation over
vectors and scalars, the parameter matrices built from them and an Adam
optimizer to update them.

Every operation returns a new value that remembers its inputs and how to
propagate its gradient back to them. Calling Backward on a result walks the
graph in reverse topological order accumulating gradients on every value that
took part in computing it, parameters included.
*/
package autograd

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Node is a value in the computation graph.
type Node interface {
	children() []Node
	backward()
}

/*
Vec is a differentiable vector
*/
type Vec struct {
	Data   []float64
	Grad   []float64
	kids   []Node
	backFn func()
}

// NewVec returns a vector holding the given data, without inputs.
func NewVec(data []float64) *Vec {
	return &Vec{Data: data, Grad: make([]float64, len(data))}
}

// Zeros returns a vector of n zeros, without inputs.
func Zeros(n int) *Vec {
	return NewVec(make([]float64, n))
}

func (v *Vec) children() []Node { return v.kids }

func (v *Vec) backward() {
	if v.backFn != nil {
		v.backFn()
	}
}

// Len returns the number of elements of the vector.
func (v *Vec) Len() int {
	return len(v.Data)
}

// Values returns a copy of the vector data.
func (v *Vec) Values() []float64 {
	result := make([]float64, len(v.Data))
	copy(result, v.Data)
	return result
}

func (v *Vec) String() string {
	return fmt.Sprintf("Vec%v", v.Data)
}

// Add returns the element-wise sum of v and other.
func (v *Vec) Add(other *Vec) *Vec {
	mustMatch("add", v, other)
	d := make([]float64, len(v.Data))
	floats.AddTo(d, v.Data, other.Data)
	out := NewVec(d)
	out.kids = []Node{v, other}
	out.backFn = func() {
		floats.Add(v.Grad, out.Grad)
		floats.Add(other.Grad, out.Grad)
	}
	return out
}

// Sub returns the element-wise difference of v and other.
func (v *Vec) Sub(other *Vec) *Vec {
	mustMatch("sub", v, other)
	d := make([]float64, len(v.Data))
	floats.SubTo(d, v.Data, other.Data)
	out := NewVec(d)
	out.kids = []Node{v, other}
	out.backFn = func() {
		floats.Add(v.Grad, out.Grad)
		floats.Sub(other.Grad, out.Grad)
	}
	return out
}

// Mul returns the element-wise product of v and other.
func (v *Vec) Mul(other *Vec) *Vec {
	mustMatch("mul", v, other)
	d := make([]float64, len(v.Data))
	floats.MulTo(d, v.Data, other.Data)
	out := NewVec(d)
	out.kids = []Node{v, other}
	vData, oData := v.Data, other.Data
	out.backFn = func() {
		for i, g := range out.Grad {
			v.Grad[i] += oData[i] * g
			other.Grad[i] += vData[i] * g
		}
	}
	return out
}

// Scale returns v multiplied by the constant s.
func (v *Vec) Scale(s float64) *Vec {
	d := make([]float64, len(v.Data))
	floats.ScaleTo(d, s, v.Data)
	out := NewVec(d)
	out.kids = []Node{v}
	out.backFn = func() {
		floats.AddScaled(v.Grad, s, out.Grad)
	}
	return out
}

// ReLU applies max(0, x) element-wise.
func (v *Vec) ReLU() *Vec {
	d := make([]float64, len(v.Data))
	for i, x := range v.Data {
		if x > 0 {
			d[i] = x
		}
	}
	out := NewVec(d)
	out.kids = []Node{v}
	vData := v.Data
	out.backFn = func() {
		for i, g := range out.Grad {
			if vData[i] > 0 {
				v.Grad[i] += g
			}
		}
	}
	return out
}

// Tanh applies the hyperbolic tangent element-wise.
func (v *Vec) Tanh() *Vec {
	d := make([]float64, len(v.Data))
	for i, x := range v.Data {
		d[i] = math.Tanh(x)
	}
	out := NewVec(d)
	out.kids = []Node{v}
	out.backFn = func() {
		for i, g := range out.Grad {
			v.Grad[i] += (1 - d[i]*d[i]) * g
		}
	}
	return out
}

// Sigmoid applies the logistic function element-wise.
func (v *Vec) Sigmoid() *Vec {
	d := make([]float64, len(v.Data))
	for i, x := range v.Data {
		d[i] = sigmoid(x)
	}
	out := NewVec(d)
	out.kids = []Node{v}
	out.backFn = func() {
		for i, g := range out.Grad {
			v.Grad[i] += d[i] * (1 - d[i]) * g
		}
	}
	return out
}

// Dot returns the dot product of v and other.
func (v *Vec) Dot(other *Vec) *Scalar {
	mustMatch("dot", v, other)
	out := &Scalar{Data: floats.Dot(v.Data, other.Data)}
	out.kids = []Node{v, other}
	vData, oData := v.Data, other.Data
	out.backFn = func() {
		floats.AddScaled(v.Grad, out.Grad, oData)
		floats.AddScaled(other.Grad, out.Grad, vData)
	}
	return out
}

// Sum returns the sum of the elements of v.
func (v *Vec) Sum() *Scalar {
	out := &Scalar{Data: floats.Sum(v.Data)}
	out.kids = []Node{v}
	out.backFn = func() {
		for i := range v.Grad {
			v.Grad[i] += out.Grad
		}
	}
	return out
}

// Slice returns the elements of v in [start, end).
func (v *Vec) Slice(start, end int) *Vec {
	d := make([]float64, end-start)
	copy(d, v.Data[start:end])
	out := NewVec(d)
	out.kids = []Node{v}
	out.backFn = func() {
		floats.Add(v.Grad[start:end], out.Grad)
	}
	return out
}

func mustMatch(op string, a, b *Vec) {
	if len(a.Data) != len(b.Data) {
		panic(fmt.Sprintf("autograd: %s of vectors of lengths %d and %d", op, len(a.Data), len(b.Data)))
	}
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// Sigmoid returns the logistic function of x.
func Sigmoid(x float64) float64 {
	return sigmoid(x)
}
