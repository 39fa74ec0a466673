package autograd

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Concat joins the given vectors into one.
func Concat(vecs ...*Vec) *Vec {
	total := 0
	for _, v := range vecs {
		total += len(v.Data)
	}
	d := make([]float64, 0, total)
	kids := make([]Node, len(vecs))
	for i, v := range vecs {
		d = append(d, v.Data...)
		kids[i] = v
	}
	out := NewVec(d)
	out.kids = kids
	out.backFn = func() {
		offset := 0
		for _, v := range vecs {
			n := len(v.Data)
			floats.Add(v.Grad, out.Grad[offset:offset+n])
			offset += n
		}
	}
	return out
}

// AddAll returns the element-wise sum of the given vectors, which must
// not be empty.
func AddAll(vecs []*Vec) *Vec {
	d := make([]float64, len(vecs[0].Data))
	kids := make([]Node, len(vecs))
	for i, v := range vecs {
		mustMatch("add", vecs[0], v)
		floats.Add(d, v.Data)
		kids[i] = v
	}
	out := NewVec(d)
	out.kids = kids
	out.backFn = func() {
		for _, v := range vecs {
			floats.Add(v.Grad, out.Grad)
		}
	}
	return out
}

/*
Max returns the element-wise maximum of the given vectors of length n. When
withZero is true an implicit vector of zeros takes part in the maximum. The
gradient of every element flows only to the vector that held the maximum,
the first one in case of ties, and nowhere when the implicit zero wins.
*/
func Max(n int, vecs []*Vec, withZero bool) *Vec {
	kids := make([]Node, len(vecs))
	for i, v := range vecs {
		if len(v.Data) != n {
			panic("autograd: max of vectors of different lengths")
		}
		kids[i] = v
	}
	d := make([]float64, n)
	argmax := make([]int, n)
	for k := range d {
		best, idx := math.Inf(-1), -1
		if withZero {
			best = 0
		}
		for i, v := range vecs {
			if v.Data[k] > best {
				best, idx = v.Data[k], i
			}
		}
		if idx == -1 && !withZero {
			best = 0
		}
		d[k], argmax[k] = best, idx
	}
	out := NewVec(d)
	out.kids = kids
	out.backFn = func() {
		for k, idx := range argmax {
			if idx >= 0 {
				vecs[idx].Grad[k] += out.Grad[k]
			}
		}
	}
	return out
}

// Softmax returns the softmax of the elements of v.
func Softmax(v *Vec) *Vec {
	d := make([]float64, len(v.Data))
	if len(d) == 0 {
		return NewVec(d)
	}
	max := floats.Max(v.Data)
	total := 0.0
	for i, x := range v.Data {
		d[i] = math.Exp(x - max)
		total += d[i]
	}
	floats.Scale(1/total, d)
	out := NewVec(d)
	out.kids = []Node{v}
	out.backFn = func() {
		dot := floats.Dot(out.Grad, d)
		for i, g := range out.Grad {
			v.Grad[i] += d[i] * (g - dot)
		}
	}
	return out
}

// WeightedSum returns the sum of the given values, each multiplied by the
// element of weights at the same position.
func WeightedSum(weights *Vec, values []*Vec) *Vec {
	if len(weights.Data) != len(values) {
		panic("autograd: weighted sum with mismatching weights and values")
	}
	d := make([]float64, len(values[0].Data))
	kids := make([]Node, 0, len(values)+1)
	kids = append(kids, weights)
	for j, v := range values {
		floats.AddScaled(d, weights.Data[j], v.Data)
		kids = append(kids, v)
	}
	out := NewVec(d)
	out.kids = kids
	w := weights.Data
	out.backFn = func() {
		for j, v := range values {
			weights.Grad[j] += floats.Dot(v.Data, out.Grad)
			floats.AddScaled(v.Grad, w[j], out.Grad)
		}
	}
	return out
}
