package autograd

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

/*
Matrix is a parameter matrix stored as one differentiable vector per row,
with shape (Out, In).
*/
type Matrix struct {
	Rows []*Vec
	Out  int
	In   int
}

// NewMatrix returns a zero matrix of shape (out, in).
func NewMatrix(out, in int) *Matrix {
	rows := make([]*Vec, out)
	for i := range rows {
		rows[i] = Zeros(in)
	}
	return &Matrix{Rows: rows, Out: out, In: in}
}

// MatVec returns the product of the matrix and x.
func (m *Matrix) MatVec(x *Vec) *Vec {
	if len(x.Data) != m.In {
		panic(fmt.Sprintf("autograd: product of %dx%d matrix and vector of length %d", m.Out, m.In, len(x.Data)))
	}
	d := make([]float64, m.Out)
	for i, r := range m.Rows {
		d[i] = floats.Dot(r.Data, x.Data)
	}
	kids := make([]Node, m.Out+1)
	for i, r := range m.Rows {
		kids[i] = r
	}
	kids[m.Out] = x
	out := NewVec(d)
	out.kids = kids
	rows := m.Rows
	xData := x.Data
	out.backFn = func() {
		for i, g := range out.Grad {
			if g == 0 {
				continue
			}
			floats.AddScaled(rows[i].Grad, g, xData)
			floats.AddScaled(x.Grad, g, rows[i].Data)
		}
	}
	return out
}

// Params returns the rows of the matrix.
func (m *Matrix) Params() []*Vec {
	return m.Rows
}

/*
Load takes a gonum matrix with the same shape as m and copies its values
onto m, returning an error if the shapes differ.
*/
func (m *Matrix) Load(src mat.Matrix) error {
	r, c := src.Dims()
	if r != m.Out || c != m.In {
		return fmt.Errorf("loading %dx%d values onto %dx%d matrix", r, c, m.Out, m.In)
	}
	for i, row := range m.Rows {
		mat.Row(row.Data, i, src)
	}
	return nil
}

// Dense returns a copy of the matrix values as a gonum dense matrix.
func (m *Matrix) Dense() *mat.Dense {
	d := mat.NewDense(m.Out, m.In, nil)
	for i, row := range m.Rows {
		d.SetRow(i, row.Data)
	}
	return d
}
