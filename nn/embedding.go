package nn

import (
	"fmt"
	"math/rand"

	"github.com/pbanos/sapling/autograd"
	"gonum.org/v1/gonum/mat"
)

/*
Embedding is a lookup table mapping ids in [0, Num) to trainable vectors of
length Dim.
*/
type Embedding struct {
	Table *autograd.Matrix
	Num   int
	Dim   int
}

// NewEmbedding returns an embedding table of num vectors of length dim
// with every value drawn from N(0, 1).
func NewEmbedding(num, dim int, r *rand.Rand) *Embedding {
	t := autograd.NewMatrix(num, dim)
	Normal(r, 1, t.Rows...)
	return &Embedding{Table: t, Num: num, Dim: dim}
}

/*
Lookup returns the vector for the given id. The returned vector is the
parameter itself, so gradients flowing into it train the table. An error is
returned for ids outside the table.
*/
func (e *Embedding) Lookup(id int) (*autograd.Vec, error) {
	if id < 0 || id >= e.Num {
		return nil, fmt.Errorf("embedding id %d out of range [0, %d)", id, e.Num)
	}
	return e.Table.Rows[id], nil
}

// Load replaces the values of the table with those of a pretrained matrix
// of the same shape.
func (e *Embedding) Load(weights mat.Matrix) error {
	err := e.Table.Load(weights)
	if err != nil {
		return fmt.Errorf("loading pretrained embedding: %v", err)
	}
	return nil
}

// Params returns the rows of the table.
func (e *Embedding) Params() []*autograd.Vec {
	return e.Table.Params()
}
