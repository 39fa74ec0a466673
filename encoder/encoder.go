/*
Package encoder turns batches of abstract syntax trees into fixed-size
vectors.

A TreeEncoder visits the trees of a batch level by level. At every level the
nodes of the frontier are embedded and projected, their children are
encoded recursively slot by slot and added in through a per-slot projection.
Every recursive call emits the vectors it computed for the rows of the batch
it touched, and the encoding of a row is the element-wise maximum of every
vector emitted for it, with zero standing in for the levels that did not
reach the row.
*/
package encoder

import (
	"fmt"
	"math/rand"

	"github.com/pbanos/sapling/ast"
	"github.com/pbanos/sapling/autograd"
	"github.com/pbanos/sapling/nn"
)

// TreeEncoder encodes batches of trees into vectors of length EncodeDim.
type TreeEncoder struct {
	Embedding *nn.Embedding
	Combine   *nn.Linear
	Children  [ast.MaxChildren]*nn.Linear
	EncodeDim int
}

/*
New returns a TreeEncoder for node types in [0, vocab) embedded in embedDim
dimensions and encoded in encodeDim dimensions, with parameters drawn from r.
*/
func New(vocab, embedDim, encodeDim int, r *rand.Rand) *TreeEncoder {
	te := &TreeEncoder{
		Embedding: nn.NewEmbedding(vocab, embedDim, r),
		Combine:   nn.NewLinear(embedDim, encodeDim, true, r),
		EncodeDim: encodeDim,
	}
	for slot := range te.Children {
		te.Children[slot] = nn.NewLinear(encodeDim, encodeDim, true, r)
	}
	return te
}

// level holds the vectors emitted by one recursive call, keyed by row.
type level map[int]*autograd.Vec

// accumulator collects the levels emitted during a single Encode call.
type accumulator struct {
	levels []level
}

/*
Encode takes a batch of trees and returns one vector per tree, in the same
order. An error is returned if a node has a type outside the vocabulary.
Calls to Encode do not share any state other than the parameters, so they
may run concurrently as long as nothing updates the parameters meanwhile.
*/
func (te *TreeEncoder) Encode(trees []*ast.Node) ([]*autograd.Vec, error) {
	rows := make([]int, len(trees))
	for i := range rows {
		rows[i] = i
	}
	acc := &accumulator{}
	_, err := te.visit(trees, rows, acc)
	if err != nil {
		return nil, fmt.Errorf("encoding %d trees: %v", len(trees), err)
	}
	result := make([]*autograd.Vec, len(trees))
	for r := range result {
		var emitted []*autograd.Vec
		for _, l := range acc.levels {
			if v, ok := l[r]; ok {
				emitted = append(emitted, v)
			}
		}
		result[r] = autograd.Max(te.EncodeDim, emitted, len(emitted) < len(acc.levels))
	}
	return result, nil
}

// visit encodes a frontier of nodes whose batch rows are given in rows and
// returns the vector of every node of the frontier.
func (te *TreeEncoder) visit(frontier []*ast.Node, rows []int, acc *accumulator) ([]*autograd.Vec, error) {
	if len(frontier) == 0 {
		return nil, nil
	}
	current := make([]*autograd.Vec, len(frontier))
	for i, n := range frontier {
		if n == nil {
			return nil, ast.ErrEmptyNode
		}
		e, err := te.Embedding.Lookup(n.Type)
		if err != nil {
			return nil, fmt.Errorf("node type %d: %v", n.Type, err)
		}
		current[i] = te.Combine.Forward(e)
	}
	for slot := 0; slot < ast.MaxChildren; slot++ {
		var parents []int
		var children []*ast.Node
		var childRows []int
		for i, n := range frontier {
			c := n.Child(slot)
			if c == nil {
				continue
			}
			parents = append(parents, i)
			children = append(children, c)
			childRows = append(childRows, rows[i])
		}
		encoded, err := te.visit(children, childRows, acc)
		if err != nil {
			return nil, err
		}
		for k, i := range parents {
			current[i] = current[i].Add(te.Children[slot].Forward(encoded[k]))
		}
	}
	emitted := make(level, len(frontier))
	for i, r := range rows {
		emitted[r] = current[i]
	}
	acc.levels = append(acc.levels, emitted)
	return current, nil
}

// Params returns the parameters of the encoder.
func (te *TreeEncoder) Params() []*autograd.Vec {
	modules := []nn.Module{te.Embedding, te.Combine}
	for _, c := range te.Children {
		modules = append(modules, c)
	}
	return nn.Params(modules...)
}
