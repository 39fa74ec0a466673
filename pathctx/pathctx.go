/*
Package pathctx encodes bags of AST path contexts into code vectors in the
manner of code2vec.

A path context is a triple of a source terminal, the syntactic path between
two terminals and a target terminal. Every context is embedded as the
concatenation of the three embeddings, combined through a tanh layer, and
the code vector is the attention-weighted sum of the combined contexts.
*/
package pathctx

import (
	"fmt"
	"math/rand"

	"github.com/pbanos/sapling/autograd"
	"github.com/pbanos/sapling/dataset"
	"github.com/pbanos/sapling/nn"
)

// Encoder turns lists of path contexts into code vectors of length Dim.
type Encoder struct {
	Nodes       *nn.Embedding
	Paths       *nn.Embedding
	Combine     *nn.Linear
	Attention   *autograd.Vec
	MaxContexts int
	Dim         int
}

/*
New returns an Encoder over nodes terminal ids and paths path ids producing
code vectors of length dim. At most maxContexts contexts of every list are
taken into account; zero or a negative value means no limit.
*/
func New(nodes, paths, dim, maxContexts int, r *rand.Rand) *Encoder {
	e := &Encoder{
		Nodes:       nn.NewEmbedding(nodes, dim, r),
		Paths:       nn.NewEmbedding(paths, dim, r),
		Combine:     nn.NewLinear(3*dim, dim, false, r),
		Attention:   autograd.Zeros(dim),
		MaxContexts: maxContexts,
		Dim:         dim,
	}
	nn.Normal(r, 1, e.Attention)
	return e
}

/*
Encode returns the code vector for the given path contexts. An empty list
encodes to the zero vector. An error is returned when a context refers to a
terminal or path outside the vocabularies.
*/
func (e *Encoder) Encode(contexts []dataset.PathContext) (*autograd.Vec, error) {
	if e.MaxContexts > 0 && len(contexts) > e.MaxContexts {
		contexts = contexts[:e.MaxContexts]
	}
	if len(contexts) == 0 {
		return autograd.Zeros(e.Dim), nil
	}
	combined := make([]*autograd.Vec, len(contexts))
	scores := make([]*autograd.Scalar, len(contexts))
	for i, pc := range contexts {
		src, err := e.Nodes.Lookup(pc.Source)
		if err != nil {
			return nil, fmt.Errorf("source of path context %d: %v", i, err)
		}
		path, err := e.Paths.Lookup(pc.Path)
		if err != nil {
			return nil, fmt.Errorf("path of path context %d: %v", i, err)
		}
		tgt, err := e.Nodes.Lookup(pc.Target)
		if err != nil {
			return nil, fmt.Errorf("target of path context %d: %v", i, err)
		}
		combined[i] = e.Combine.Forward(autograd.Concat(src, path, tgt)).Tanh()
		scores[i] = combined[i].Dot(e.Attention)
	}
	weights := autograd.Softmax(autograd.Stack(scores))
	return autograd.WeightedSum(weights, combined), nil
}

// Params returns the parameters of the encoder.
func (e *Encoder) Params() []*autograd.Vec {
	params := nn.Params(e.Nodes, e.Paths, e.Combine)
	return append(params, e.Attention)
}
