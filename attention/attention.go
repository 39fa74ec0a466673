/*
Package attention summarises the assembled code of every step by attending
over its rows once per concept the step involves.
*/
package attention

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pbanos/sapling/autograd"
	"github.com/pbanos/sapling/nn"
	"github.com/pbanos/sapling/sequence"
)

/*
ConceptAttention holds an embedding of Dim dimensions for every concept
slot and the projection of encoded code rows onto the same space.

For every step and every concept slot c the step belongs to, the concept
embedding scaled by the step's weight for c queries the projected rows of
the step with scaled dot-product attention. The pooled rows are scaled by
the weight again and the result of the step is the sum over its concepts
divided by their count, or by one for steps without concepts.
*/
type ConceptAttention struct {
	Concepts *nn.Embedding
	Project  *nn.Linear
	Dim      int
}

/*
New returns a ConceptAttention for the given number of concept slots,
projecting rows of encodeDim dimensions onto dim. Concept embeddings and
the projection start Kaiming normal.
*/
func New(concepts, encodeDim, dim int, r *rand.Rand) *ConceptAttention {
	ca := &ConceptAttention{
		Concepts: nn.NewEmbedding(concepts, dim, r),
		Project:  nn.NewLinear(encodeDim, dim, false, r),
		Dim:      dim,
	}
	nn.KaimingNormal(r, ca.Concepts.Table)
	nn.KaimingNormal(r, ca.Project.Weight)
	return ca
}

/*
Forward takes the concept membership and concept weights of every step of a
batch, indexed by student and step, and the assembled code of the batch, and
returns the summary vector of every step.
*/
func (ca *ConceptAttention) Forward(membership [][][]float64, weights [][]*autograd.Vec, grid sequence.Grid) ([][]*autograd.Vec, error) {
	if len(membership) != len(grid) || len(weights) != len(grid) {
		return nil, fmt.Errorf("attention over %d students with membership for %d and weights for %d", len(grid), len(membership), len(weights))
	}
	result := make([][]*autograd.Vec, len(grid))
	for b, steps := range grid {
		if len(membership[b]) != len(steps) || len(weights[b]) != len(steps) {
			return nil, fmt.Errorf("student %d: attention over %d steps with membership for %d and weights for %d", b, len(steps), len(membership[b]), len(weights[b]))
		}
		result[b] = make([]*autograd.Vec, len(steps))
		for t, block := range steps {
			out, err := ca.step(membership[b][t], weights[b][t], block)
			if err != nil {
				return nil, fmt.Errorf("student %d step %d: %v", b, t, err)
			}
			result[b][t] = out
		}
	}
	return result, nil
}

func (ca *ConceptAttention) step(membership []float64, weights *autograd.Vec, block []*autograd.Vec) (*autograd.Vec, error) {
	if len(membership) != ca.Concepts.Num || weights.Len() != ca.Concepts.Num {
		return nil, fmt.Errorf("membership of length %d and weights of length %d for %d concepts", len(membership), weights.Len(), ca.Concepts.Num)
	}
	var count float64
	var slots []int
	for c, m := range membership {
		count += m
		if m > 0 {
			slots = append(slots, c)
		}
	}
	if len(slots) == 0 || len(block) == 0 {
		return autograd.Zeros(ca.Dim), nil
	}
	keys := make([]*autograd.Vec, len(block))
	for j, row := range block {
		keys[j] = ca.Project.Forward(row)
	}
	scale := 1 / math.Sqrt(float64(ca.Dim))
	pooled := make([]*autograd.Vec, 0, len(slots))
	for _, c := range slots {
		w := weights.Slice(c, c+1)
		e, err := ca.Concepts.Lookup(c)
		if err != nil {
			return nil, err
		}
		query := broadcast(w, ca.Dim).Mul(e)
		scores := make([]*autograd.Scalar, len(keys))
		for j, k := range keys {
			scores[j] = query.Dot(k).Scale(scale)
		}
		attended := autograd.WeightedSum(autograd.Softmax(autograd.Stack(scores)), keys)
		pooled = append(pooled, attended.Mul(broadcast(w, ca.Dim)))
	}
	if count == 0 {
		count = 1
	}
	return autograd.AddAll(pooled).Scale(1 / count), nil
}

// broadcast repeats the single element of w n times.
func broadcast(w *autograd.Vec, n int) *autograd.Vec {
	parts := make([]*autograd.Vec, n)
	for i := range parts {
		parts[i] = w
	}
	return autograd.Concat(parts...)
}

// Params returns the concept embeddings and the projection weights.
func (ca *ConceptAttention) Params() []*autograd.Vec {
	return nn.Params(ca.Concepts, ca.Project)
}
