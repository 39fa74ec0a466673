/*
Package model implements knowledge tracing models that predict whether a
student will solve a problem from the code they submitted before.

Every step of a sequence feeds a recurrent network with the concept weights
of the step, a summary of the code submitted for it and the result of the
previous step. The hidden state is projected to one logit per concept and
the prediction for a step is the mean of the logits of its target concepts.

Two variants summarise code differently: astnn-attn encodes the subtrees of
every submission with a TreeEncoder and attends over them once per concept,
while code2vec-concat encodes the path contexts of every submission.
*/
package model

import (
	"fmt"
	"math/rand"

	"github.com/pbanos/sapling/ast"
	"github.com/pbanos/sapling/attention"
	"github.com/pbanos/sapling/autograd"
	"github.com/pbanos/sapling/config"
	"github.com/pbanos/sapling/dataset"
	"github.com/pbanos/sapling/encoder"
	"github.com/pbanos/sapling/nn"
	"github.com/pbanos/sapling/pathctx"
	"github.com/pbanos/sapling/sequence"
	"gonum.org/v1/gonum/mat"
)

/*
Model is a knowledge tracing model. Only the components of its variant
are set: Encoder, Assembler and Attention for astnn-attn and Paths for
code2vec-concat.
*/
type Model struct {
	Params   *config.Params
	Problems *nn.Embedding

	Encoder   *encoder.TreeEncoder
	Assembler *sequence.Assembler
	Attention *attention.ConceptAttention

	Paths *pathctx.Encoder

	LSTM    *nn.LSTM
	Predict *nn.Linear
}

/*
Position identifies a step of a batch by the index of its sequence in the
batch and its index in the sequence.
*/
type Position struct {
	Sequence int
	Step     int
}

/*
Output is the result of running a model over a batch. Probabilities, Labels
and Positions have one element per step with at least one target concept,
in batch order.
*/
type Output struct {
	Loss          *autograd.Scalar
	Probabilities []float64
	Labels        []float64
	Positions     []Position
}

/*
New takes validated parameters and a random source and returns a model of
the variant the parameters name with freshly initialised parameters.
*/
func New(p *config.Params, r *rand.Rand) (*Model, error) {
	err := p.Validate()
	if err != nil {
		return nil, fmt.Errorf("building model: %v", err)
	}
	m := &Model{Params: p}
	concepts := p.Concepts()
	var codeDim int
	switch p.Model {
	case config.ASTNNAttention:
		m.Encoder = encoder.New(p.MaxTokens, p.AstEmbedDim, p.AstEncodeDim, r)
		m.Assembler = &sequence.Assembler{MaxLen: p.MaxLen, Dim: p.AstEncodeDim}
		m.Attention = attention.New(concepts, p.AstEncodeDim, p.ConceptEmbedDim, r)
		codeDim = p.ConceptEmbedDim
	case config.Code2VecConcat:
		m.Paths = pathctx.New(p.NodesDim, p.PathsDim, p.CodevecSize, p.MaxContexts, r)
		codeDim = p.CodevecSize
	}
	m.Problems = nn.NewEmbedding(p.NumProblems+1, p.ConceptEmbedDim, r)
	nn.KaimingNormal(r, m.Problems.Table)
	m.LSTM = nn.NewLSTM(concepts+codeDim+p.PreviousDim, p.HiddenDim, p.HiddenLayers, r)
	m.Predict = nn.NewLinear(p.HiddenDim, concepts, true, r)
	nn.KaimingNormal(r, m.Predict.Weight)
	nn.Constant(0, m.Predict.Bias)
	return m, nil
}

// LoadTokenEmbedding replaces the AST node type embedding with pretrained
// values.
func (m *Model) LoadTokenEmbedding(weights mat.Matrix) error {
	if m.Encoder == nil {
		return fmt.Errorf("model %s has no node type embedding", m.Params.Model)
	}
	return m.Encoder.Embedding.Load(weights)
}

/*
Forward runs the model over a batch of sequences and returns the loss and
predictions for every step with a target concept. Steps without targets
take part in the recurrence but not in the loss nor the predictions.

An ErrNoTargets error is returned if no step of the batch has a target, and
other errors if a sequence is longer than the configured seqlen or its
code cannot be encoded.
*/
func (m *Model) Forward(batch []*dataset.Sequence) (*Output, error) {
	summaries, err := m.summarize(batch)
	if err != nil {
		return nil, err
	}
	var logits []*autograd.Scalar
	out := &Output{}
	for b, s := range batch {
		inputs := make([]*autograd.Vec, len(s.Steps))
		for t := range s.Steps {
			st := &s.Steps[t]
			inputs[t] = autograd.Concat(autograd.NewVec(st.ConceptWeights), summaries[b][t], autograd.NewVec(st.Previous))
		}
		hidden, err := m.LSTM.Forward(inputs)
		if err != nil {
			return nil, fmt.Errorf("sequence %d: %v", b, err)
		}
		for t, h := range hidden {
			st := &s.Steps[t]
			n := st.TargetCount()
			if n == 0 {
				continue
			}
			logit := m.Predict.Forward(h).Dot(autograd.NewVec(st.Targets)).Scale(1 / n)
			logits = append(logits, logit)
			out.Probabilities = append(out.Probabilities, autograd.Sigmoid(logit.Data))
			out.Labels = append(out.Labels, st.Result)
			out.Positions = append(out.Positions, Position{Sequence: b, Step: t})
		}
	}
	if len(logits) == 0 {
		return nil, ErrNoTargets
	}
	out.Loss = autograd.BCEWithLogits(logits, out.Labels)
	return out, nil
}

// summarize returns the code summary of every step of every sequence.
func (m *Model) summarize(batch []*dataset.Sequence) ([][]*autograd.Vec, error) {
	for b, s := range batch {
		if len(s.Steps) > m.Params.Seqlen {
			return nil, fmt.Errorf("sequence %d of student %q has %d steps, more than seqlen %d", b, s.Student, len(s.Steps), m.Params.Seqlen)
		}
	}
	if m.Paths != nil {
		return m.summarizePaths(batch)
	}
	return m.summarizeTrees(batch)
}

func (m *Model) summarizePaths(batch []*dataset.Sequence) ([][]*autograd.Vec, error) {
	result := make([][]*autograd.Vec, len(batch))
	for b, s := range batch {
		result[b] = make([]*autograd.Vec, len(s.Steps))
		for t := range s.Steps {
			v, err := m.Paths.Encode(s.Steps[t].Paths)
			if err != nil {
				return nil, fmt.Errorf("sequence %d step %d: %v", b, t, err)
			}
			result[b][t] = v
		}
	}
	return result, nil
}

func (m *Model) summarizeTrees(batch []*dataset.Sequence) ([][]*autograd.Vec, error) {
	seqlen := m.Params.Seqlen
	students := make([][][]*autograd.Vec, len(batch))
	membership := make([][][]float64, len(batch))
	weights := make([][]*autograd.Vec, len(batch))
	concepts := m.Params.Concepts()
	for b, s := range batch {
		blocks, err := m.encodeStudent(s)
		if err != nil {
			return nil, fmt.Errorf("sequence %d: %v", b, err)
		}
		students[b] = blocks
		membership[b] = make([][]float64, seqlen)
		weights[b] = make([]*autograd.Vec, seqlen)
		for t := 0; t < seqlen; t++ {
			if t < len(s.Steps) {
				membership[b][t] = s.Steps[t].Concepts
				weights[b][t] = autograd.NewVec(s.Steps[t].ConceptWeights)
				continue
			}
			membership[b][t] = make([]float64, concepts)
			weights[b][t] = autograd.Zeros(concepts)
		}
	}
	grid, err := m.Assembler.Batch(students, seqlen)
	if err != nil {
		return nil, err
	}
	attended, err := m.Attention.Forward(membership, weights, grid)
	if err != nil {
		return nil, err
	}
	result := make([][]*autograd.Vec, len(batch))
	for b, s := range batch {
		result[b] = attended[b][:len(s.Steps)]
	}
	return result, nil
}

// encodeStudent encodes all the trees of a sequence at once and returns
// them split by step.
func (m *Model) encodeStudent(s *dataset.Sequence) ([][]*autograd.Vec, error) {
	var trees []*ast.Node
	for t := range s.Steps {
		trees = append(trees, s.Steps[t].Trees...)
	}
	encoded, err := m.Encoder.Encode(trees)
	if err != nil {
		return nil, err
	}
	blocks := make([][]*autograd.Vec, len(s.Steps))
	start := 0
	for t := range s.Steps {
		end := start + len(s.Steps[t].Trees)
		blocks[t] = encoded[start:end]
		start = end
	}
	return blocks, nil
}

// Parameters returns the trainable parameters of the model.
func (m *Model) Parameters() []*autograd.Vec {
	modules := []nn.Module{m.Problems}
	if m.Encoder != nil {
		modules = append(modules, m.Encoder, m.Attention)
	}
	if m.Paths != nil {
		modules = append(modules, m.Paths)
	}
	modules = append(modules, m.LSTM, m.Predict)
	return nn.Params(modules...)
}
