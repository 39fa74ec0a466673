package sapling

import (
	"fmt"

	"github.com/pbanos/sapling/ast"
	"github.com/pbanos/sapling/config"
	"github.com/pbanos/sapling/dataset"
)

func testParams() *config.Params {
	p, _ := config.Default("")
	p.NumConcepts = 2
	p.NumProblems = 4
	p.Seqlen = 4
	p.HiddenDim = 4
	p.HiddenLayers = 1
	p.ConceptEmbedDim = 4
	p.MaxTokens = 6
	p.AstEmbedDim = 3
	p.AstEncodeDim = 4
	p.MaxLen = 2
	p.BatchSize = 2
	p.LearningRate = 0.01
	p.Epochs = 4
	p.Patience = 2
	p.Folds = 2
	p.Seed = 7
	return p
}

// Problems 1 and 3 are always solved, 2 and 4 always failed.
func testStep(problem int) dataset.Step {
	concept := 1 + problem%2
	c := []float64{0, 0, 0}
	c[concept] = 1
	w := []float64{0, 0, 0}
	w[concept] = 0.5
	result := float64(problem % 2)
	return dataset.Step{
		Problem:        problem,
		Concepts:       c,
		Targets:        append([]float64{}, c...),
		ConceptWeights: w,
		Previous:       []float64{result, 1 - result},
		Result:         result,
		Trees:          []*ast.Node{{Type: problem, Left: ast.Leaf(5)}},
	}
}

func testSequences(n int) []*dataset.Sequence {
	var sequences []*dataset.Sequence
	for i := 0; i < n; i++ {
		s := &dataset.Sequence{Student: fmt.Sprintf("s%d", i)}
		for t := 0; t < 3; t++ {
			s.Steps = append(s.Steps, testStep(1+(i+t)%4))
		}
		sequences = append(sequences, s)
	}
	return sequences
}
