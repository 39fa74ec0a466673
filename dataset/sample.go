package dataset

import (
	"fmt"

	"github.com/pbanos/sapling/ast"
)

/*
PathContext is a code2vec path context: the ids of a source terminal, of
the syntactic path leading from it to another terminal and of that target
terminal.
*/
type PathContext struct {
	Source int `json:"source" bson:"source"`
	Path   int `json:"path" bson:"path"`
	Target int `json:"target" bson:"target"`
}

/*
Step is one interaction of a student: the problem attempted, the concepts
it involves, the code submitted and whether it was correct.

Concepts is the multi-hot concept membership of the problem and
ConceptWeights its pretrained per-concept weights, both of length
num_concepts+1. Targets marks the concepts the prediction for this step is
about; a step with no target is padding and is left out of losses and
metrics. Previous is the feature vector describing the result of the
previous interaction. Trees holds the subtrees of the submission AST in
traversal order and Paths its path contexts.
*/
type Step struct {
	Problem        int           `json:"problem"`
	Concepts       []float64     `json:"concepts"`
	Trees          []*ast.Node   `json:"trees,omitempty"`
	Paths          []PathContext `json:"paths,omitempty"`
	Targets        []float64     `json:"targets"`
	Result         float64       `json:"result"`
	ConceptWeights []float64     `json:"concept_weights"`
	Previous       []float64     `json:"previous"`
}

// TargetCount returns the number of target concepts of the step.
func (s *Step) TargetCount() float64 {
	var n float64
	for _, t := range s.Targets {
		n += t
	}
	return n
}

// Padding returns whether the step has no target concept.
func (s *Step) Padding() bool {
	return s.TargetCount() == 0
}

/*
Sequence is the chronologically ordered list of interactions of a student.
*/
type Sequence struct {
	Student string `json:"student"`
	Steps   []Step `json:"steps"`
}

// Len returns the number of steps in the sequence.
func (s *Sequence) Len() int {
	return len(s.Steps)
}

func (s *Sequence) String() string {
	return fmt.Sprintf("[%s: %d steps]", s.Student, len(s.Steps))
}
