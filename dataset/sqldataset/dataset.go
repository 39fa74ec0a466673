package sqldataset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pbanos/sapling/ast"
	"github.com/pbanos/sapling/dataset"
)

type sqlDataset struct {
	adapter Adapter
}

type payload struct {
	Concepts       []float64             `json:"concepts"`
	Targets        []float64             `json:"targets"`
	ConceptWeights []float64             `json:"concept_weights"`
	Previous       []float64             `json:"previous"`
	Trees          []*ast.Node           `json:"trees,omitempty"`
	Paths          []dataset.PathContext `json:"paths,omitempty"`
}

/*
Open takes a context and an Adapter, ensures the steps table exists
and returns a dataset.Writer working on the adapter's database.
*/
func Open(ctx context.Context, adapter Adapter) (dataset.Writer, error) {
	err := adapter.CreateStepTable(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlDataset{adapter}, nil
}

func (sd *sqlDataset) Sequences(ctx context.Context) ([]*dataset.Sequence, error) {
	var result []*dataset.Sequence
	var current *dataset.Sequence
	err := sd.adapter.IterateOnSteps(ctx, func(row *StepRow) (bool, error) {
		if current == nil || current.Student != row.Student {
			current = &dataset.Sequence{Student: row.Student}
			result = append(result, current)
		}
		st, err := decodeStep(row)
		if err != nil {
			return false, err
		}
		current.Steps = append(current.Steps, st)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading sequences: %v", err)
	}
	return result, nil
}

func (sd *sqlDataset) Count(ctx context.Context) (int, error) {
	return sd.adapter.CountStudents(ctx)
}

/*
Write stores the steps of the given sequences. Windows of the same student
given in a single call are stored one after the other and read back as a
single sequence. Sequences for students that already have steps stored will
make the write fail.
*/
func (sd *sqlDataset) Write(ctx context.Context, sequences []*dataset.Sequence) (int, error) {
	var rows []*StepRow
	next := make(map[string]int)
	for _, s := range sequences {
		offset := next[s.Student]
		for pos := range s.Steps {
			row, err := encodeStep(s.Student, offset+pos, &s.Steps[pos])
			if err != nil {
				return 0, err
			}
			rows = append(rows, row)
		}
		next[s.Student] = offset + len(s.Steps)
	}
	_, err := sd.adapter.AddSteps(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("writing %d sequences: %v", len(sequences), err)
	}
	return len(sequences), nil
}

func encodeStep(student string, pos int, st *dataset.Step) (*StepRow, error) {
	p := &payload{
		Concepts:       st.Concepts,
		Targets:        st.Targets,
		ConceptWeights: st.ConceptWeights,
		Previous:       st.Previous,
		Trees:          st.Trees,
		Paths:          st.Paths,
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding step %d of student %q: %v", pos, student, err)
	}
	return &StepRow{
		Student:  student,
		Position: pos,
		Problem:  st.Problem,
		Result:   st.Result,
		Payload:  string(data),
	}, nil
}

func decodeStep(row *StepRow) (dataset.Step, error) {
	p := &payload{}
	err := json.Unmarshal([]byte(row.Payload), p)
	if err != nil {
		return dataset.Step{}, fmt.Errorf("decoding step %d of student %q: %v", row.Position, row.Student, err)
	}
	return dataset.Step{
		Problem:        row.Problem,
		Concepts:       p.Concepts,
		Trees:          p.Trees,
		Paths:          p.Paths,
		Targets:        p.Targets,
		Result:         row.Result,
		ConceptWeights: p.ConceptWeights,
		Previous:       p.Previous,
	}, nil
}
