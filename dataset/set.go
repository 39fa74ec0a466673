/*
Package dataset defines the interaction sequences models learn from and the
Dataset interface implemented by the sources they are read from, together
with the helpers to validate, window and batch them.
*/
package dataset

import (
	"context"
	"fmt"
	"math/rand"
)

/*
Dataset represents a collection of interaction sequences.

Its Sequences method returns the sequences it contains, in a stable order.

Its Count method returns the number of sequences it contains.
*/
type Dataset interface {
	Sequences(context.Context) ([]*Sequence, error)
	Count(context.Context) (int, error)
}

/*
Writer is a Dataset to which sequences can be added. Its Write method
returns the number of sequences actually written.
*/
type Writer interface {
	Dataset
	Write(context.Context, []*Sequence) (int, error)
}

type memoryDataset struct {
	sequences []*Sequence
}

// New takes a slice of sequences and returns a dataset holding them in memory.
func New(sequences []*Sequence) Writer {
	return &memoryDataset{sequences}
}

func (md *memoryDataset) Sequences(ctx context.Context) ([]*Sequence, error) {
	return md.sequences, nil
}

func (md *memoryDataset) Count(ctx context.Context) (int, error) {
	return len(md.sequences), nil
}

func (md *memoryDataset) Write(ctx context.Context, sequences []*Sequence) (int, error) {
	md.sequences = append(md.sequences, sequences...)
	return len(sequences), nil
}

/*
Shape describes the vector lengths every step of a sequence must have:
Concepts is num_concepts+1 and Previous the length of the previous-result
feature vector.
*/
type Shape struct {
	Concepts int
	Previous int
}

/*
Validate checks that every step of the given sequences has vectors of the
lengths the shape prescribes and a binary result. It returns an error
describing the first offending step.
*/
func Validate(sequences []*Sequence, shape Shape) error {
	for _, s := range sequences {
		for t := range s.Steps {
			st := &s.Steps[t]
			for name, l := range map[string]int{
				"concepts":        len(st.Concepts),
				"targets":         len(st.Targets),
				"concept weights": len(st.ConceptWeights),
			} {
				if l != shape.Concepts {
					return fmt.Errorf("student %q step %d: %s vector has length %d, expected %d", s.Student, t, name, l, shape.Concepts)
				}
			}
			if len(st.Previous) != shape.Previous {
				return fmt.Errorf("student %q step %d: previous result vector has length %d, expected %d", s.Student, t, len(st.Previous), shape.Previous)
			}
			if st.Result != 0 && st.Result != 1 {
				return fmt.Errorf("student %q step %d: result %v is not binary", s.Student, t, st.Result)
			}
			for i, tree := range st.Trees {
				if tree == nil || tree.Absent() {
					return fmt.Errorf("student %q step %d: tree %d is absent", s.Student, t, i)
				}
			}
		}
	}
	return nil
}

/*
Window takes a slice of sequences and splits every sequence longer than
seqlen into consecutive chunks of at most seqlen steps, all attributed to
the same student.
*/
func Window(sequences []*Sequence, seqlen int) []*Sequence {
	var result []*Sequence
	for _, s := range sequences {
		if len(s.Steps) <= seqlen {
			result = append(result, s)
			continue
		}
		for start := 0; start < len(s.Steps); start += seqlen {
			end := start + seqlen
			if end > len(s.Steps) {
				end = len(s.Steps)
			}
			result = append(result, &Sequence{Student: s.Student, Steps: s.Steps[start:end]})
		}
	}
	return result
}

/*
Batches splits the given sequences into consecutive batches of exactly
batchSize sequences. Trailing sequences that do not fill a whole batch are
left out.
*/
func Batches(sequences []*Sequence, batchSize int) [][]*Sequence {
	if batchSize <= 0 {
		return nil
	}
	n := len(sequences) / batchSize
	result := make([][]*Sequence, n)
	for i := range result {
		result[i] = sequences[i*batchSize : (i+1)*batchSize]
	}
	return result
}

// Shuffle returns a copy of the given sequences in an order drawn from r.
func Shuffle(r *rand.Rand, sequences []*Sequence) []*Sequence {
	result := make([]*Sequence, len(sequences))
	copy(result, sequences)
	r.Shuffle(len(result), func(i, j int) {
		result[i], result[j] = result[j], result[i]
	})
	return result
}
