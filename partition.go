package sapling

import (
	"fmt"
	"math/rand"

	"github.com/pbanos/sapling/dataset"
)

/*
Partition represents a split of a set of sequences into folds for
cross-validation. Every sequence belongs to exactly one fold.
*/
type Partition struct {
	Folds [][]*dataset.Sequence
}

/*
NewPartition takes a random source, sequences and a number of folds k and
deals the shuffled sequences into k folds of sizes differing in at most one.
An error is returned if k is not positive or there are fewer sequences than
folds.
*/
func NewPartition(r *rand.Rand, sequences []*dataset.Sequence, k int) (*Partition, error) {
	if k <= 0 {
		return nil, fmt.Errorf("partitioning into %d folds", k)
	}
	if len(sequences) < k {
		return nil, fmt.Errorf("partitioning %d sequences into %d folds", len(sequences), k)
	}
	p := &Partition{Folds: make([][]*dataset.Sequence, k)}
	for i, s := range dataset.Shuffle(r, sequences) {
		p.Folds[i%k] = append(p.Folds[i%k], s)
	}
	return p, nil
}

/*
Fold takes a fold number between 1 and the number of folds and returns the
sequences to train on, all but those of the fold, and the sequences of the
fold to validate on.
*/
func (p *Partition) Fold(n int) ([]*dataset.Sequence, []*dataset.Sequence, error) {
	if n < 1 || n > len(p.Folds) {
		return nil, nil, fmt.Errorf("fold %d out of 1..%d", n, len(p.Folds))
	}
	var train []*dataset.Sequence
	for i, f := range p.Folds {
		if i != n-1 {
			train = append(train, f...)
		}
	}
	return train, p.Folds[n-1], nil
}

/*
Holdout takes a random source, sequences and a fraction in [0, 1) and
returns the shuffled sequences split in two: those to keep and, last, the
held out fraction of them, rounded down.
*/
func Holdout(r *rand.Rand, sequences []*dataset.Sequence, fraction float64) ([]*dataset.Sequence, []*dataset.Sequence, error) {
	if fraction < 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("holding out a fraction of %v", fraction)
	}
	shuffled := dataset.Shuffle(r, sequences)
	n := len(shuffled) - int(fraction*float64(len(shuffled)))
	return shuffled[:n], shuffled[n:], nil
}
