package autograd

import "math"

/*
BCEWithLogits takes a slice of logits and a slice of targets in [0, 1] of the
same length and returns the mean binary cross entropy between the sigmoid of
every logit and its target. It is computed in the numerically stable form
max(x, 0) - x*y + log(1 + exp(-|x|)).
*/
func BCEWithLogits(logits []*Scalar, targets []float64) *Scalar {
	if len(logits) != len(targets) {
		panic("autograd: binary cross entropy with mismatching logits and targets")
	}
	n := float64(len(logits))
	total := 0.0
	for i, l := range logits {
		x, y := l.Data, targets[i]
		total += math.Max(x, 0) - x*y + math.Log1p(math.Exp(-math.Abs(x)))
	}
	out := &Scalar{Data: total / n}
	kids := make([]Node, len(logits))
	for i, l := range logits {
		kids[i] = l
	}
	out.kids = kids
	out.backFn = func() {
		for i, l := range logits {
			l.Grad += (sigmoid(l.Data) - targets[i]) / n * out.Grad
		}
	}
	return out
}
