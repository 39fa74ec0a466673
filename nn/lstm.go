package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pbanos/sapling/autograd"
)

/*
LSTMCell is one layer of an LSTM. Its input and hidden weights stack the
input, forget, cell and output gates in that order, each Hidden rows tall.
*/
type LSTMCell struct {
	WeightIH *autograd.Matrix
	WeightHH *autograd.Matrix
	BiasIH   *autograd.Vec
	BiasHH   *autograd.Vec
	Hidden   int
}

func newLSTMCell(in, hidden int, r *rand.Rand) *LSTMCell {
	c := &LSTMCell{
		WeightIH: autograd.NewMatrix(4*hidden, in),
		WeightHH: autograd.NewMatrix(4*hidden, hidden),
		BiasIH:   autograd.Zeros(4 * hidden),
		BiasHH:   autograd.Zeros(4 * hidden),
		Hidden:   hidden,
	}
	Uniform(r, 1/math.Sqrt(float64(hidden)), c.Params()...)
	return c
}

// Step advances the cell one timestep from state (h, cell) with input x,
// returning the new hidden and cell states.
func (c *LSTMCell) Step(x, h, cell *autograd.Vec) (*autograd.Vec, *autograd.Vec) {
	gates := c.WeightIH.MatVec(x).Add(c.BiasIH).Add(c.WeightHH.MatVec(h)).Add(c.BiasHH)
	n := c.Hidden
	i := gates.Slice(0, n).Sigmoid()
	f := gates.Slice(n, 2*n).Sigmoid()
	g := gates.Slice(2*n, 3*n).Tanh()
	o := gates.Slice(3*n, 4*n).Sigmoid()
	cell = f.Mul(cell).Add(i.Mul(g))
	h = o.Mul(cell.Tanh())
	return h, cell
}

// Params returns the weights and biases of the cell.
func (c *LSTMCell) Params() []*autograd.Vec {
	params := append([]*autograd.Vec{}, c.WeightIH.Params()...)
	params = append(params, c.WeightHH.Params()...)
	return append(params, c.BiasIH, c.BiasHH)
}

/*
LSTM is a stack of LSTM layers where every layer after the first consumes
the hidden states of the layer below. All parameters are initialised from
U(-1/sqrt(hidden), 1/sqrt(hidden)).
*/
type LSTM struct {
	Layers []*LSTMCell
	In     int
	Hidden int
}

// NewLSTM returns an LSTM of the given number of layers.
func NewLSTM(in, hidden, layers int, r *rand.Rand) *LSTM {
	l := &LSTM{In: in, Hidden: hidden}
	for k := 0; k < layers; k++ {
		layerIn := hidden
		if k == 0 {
			layerIn = in
		}
		l.Layers = append(l.Layers, newLSTMCell(layerIn, hidden, r))
	}
	return l
}

/*
Forward runs the LSTM over a sequence of inputs starting from zero states
and returns the hidden state of the top layer at every timestep.
*/
func (l *LSTM) Forward(inputs []*autograd.Vec) ([]*autograd.Vec, error) {
	for t, x := range inputs {
		if x.Len() != l.In {
			return nil, fmt.Errorf("lstm input at step %d has length %d, expected %d", t, x.Len(), l.In)
		}
	}
	seq := inputs
	for _, layer := range l.Layers {
		h, c := autograd.Zeros(l.Hidden), autograd.Zeros(l.Hidden)
		out := make([]*autograd.Vec, len(seq))
		for t, x := range seq {
			h, c = layer.Step(x, h, c)
			out[t] = h
		}
		seq = out
	}
	return seq, nil
}

// Params returns the parameters of every layer, bottom up.
func (l *LSTM) Params() []*autograd.Vec {
	var params []*autograd.Vec
	for _, layer := range l.Layers {
		params = append(params, layer.Params()...)
	}
	return params
}
