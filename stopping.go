package sapling

import "fmt"

// StoppingStrategy holds the configuration
// for when the training of a model must end.
type StoppingStrategy struct {
	// Stopper is consulted after every epoch
	// to decide whether training should go on.
	Stopper
	// Epochs is the maximum number of epochs
	// a model is trained for.
	Epochs int
}

/*
Stopper is an interface wrapping the Stop method, that can be used
to decide whether the training of a model must stop early.

The Stop method takes the results of the epochs run so far, the last one
being the most recent, and returns true to stop the training.
*/
type Stopper interface {
	Stop(history []*EpochResult) bool
}

/*
StopperFunc wraps a function with the Stop method signature to implement
the Stopper interface
*/
type StopperFunc func(history []*EpochResult) bool

// Stop invokes the StopperFunc with the given history.
func (sf StopperFunc) Stop(history []*EpochResult) bool {
	return sf(history)
}

/*
PatienceStopper returns a Stopper that stops training once patience
consecutive epochs have passed without the validation AUC improving over
the best one so far. The first epoch improves over an AUC of 0.
*/
func PatienceStopper(patience int) Stopper {
	return StopperFunc(func(history []*EpochResult) bool {
		var best float64
		var count int
		for _, er := range history {
			if er.Valid.AUC > best {
				best = er.Valid.AUC
				count = 0
				continue
			}
			count++
		}
		return count >= patience
	})
}

// NewStoppingStrategy returns the strategy of training for at most epochs
// epochs with the given patience.
func NewStoppingStrategy(epochs, patience int) (*StoppingStrategy, error) {
	if epochs <= 0 {
		return nil, fmt.Errorf("epochs must be positive, got %d", epochs)
	}
	if patience <= 0 {
		return nil, fmt.Errorf("patience must be positive, got %d", patience)
	}
	return &StoppingStrategy{Stopper: PatienceStopper(patience), Epochs: epochs}, nil
}

// done returns whether training must end after the given history.
func (ss *StoppingStrategy) done(history []*EpochResult) bool {
	if len(history) >= ss.Epochs {
		return true
	}
	return ss.Stopper != nil && ss.Stopper.Stop(history)
}
