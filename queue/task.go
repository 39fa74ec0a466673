package queue

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pbanos/sapling/config"
)

// Task represents a fold of a cross-validation
// run to be trained and tested.
type Task struct {
	// The unique identifier of the task
	ID string `json:"id"`
	// The number of the fold, starting at 1
	Fold int `json:"fold"`
	// The URI of the dataset to train the fold's
	// model on
	Train string `json:"train"`
	// The URI of the dataset used to pick the best
	// epoch and stop training early
	Valid string `json:"valid"`
	// The URI of the dataset the best model is
	// tested on. It may be empty, in which case
	// the fold is not tested.
	Test string `json:"test,omitempty"`
	// The hyperparameters of the model
	Params *config.Params `json:"params"`
}

// NewTask returns a task for the given fold with a
// fresh ID.
func NewTask(fold int, train, valid, test string, p *config.Params) *Task {
	return &Task{
		ID:     uuid.New().String(),
		Fold:   fold,
		Train:  train,
		Valid:  valid,
		Test:   test,
		Params: p,
	}
}

func (t *Task) String() string {
	return fmt.Sprintf("{Task %s fold %d}", t.ID, t.Fold)
}
