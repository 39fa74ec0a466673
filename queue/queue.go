package queue

import (
	"context"
	"time"
)

/*
Queue holds the folds of a cross-validation run while workers train them.
A fold is pending from the moment it is pushed until a worker pulls it,
and running from then on until the worker completes it or drops it back.

Every method takes a context that implementations may honour to time out
or cancel the operation.
*/
type Queue interface {
	// Push adds a pending task.
	Push(context.Context, *Task) error

	// Pull takes the oldest pending task and marks it as running. Along
	// with it comes a context that ends when the task should no longer
	// be worked on (the queue stopped, or the task ran past the time
	// the queue allows) and the function releasing that context, which
	// the worker must call once done.
	// With nothing pending, Pull returns only nil values.
	Pull(context.Context) (*Task, context.Context, context.CancelFunc, error)

	// Drop returns a running task to pending, to be pulled again. It
	// does nothing for tasks that are not running.
	Drop(context.Context, string) error

	// Complete removes a running task for good.
	Complete(context.Context, string) error

	// Count returns how many tasks are pending and how many running.
	Count(context.Context) (int, int, error)

	// Stop ends the contexts of every pulled task and releases the
	// resources of the queue.
	Stop(context.Context) error
}

var pollInterval = time.Second

/*
WaitFor polls the given queue until it holds no pending nor running tasks,
which is when every fold of a run has been trained. It returns an error if
counting fails or the context ends first.
*/
func WaitFor(ctx context.Context, q Queue) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		pending, running, err := q.Count(ctx)
		if err != nil {
			return err
		}
		if pending+running == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
