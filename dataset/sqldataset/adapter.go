package sqldataset

import "context"

/*
StepRow is the representation of a step on the steps table.
*/
type StepRow struct {
	Student  string
	Position int
	Problem  int
	Result   float64
	Payload  string
}

/*
Adapter is an interface providing the methods
needed to implement a Dataset with a database backend.

IterateOnSteps must provide rows ordered by student and
position, and stop as soon as lambda returns false or an error.
*/
type Adapter interface {
	CreateStepTable(ctx context.Context) error
	AddSteps(ctx context.Context, rows []*StepRow) (int, error)
	IterateOnSteps(ctx context.Context, lambda func(*StepRow) (bool, error)) error
	CountStudents(ctx context.Context) (int, error)
	Close() error
}
