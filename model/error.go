package model

// Error represents an error running a model
type Error string

const (
	// ErrNoTargets is returned by Forward when no step of the batch has
	// a target concept, so there is nothing to predict.
	ErrNoTargets = Error("no step of the batch has a target concept")
	// ErrSnapshotMismatch is returned when restoring a snapshot taken
	// from a model with different parameter shapes.
	ErrSnapshotMismatch = Error("snapshot does not match the model parameters")
)

func (e Error) Error() string {
	return string(e)
}
