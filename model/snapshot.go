package model

/*
Snapshot is a copy of the values of all the parameters of a model, in the
order Parameters returns them.
*/
type Snapshot [][]float64

// Snapshot returns a copy of the current parameter values.
func (m *Model) Snapshot() Snapshot {
	params := m.Parameters()
	s := make(Snapshot, len(params))
	for i, p := range params {
		s[i] = p.Values()
	}
	return s
}

/*
Restore sets the parameters of the model to the values of the snapshot. It
returns ErrSnapshotMismatch, leaving the model untouched, if the snapshot
was taken from a model with different parameter shapes.
*/
func (m *Model) Restore(s Snapshot) error {
	params := m.Parameters()
	if len(params) != len(s) {
		return ErrSnapshotMismatch
	}
	for i, p := range params {
		if len(p.Data) != len(s[i]) {
			return ErrSnapshotMismatch
		}
	}
	for i, p := range params {
		copy(p.Data, s[i])
	}
	return nil
}
