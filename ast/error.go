package ast

// Error represents a structural error on an abstract syntax tree
type Error string

const (
	// ErrTooManyChildren is returned when a node declares more than
	// MaxChildren children.
	ErrTooManyChildren = Error("node has more than 2 children")
	// ErrInvalidType is returned when a node type identifier is not a
	// non-negative integer.
	ErrInvalidType = Error("node type must be a non-negative integer")
	// ErrEmptyNode is returned when a nested node representation is an
	// empty array.
	ErrEmptyNode = Error("empty node")
)

func (e Error) Error() string {
	return string(e)
}
