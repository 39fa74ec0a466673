/*
Package ast defines the binary-branching abstract syntax tree nodes
consumed by the tree encoder, together with their nested array
representation, in which an absent child is marked with the -1 sentinel.
*/
package ast

import (
	"fmt"
	"strings"
)

// MaxChildren is the number of child slots of a Node: 0 is the left
// slot and 1 the right one.
const MaxChildren = 2

/*
Node is a node of an abstract syntax tree
*/
type Node struct {
	// The identifier of the node type or token, used to look up
	// its embedding
	Type int
	// The subtree in the left slot, nil if absent
	Left *Node
	// The subtree in the right slot, nil if absent
	Right *Node
}

/*
New takes a type identifier and up to MaxChildren child nodes and returns
a node with the given type and children. Nil children are absent. An
ErrTooManyChildren error is returned if more than MaxChildren children
are given and ErrInvalidType if the type is negative.
*/
func New(typ int, children ...*Node) (*Node, error) {
	if typ < 0 {
		return nil, ErrInvalidType
	}
	if len(children) > MaxChildren {
		return nil, ErrTooManyChildren
	}
	n := &Node{Type: typ}
	for i, c := range children {
		n.SetChild(i, c)
	}
	return n, nil
}

// Leaf returns a node of the given type without children.
func Leaf(typ int) *Node {
	return &Node{Type: typ}
}

// Child returns the subtree in the given slot, or nil if it is absent
// or the slot does not exist.
func (n *Node) Child(slot int) *Node {
	switch slot {
	case 0:
		return n.Left
	case 1:
		return n.Right
	}
	return nil
}

// SetChild sets the subtree in the given slot. It panics for slots
// other than 0 and 1.
func (n *Node) SetChild(slot int, c *Node) {
	switch slot {
	case 0:
		n.Left = c
	case 1:
		n.Right = c
	default:
		panic(fmt.Sprintf("ast: child slot %d out of range", slot))
	}
}

// Children returns the subtrees in both slots.
func (n *Node) Children() [MaxChildren]*Node {
	return [MaxChildren]*Node{n.Left, n.Right}
}

// Size returns the number of nodes in the tree rooted at n.
func (n *Node) Size() int {
	if n == nil {
		return 0
	}
	return 1 + n.Left.Size() + n.Right.Size()
}

// Depth returns the number of levels of the tree rooted at n.
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	l, r := n.Left.Depth(), n.Right.Depth()
	if r > l {
		l = r
	}
	return l + 1
}

/*
Traverse takes a bottomup boolean and an error-returning function and goes
through the tree running the function with every node. The function is called
with a parent node before its children if bottomup is false, and after them if
bottomup is true. Children are visited left first. If the function returns an
error, the traversal is aborted and the error returned.
*/
func (n *Node) Traverse(bottomup bool, f func(*Node) error) error {
	if n == nil {
		return nil
	}
	if !bottomup {
		if err := f(n); err != nil {
			return err
		}
	}
	for _, c := range n.Children() {
		if err := c.Traverse(bottomup, f); err != nil {
			return err
		}
	}
	if bottomup {
		return f(n)
	}
	return nil
}

// MaxType returns the greatest type identifier in the tree, -1 for a nil tree.
func (n *Node) MaxType() int {
	max := -1
	n.Traverse(false, func(c *Node) error {
		if c.Type > max {
			max = c.Type
		}
		return nil
	})
	return max
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.subtreeString()
}

func (n *Node) subtreeString() string {
	result := fmt.Sprintf("[%d]\n", n.Type)
	children := make([]*Node, 0, MaxChildren)
	for _, c := range n.Children() {
		if c != nil {
			children = append(children, c)
		}
	}
	if len(children) > 0 {
		result = fmt.Sprintf("%s|\n", result)
	}
	for i, c := range children {
		for j, line := range strings.Split(c.subtreeString(), "\n") {
			if len(line) == 0 {
				continue
			}
			switch {
			case j == 0:
				result = fmt.Sprintf("%s|__%s\n", result, line)
			case i == len(children)-1:
				result = fmt.Sprintf("%s   %s\n", result, line)
			default:
				result = fmt.Sprintf("%s|  %s\n", result, line)
			}
		}
	}
	return result
}
