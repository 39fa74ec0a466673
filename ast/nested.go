package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Sentinel is the type value that marks an absent node in the nested
// array representation.
const Sentinel = -1

/*
FromNested takes a decoded nested array representation of a tree and
returns the tree it represents.

A node is represented as an array whose first element is its type and whose
remaining elements, at most MaxChildren, are its children in slot order. A
child is absent when it is nil, the Sentinel number or an array starting with
the Sentinel. A bare non-negative number is read as a node without children.

Numbers may be of any of the types produced by encoding/json or a BSON
decoder. A nil tree is returned for an absent root.
*/
func FromNested(v interface{}) (*Node, error) {
	if v == nil {
		return nil, nil
	}
	if typ, ok := toInt(v); ok {
		if typ == Sentinel {
			return nil, nil
		}
		if typ < 0 {
			return nil, ErrInvalidType
		}
		return Leaf(typ), nil
	}
	elems, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected %T in nested tree", v)
	}
	if len(elems) == 0 {
		return nil, ErrEmptyNode
	}
	typ, ok := toInt(elems[0])
	if !ok {
		return nil, fmt.Errorf("node type: %v", ErrInvalidType)
	}
	if typ == Sentinel {
		return nil, nil
	}
	if typ < 0 {
		return nil, ErrInvalidType
	}
	if len(elems)-1 > MaxChildren {
		return nil, fmt.Errorf("node of type %d: %v", typ, ErrTooManyChildren)
	}
	n := Leaf(typ)
	for slot, ce := range elems[1:] {
		c, err := FromNested(ce)
		if err != nil {
			return nil, fmt.Errorf("child %d of node of type %d: %v", slot, typ, err)
		}
		n.SetChild(slot, c)
	}
	return n, nil
}

/*
Nested returns the nested array representation of the tree. Trailing
absent children are omitted and an absent left child followed by a
present right one is written as [-1].
*/
func (n *Node) Nested() []interface{} {
	if n == nil {
		return []interface{}{Sentinel}
	}
	result := []interface{}{n.Type}
	switch {
	case n.Right != nil:
		result = append(result, n.Left.Nested(), n.Right.Nested())
	case n.Left != nil:
		result = append(result, n.Left.Nested())
	}
	return result
}

// MarshalJSON writes the node in its nested array representation.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Nested())
}

// UnmarshalJSON reads the node from its nested array representation.
// An absent root decodes as a node of type Sentinel, see Absent.
func (n *Node) UnmarshalJSON(data []byte) error {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decoding nested tree: %v", err)
	}
	parsed, err := FromNested(v)
	if err != nil {
		return err
	}
	if parsed == nil {
		*n = Node{Type: Sentinel}
		return nil
	}
	*n = *parsed
	return nil
}

// Absent reports whether the node stands for an absent tree, as decoded
// from a Sentinel root.
func (n *Node) Absent() bool {
	return n == nil || n.Type == Sentinel
}

func toInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			f, ferr := x.Float64()
			if ferr != nil {
				return 0, false
			}
			return floatToInt(f)
		}
		return int(i), true
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}
