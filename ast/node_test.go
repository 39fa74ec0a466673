package ast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromNestedReadsSentinelChildrenAsAbsent(t *testing.T) {
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(`[4, [-1], [7, [2], [-1]]]`), &v))

	n, err := FromNested(v)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, 4, n.Type)
	assert.Nil(t, n.Left)
	require.NotNil(t, n.Right)
	assert.Equal(t, 7, n.Right.Type)
	require.NotNil(t, n.Right.Left)
	assert.Equal(t, 2, n.Right.Left.Type)
	assert.Nil(t, n.Right.Right)
	assert.Equal(t, 3, n.Size())
	assert.Equal(t, 3, n.Depth())
}

func TestFromNestedRejectsMoreThanTwoChildren(t *testing.T) {
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(`[1, [2], [3]]`), &v))
	_, err := FromNested(v)
	require.NoError(t, err)

	require.NoError(t, json.Unmarshal([]byte(`[1, [2], [3], [4]]`), &v))
	_, err = FromNested(v)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), ErrTooManyChildren.Error())

	require.NoError(t, json.Unmarshal([]byte(`[1, [2, [5], [6], [7]]]`), &v))
	_, err = FromNested(v)
	assert.Error(t, err)
}

func TestFromNestedRejectsInvalidTypes(t *testing.T) {
	for _, doc := range []string{`[]`, `["x"]`, `[1.5]`, `[-3]`, `{"type": 1}`} {
		var v interface{}
		require.NoError(t, json.Unmarshal([]byte(doc), &v))
		_, err := FromNested(v)
		assert.Error(t, err, doc)
	}
}

func TestFromNestedAcceptsIntegerTypes(t *testing.T) {
	n, err := FromNested([]interface{}{int64(3), []interface{}{int32(1)}, []interface{}{Sentinel}})
	require.NoError(t, err)
	assert.Equal(t, 3, n.Type)
	assert.Equal(t, 1, n.Left.Type)
	assert.Nil(t, n.Right)

	n, err = FromNested(-1)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestNodeJSON(t *testing.T) {
	root := &Node{Type: 1, Right: &Node{Type: 2, Left: Leaf(3)}}
	data, err := json.Marshal(root)
	require.NoError(t, err)
	assert.JSONEq(t, `[1, [-1], [2, [3]]]`, string(data))

	decoded := &Node{}
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, root, decoded)

	absent := &Node{}
	require.NoError(t, json.Unmarshal([]byte(`[-1]`), absent))
	assert.True(t, absent.Absent())
}

func TestNew(t *testing.T) {
	n, err := New(5, nil, Leaf(2))
	require.NoError(t, err)
	assert.Nil(t, n.Child(0))
	assert.Equal(t, 2, n.Child(1).Type)
	assert.Nil(t, n.Child(2))

	_, err = New(5, Leaf(1), Leaf(2), Leaf(3))
	assert.Equal(t, ErrTooManyChildren, err)

	_, err = New(-2)
	assert.Equal(t, ErrInvalidType, err)
}

func TestTraverse(t *testing.T) {
	root := &Node{Type: 1, Left: &Node{Type: 2, Left: Leaf(4)}, Right: Leaf(3)}
	var topdown, bottomup []int
	require.NoError(t, root.Traverse(false, func(n *Node) error {
		topdown = append(topdown, n.Type)
		return nil
	}))
	require.NoError(t, root.Traverse(true, func(n *Node) error {
		bottomup = append(bottomup, n.Type)
		return nil
	}))
	assert.Equal(t, []int{1, 2, 4, 3}, topdown)
	assert.Equal(t, []int{4, 2, 3, 1}, bottomup)
	assert.Equal(t, 4, root.MaxType())
}
