package mongodataset

import (
	"testing"

	"github.com/pbanos/sapling/ast"
	"github.com/pbanos/sapling/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/mgo.v2/bson"
)

func TestSequenceDocumentsKeepTrees(t *testing.T) {
	s := &dataset.Sequence{
		Student: "carol",
		Steps: []dataset.Step{{
			Problem:        4,
			Concepts:       []float64{1, 0},
			Targets:        []float64{1, 0},
			ConceptWeights: []float64{0.7, 0},
			Previous:       []float64{0, 1},
			Result:         1,
			Trees: []*ast.Node{
				{Type: 3, Right: &ast.Node{Type: 5, Left: ast.Leaf(0)}},
				ast.Leaf(9),
			},
			Paths: []dataset.PathContext{{Source: 1, Path: 2, Target: 3}},
		}},
	}
	data, err := bson.Marshal(toDoc(s))
	require.NoError(t, err)
	doc := &sequenceDoc{}
	require.NoError(t, bson.Unmarshal(data, doc))

	decoded, err := fromDoc(doc)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)
}

func TestFromDocRejectsMalformedTrees(t *testing.T) {
	doc := &sequenceDoc{
		Student: "dave",
		Steps: []stepDoc{{
			Trees: []interface{}{[]interface{}{1, []interface{}{2}, []interface{}{3}, []interface{}{4}}},
		}},
	}
	_, err := fromDoc(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ast.ErrTooManyChildren.Error())
}

func TestSequencesAreReadByStudentInInsertionOrder(t *testing.T) {
	require.Len(t, readOrder, 2)
	assert.Equal(t, "student", readOrder[0])
	assert.Equal(t, "_id", readOrder[1])
}
