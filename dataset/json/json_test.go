package json

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pbanos/sapling/ast"
	"github.com/pbanos/sapling/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const document = `[
  {
    "student": "s1",
    "steps": [
      {
        "problem": 12,
        "concepts": [0, 1, 1],
        "trees": [[3, [-1], [4]], [5]],
        "paths": [{"source": 1, "path": 7, "target": 2}],
        "targets": [0, 1, 0],
        "result": 1,
        "concept_weights": [0, 0.4, 0.6],
        "previous": [0, 1]
      }
    ]
  }
]`

func TestDecode(t *testing.T) {
	ctx := context.Background()
	ds, err := Read(ctx, strings.NewReader(document))
	require.NoError(t, err)
	seqs, err := ds.Sequences(ctx)
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	s := seqs[0]
	assert.Equal(t, "s1", s.Student)
	require.Len(t, s.Steps, 1)
	st := s.Steps[0]
	assert.Equal(t, 12, st.Problem)
	require.Len(t, st.Trees, 2)
	assert.Equal(t, 3, st.Trees[0].Type)
	assert.Nil(t, st.Trees[0].Left)
	require.NotNil(t, st.Trees[0].Right)
	assert.Equal(t, 4, st.Trees[0].Right.Type)
	assert.Equal(t, []dataset.PathContext{{Source: 1, Path: 7, Target: 2}}, st.Paths)
	assert.Equal(t, []float64{0, 0.4, 0.6}, st.ConceptWeights)
	assert.NoError(t, dataset.Validate(seqs, dataset.Shape{Concepts: 3, Previous: 2}))
}

func TestDecodeRejectsMalformedTrees(t *testing.T) {
	_, err := Read(context.Background(), strings.NewReader(strings.Replace(document, "[5]", "[5, [1], [2], [3]]", 1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ast.ErrTooManyChildren.Error())
}

func TestWriteThenReadFile(t *testing.T) {
	ctx := context.Background()
	ds, err := Read(ctx, strings.NewReader(document))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ds.json")
	require.NoError(t, WriteFile(ctx, path, ds))
	again, err := ReadFile(ctx, path)
	require.NoError(t, err)

	expected, _ := ds.Sequences(ctx)
	got, err := again.Sequences(ctx)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestEncodeEmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(context.Background(), &buf, dataset.New(nil)))
	assert.Equal(t, "[]", buf.String())
}
