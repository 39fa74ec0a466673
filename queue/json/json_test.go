package json

import (
	"context"
	"testing"

	"github.com/pbanos/sapling/config"
	"github.com/pbanos/sapling/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	ctx := context.Background()
	p, err := config.Default("codeforces")
	require.NoError(t, err)
	task := queue.NewTask(2, "train2.json", "valid2.json", "test.json", p)

	ed := New()
	data, err := ed.Encode(ctx, task)
	require.NoError(t, err)
	decoded, err := ed.Decode(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, task, decoded)
}

func TestInvalidTasks(t *testing.T) {
	ctx := context.Background()
	ed := New()
	_, err := ed.Encode(ctx, &queue.Task{ID: "a"})
	assert.Error(t, err)

	for _, data := range []string{`{`, `{"fold":1,"params":{}}`, `{"id":"a","fold":1}`} {
		_, err = ed.Decode(ctx, []byte(data))
		assert.Error(t, err, data)
	}
}
