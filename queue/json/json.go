/*
Package json provides the encoding of fold tasks as JSON, to keep them
on queues backed by external stores such as redis.
*/
package json

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pbanos/sapling/queue"
)

/*
TaskEncodeDecoder is an interface for objects
that allow encoding tasks as slices of bytes and decoding
them back to tasks. It is used to serialize tasks into a
representation to store on redis.
*/
type TaskEncodeDecoder interface {

	//Encode receives a *queue.Task
	// and returns a slice of bytes with the task encoded or an
	//error if the encoding could not be performed for
	//some reason.
	Encode(context.Context, *queue.Task) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a *queue.Task decoded from the slice of bytes
	//or an error if the decoding could not be performed
	//for some reason.
	Decode(context.Context, []byte) (*queue.Task, error)
}

type jsonEncodeDecoder struct{}

// New returns a TaskEncodeDecoder using JSON
func New() TaskEncodeDecoder {
	return jsonEncodeDecoder{}
}

func (jsonEncodeDecoder) Encode(ctx context.Context, t *queue.Task) ([]byte, error) {
	if t.Params == nil {
		return nil, fmt.Errorf("encoding task %s as json: task has no params", t.ID)
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encoding task %s as json: %v", t.ID, err)
	}
	return data, nil
}

func (jsonEncodeDecoder) Decode(ctx context.Context, data []byte) (*queue.Task, error) {
	t := &queue.Task{}
	err := json.Unmarshal(data, t)
	if err != nil {
		return nil, fmt.Errorf("decoding task from json: %v", err)
	}
	if t.ID == "" {
		return nil, fmt.Errorf("decoding json task: missing id")
	}
	if t.Params == nil {
		return nil, fmt.Errorf("decoding json task %s: missing params", t.ID)
	}
	return t, nil
}
