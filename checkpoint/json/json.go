/*
Package json provides the encoding of checkpoints as JSON
and a checkpoint.Store that keeps them as files on a directory.
*/
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pbanos/sapling/checkpoint"
)

/*
EncodeDecoder encodes checkpoints into JSON and decodes them back.
*/
type EncodeDecoder struct{}

// Encode returns the JSON encoding of the checkpoint
func (EncodeDecoder) Encode(c *checkpoint.Checkpoint) ([]byte, error) {
	return json.Marshal(c)
}

// Decode returns the checkpoint encoded as JSON in data
func (EncodeDecoder) Decode(data []byte) (*checkpoint.Checkpoint, error) {
	c := &checkpoint.Checkpoint{}
	err := json.Unmarshal(data, c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

/*
WriteCheckpoint takes an io.Writer and a checkpoint and writes the
JSON representation of the checkpoint onto the writer.
*/
func WriteCheckpoint(w io.Writer, c *checkpoint.Checkpoint) error {
	err := json.NewEncoder(w).Encode(c)
	if err != nil {
		return fmt.Errorf("serializing checkpoint as JSON: %v", err)
	}
	return nil
}

/*
WriteCheckpointToFile takes a filepath and a checkpoint and creates a file
on the path with the JSON representation of the checkpoint.
*/
func WriteCheckpointToFile(path string, c *checkpoint.Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = WriteCheckpoint(f, c)
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

/*
ReadCheckpoint takes an io.Reader and decodes a JSON checkpoint from it.
*/
func ReadCheckpoint(r io.Reader) (*checkpoint.Checkpoint, error) {
	c := &checkpoint.Checkpoint{}
	err := json.NewDecoder(r).Decode(c)
	if err != nil {
		return nil, fmt.Errorf("decoding json checkpoint: %v", err)
	}
	return c, nil
}

/*
ReadCheckpointFromFile takes a filepath and reads the JSON checkpoint
stored in the file.
*/
func ReadCheckpointFromFile(path string) (*checkpoint.Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCheckpoint(f)
}

type fileStore struct {
	dir string
}

/*
NewFileStore returns a checkpoint.Store keeping every checkpoint as a
<id>.json file on the given directory, which is created if missing.
*/
func NewFileStore(dir string) (checkpoint.Store, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %v", err)
	}
	return &fileStore{dir}, nil
}

func (fs *fileStore) Create(ctx context.Context, c *checkpoint.Checkpoint) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.ID = uuid.New().String()
		_, err := os.Stat(fs.pathFor(c.ID))
		if os.IsNotExist(err) {
			return fs.Store(ctx, c)
		}
	}
}

func (fs *fileStore) Get(ctx context.Context, id string) (*checkpoint.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := ReadCheckpointFromFile(fs.pathFor(id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving checkpoint %q: %v", id, err)
	}
	return c, nil
}

func (fs *fileStore) Store(ctx context.Context, c *checkpoint.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := WriteCheckpointToFile(fs.pathFor(c.ID), c)
	if err != nil {
		return fmt.Errorf("storing checkpoint %q: %v", c.ID, err)
	}
	return nil
}

func (fs *fileStore) Delete(ctx context.Context, id string) error {
	err := os.Remove(fs.pathFor(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting checkpoint %q: %v", id, err)
	}
	return nil
}

func (fs *fileStore) Close(ctx context.Context) error {
	return nil
}

func (fs *fileStore) pathFor(id string) string {
	return filepath.Join(fs.dir, id+".json")
}
