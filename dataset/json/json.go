/*
Package json provides the encoding of datasets as JSON documents and their
storage in files.

A dataset is encoded as an array of sequence objects, every tree being
written in its nested array form.
*/
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pbanos/sapling/dataset"
)

/*
DatasetEncodeDecoder is an interface for objects
that allow encoding datasets into slices of
bytes and decoding them back to datasets.
*/
type DatasetEncodeDecoder interface {

	//Encode receives a dataset.Dataset
	//and returns a slice of bytes with the dataset
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Encode(context.Context, dataset.Dataset) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a dataset.Dataset decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Decode(context.Context, []byte) (dataset.Dataset, error)
}

type jsonEncodeDecoder struct{}

// New returns a DatasetEncodeDecoder that encodes datasets as JSON arrays
// of sequences.
func New() DatasetEncodeDecoder {
	return &jsonEncodeDecoder{}
}

func (jed *jsonEncodeDecoder) Encode(ctx context.Context, ds dataset.Dataset) ([]byte, error) {
	seqs, err := ds.Sequences(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining dataset sequences: %v", err)
	}
	if seqs == nil {
		seqs = []*dataset.Sequence{}
	}
	return json.Marshal(seqs)
}

func (jed *jsonEncodeDecoder) Decode(ctx context.Context, data []byte) (dataset.Dataset, error) {
	var seqs []*dataset.Sequence
	err := json.Unmarshal(data, &seqs)
	if err != nil {
		return nil, fmt.Errorf("decoding dataset: %v", err)
	}
	return dataset.New(seqs), nil
}

/*
Read takes an io.Reader and decodes a dataset from its whole content.
*/
func Read(ctx context.Context, r io.Reader) (dataset.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %v", err)
	}
	return New().Decode(ctx, data)
}

/*
ReadFile takes the path to a JSON dataset file and returns the dataset it
holds or an error if it cannot be read or decoded.
*/
func ReadFile(ctx context.Context, path string) (dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds, err := Read(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return ds, nil
}

/*
Write takes an io.Writer and a dataset and writes the JSON encoding of the
dataset onto the writer.
*/
func Write(ctx context.Context, w io.Writer, ds dataset.Dataset) error {
	data, err := New().Encode(ctx, ds)
	if err != nil {
		return fmt.Errorf("serializing dataset as JSON: %v", err)
	}
	_, err = w.Write(data)
	return err
}

/*
WriteFile takes a filepath and a dataset and creates a file on the given
path with the JSON encoding of the dataset.
*/
func WriteFile(ctx context.Context, path string, ds dataset.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = Write(ctx, f, ds)
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
