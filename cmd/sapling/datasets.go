package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pbanos/sapling/dataset"
	"github.com/pbanos/sapling/dataset/json"
	"github.com/pbanos/sapling/dataset/mongodataset"
	"github.com/pbanos/sapling/dataset/sqldataset"
	"github.com/pbanos/sapling/dataset/sqldataset/pgadapter"
	"github.com/pbanos/sapling/dataset/sqldataset/sqlite3adapter"
)

const datasetURIHelp = "a JSON (.json) or SQLite3 (.db) file, or a PostgreSQL (postgresql://) or MongoDB (mongodb://) connection URL"

/*
openDataset takes a context and a dataset URI and returns the dataset at
the URI. JSON files are read whole, the other sources are queried when
their sequences are requested. An empty URI reads JSON from STDIN.
*/
func (rcc *rootCmdConfig) openDataset(ctx context.Context, uri string) (dataset.Dataset, error) {
	switch {
	case uri == "":
		rcc.Logf("Reading dataset from STDIN...")
		return json.Read(ctx, os.Stdin)
	case strings.HasSuffix(uri, ".json"):
		rcc.Logf("Reading dataset from %s...", uri)
		return json.ReadFile(ctx, uri)
	}
	return rcc.dbDataset(ctx, uri)
}

/*
createDataset takes a context and a dataset URI and returns a dataset to
write sequences to, and a function to call once all of them have been
written. For JSON files the sequences are kept in memory and written to
the file by that function. An empty URI writes JSON to STDOUT.
*/
func (rcc *rootCmdConfig) createDataset(ctx context.Context, uri string) (dataset.Writer, func() error, error) {
	if uri == "" || strings.HasSuffix(uri, ".json") {
		ds := dataset.New(nil)
		commit := func() error {
			if uri == "" {
				return json.Write(ctx, os.Stdout, ds)
			}
			rcc.Logf("Writing dataset to %s...", uri)
			return json.WriteFile(ctx, uri, ds)
		}
		return ds, commit, nil
	}
	ds, err := rcc.dbDataset(ctx, uri)
	if err != nil {
		return nil, nil, err
	}
	return ds, func() error { return nil }, nil
}

func (rcc *rootCmdConfig) dbDataset(ctx context.Context, uri string) (dataset.Writer, error) {
	switch {
	case strings.HasPrefix(uri, "postgresql://") || strings.HasPrefix(uri, "postgres://"):
		rcc.Logf("Creating PostgreSQL adapter for url %s...", uri)
		adapter, err := pgadapter.New(uri)
		if err != nil {
			return nil, err
		}
		rcc.onClose(adapter.Close)
		return sqldataset.Open(ctx, adapter)
	case strings.HasPrefix(uri, "mongodb://"):
		rcc.Logf("Connecting to MongoDB at %s...", uri)
		ds, err := mongodataset.Dial(ctx, uri)
		if err != nil {
			return nil, err
		}
		rcc.onClose(ds.Close)
		return ds, nil
	case strings.HasSuffix(uri, ".db"):
		rcc.Logf("Creating SQLite3 adapter for file %s...", uri)
		adapter, err := sqlite3adapter.New(uri)
		if err != nil {
			return nil, err
		}
		rcc.onClose(adapter.Close)
		return sqldataset.Open(ctx, adapter)
	}
	return nil, fmt.Errorf("unsupported dataset %q: expected %s", uri, datasetURIHelp)
}
