package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/pbanos/sapling"
	"github.com/pbanos/sapling/dataset"
	"github.com/spf13/cobra"
)

type splitCmdConfig struct {
	*rootCmdConfig
	dataInput    string
	outputDir    string
	format       string
	folds        int
	testFraction float64
	seed         int64
}

func splitCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &splitCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a dataset into cross-validation folds",
		Long:  `Split a dataset into a test set and the training and validation sets of every fold of a cross-validation run, written as test, train1, valid1, train2, valid2...`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(1)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			ds, err := config.openDataset(ctx, config.dataInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(2)
			}
			sequences, err := ds.Sequences(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "reading input dataset: %v\n", err)
				config.exit(3)
			}
			if !cmd.Flags().Changed("seed") {
				config.seed = time.Now().UnixNano()
			}
			r := rand.New(rand.NewSource(config.seed))
			rest, test, err := sapling.Holdout(r, sequences, config.testFraction)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(4)
			}
			partition, err := sapling.NewPartition(r, rest, config.folds)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(4)
			}
			err = os.MkdirAll(config.outputDir, 0755)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(5)
			}
			if len(test) > 0 {
				err = config.write(ctx, "test", test)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					config.exit(6)
				}
			}
			for fold := 1; fold <= config.folds; fold++ {
				train, valid, err := partition.Fold(fold)
				if err == nil {
					err = config.write(ctx, fmt.Sprintf("train%d", fold), train)
				}
				if err == nil {
					err = config.write(ctx, fmt.Sprintf("valid%d", fold), valid)
				}
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					config.exit(6)
				}
			}
			config.Logf("Done")
			config.Logf("Dataset with %d sequences was split into %d test sequences and %d folds", len(sequences), len(test), config.folds)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "URI of the dataset to split, as "+datasetURIHelp+" (defaults to STDIN, interpreted as JSON)")
	cmd.PersistentFlags().StringVarP(&(config.outputDir), "output-dir", "o", ".", "path to the directory on which to write the split datasets")
	cmd.PersistentFlags().StringVarP(&(config.format), "format", "f", "json", "format of the split datasets: json or db (SQLite3)")
	cmd.PersistentFlags().IntVarP(&(config.folds), "folds", "k", 5, "number of folds")
	cmd.PersistentFlags().Float64VarP(&(config.testFraction), "test-fraction", "t", 0.2, "fraction of the sequences held out as test set (0 for none)")
	cmd.PersistentFlags().Int64Var(&(config.seed), "seed", 0, "seed for the random assignment of sequences (defaults to the current time)")
	return cmd
}

func (scc *splitCmdConfig) Validate() error {
	if scc.format != "json" && scc.format != "db" {
		return fmt.Errorf("format flag was set to an invalid value: it must be json or db")
	}
	if scc.folds < 2 {
		return fmt.Errorf("folds flag must be at least 2")
	}
	return nil
}

func (scc *splitCmdConfig) write(ctx context.Context, name string, sequences []*dataset.Sequence) error {
	uri := filepath.Join(scc.outputDir, fmt.Sprintf("%s.%s", name, scc.format))
	ds, commit, err := scc.createDataset(ctx, uri)
	if err != nil {
		return err
	}
	_, err = ds.Write(ctx, sequences)
	if err != nil {
		return fmt.Errorf("writing %s: %v", uri, err)
	}
	return commit()
}
