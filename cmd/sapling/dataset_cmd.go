package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pbanos/sapling/config"
	"github.com/pbanos/sapling/config/yaml"
	"github.com/pbanos/sapling/dataset"
	"github.com/spf13/cobra"
)

const writeChunkSize = 100

type datasetCmdConfig struct {
	*rootCmdConfig
	dataInput   string
	dataOutput  string
	paramsInput string
	profile     string
	window      bool
}

// streamer is implemented by datasets that can be read sequentially.
type streamer interface {
	Read(context.Context) (<-chan *dataset.Sequence, <-chan error)
}

func datasetCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &datasetCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage datasets of interaction sequences",
		Long:  `Copy a dataset from one source to another, optionally validating and windowing its sequences against model parameters`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			params, err := config.params()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(1)
			}
			input, err := config.openDataset(ctx, config.dataInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(2)
			}
			output, commit, err := config.createDataset(ctx, config.dataOutput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(3)
			}
			count, err := config.copy(ctx, input, output, params)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(4)
			}
			err = commit()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(5)
			}
			config.Logf("Done")
			config.Logf("%d sequences written", count)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "URI of the dataset to read, as "+datasetURIHelp+" (defaults to STDIN, interpreted as JSON)")
	cmd.PersistentFlags().StringVarP(&(config.dataOutput), "output", "o", "", "URI of the dataset to write, as "+datasetURIHelp+" (defaults to STDOUT, as JSON)")
	cmd.PersistentFlags().StringVarP(&(config.paramsInput), "params", "p", "", "path to a YML file with model parameters to validate the sequences against")
	cmd.PersistentFlags().StringVar(&(config.profile), "profile", "", "dataset profile whose default parameters to validate the sequences against")
	cmd.PersistentFlags().BoolVar(&(config.window), "window", false, "split sequences longer than the parameters' seqlen")
	return cmd
}

// params returns the parameters to validate against, or nil if none are set.
func (dcc *datasetCmdConfig) params() (*config.Params, error) {
	switch {
	case dcc.paramsInput != "" && dcc.profile != "":
		return nil, fmt.Errorf("cannot set both params and profile flags at the same time")
	case dcc.paramsInput != "":
		return yaml.ReadParamsFromFile(dcc.paramsInput)
	case dcc.profile != "":
		return config.Default(dcc.profile)
	}
	if dcc.window {
		return nil, fmt.Errorf("window flag requires params or profile flags")
	}
	return nil, nil
}

/*
copy writes the sequences of input onto output in chunks, streaming them
when the input supports it, and returns the number of sequences written.
*/
func (dcc *datasetCmdConfig) copy(ctx context.Context, input dataset.Dataset, output dataset.Writer, p *config.Params) (int, error) {
	var total int
	var chunk []*dataset.Sequence
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if p != nil {
			if dcc.window {
				chunk = dataset.Window(chunk, p.Seqlen)
			}
			err := dataset.Validate(chunk, dataset.Shape{Concepts: p.Concepts(), Previous: p.PreviousDim})
			if err != nil {
				return err
			}
		}
		n, err := output.Write(ctx, chunk)
		total += n
		chunk = nil
		return err
	}
	if s, ok := input.(streamer); ok {
		dcc.Logf("Streaming sequences...")
		sequences, errs := s.Read(ctx)
		for seq := range sequences {
			chunk = append(chunk, seq)
			if len(chunk) == writeChunkSize {
				err := flush()
				if err != nil {
					return total, err
				}
			}
		}
		if err := <-errs; err != nil {
			return total, err
		}
		return total, flush()
	}
	sequences, err := input.Sequences(ctx)
	if err != nil {
		return 0, err
	}
	for start := 0; start < len(sequences); start += writeChunkSize {
		end := start + writeChunkSize
		if end > len(sequences) {
			end = len(sequences)
		}
		chunk = sequences[start:end]
		err = flush()
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
