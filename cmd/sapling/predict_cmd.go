package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/pbanos/sapling"
	"github.com/spf13/cobra"
)

type predictCmdConfig struct {
	*rootCmdConfig
	storeFlags
	checkpointInput string
	dataInput       string
	output          string
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the results of students' interactions",
		Long:  `Predict with a trained model the probability of every step with a target concept of a dataset being answered correctly`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(1)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			trainer, err := config.trainer(ctx, &config.storeFlags, config.checkpointInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(2)
			}
			sequences, err := sapling.Load(ctx, config.openDataset, config.dataInput, trainer.Model.Params)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(3)
			}
			predictions, err := trainer.Predict(ctx, sequences)
			if err != nil {
				fmt.Fprintf(os.Stderr, "predicting: %v\n", err)
				config.exit(4)
			}
			err = outputPredictions(config.output, predictions)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(5)
			}
		},
	}
	config.storeFlags.register(cmd)
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "URI of the dataset to predict, as "+datasetURIHelp+" (defaults to STDIN, interpreted as JSON)")
	cmd.PersistentFlags().StringVarP(&(config.checkpointInput), "checkpoint", "c", "", "path to a JSON file with the checkpoint of the model to use, or its ID on redis (required)")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a file to which predictions will be written as JSON lines (defaults to STDOUT)")
	return cmd
}

func (pcc *predictCmdConfig) Validate() error {
	if pcc.checkpointInput == "" {
		return fmt.Errorf("required checkpoint flag was not set")
	}
	return nil
}

func outputPredictions(outputPath string, predictions []*sapling.Prediction) error {
	f := os.Stdout
	if outputPath != "" {
		var err error
		f, err = os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
	}
	enc := json.NewEncoder(f)
	for _, p := range predictions {
		err := enc.Encode(p)
		if err != nil {
			return fmt.Errorf("writing predictions: %v", err)
		}
	}
	return nil
}
