package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pbanos/sapling"
	"github.com/spf13/cobra"
)

type testCmdConfig struct {
	*rootCmdConfig
	storeFlags
	checkpointInput string
	dataInput       string
}

func testCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &testCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the performance of a trained model",
		Long:  `Test the performance of a trained model against a test dataset, reporting its AUC and accuracy`,
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
			config.Logf("Testing model against %d sequences...", len(sequences))
			ev, err := trainer.Evaluate(ctx, sequences)
			if err != nil {
				fmt.Fprintf(os.Stderr, "testing model: %v\n", err)
				config.exit(4)
			}
			config.Logf("Done")
			fmt.Printf("test auc : %f, test accuracy : %f, loss : %f on %d predictions\n", ev.AUC, ev.Accuracy, ev.Loss, ev.Predictions)
		},
	}
	config.storeFlags.register(cmd)
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "URI of the dataset to test on, as "+datasetURIHelp+" (defaults to STDIN, interpreted as JSON)")
	cmd.PersistentFlags().StringVarP(&(config.checkpointInput), "checkpoint", "c", "", "path to a JSON file with the checkpoint of the model to test, or its ID on redis (required)")
	return cmd
}

func (tcc *testCmdConfig) Validate() error {
	if tcc.checkpointInput == "" {
		return fmt.Errorf("required checkpoint flag was not set")
	}
	return nil
}

// trainer returns a trainer for the model of the referenced checkpoint.
func (rcc *rootCmdConfig) trainer(ctx context.Context, sf *storeFlags, ref string) (*sapling.Trainer, error) {
	c, err := rcc.loadCheckpoint(ctx, sf, ref)
	if err != nil {
		return nil, err
	}
	m, err := c.Model()
	if err != nil {
		return nil, err
	}
	rcc.Logf("Loaded model of fold %d epoch %d (valid auc %f)", c.Fold, c.Epoch, c.ValidAUC)
	return sapling.NewTrainer(m, rcc.Zap())
}
