package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pbanos/sapling"
	"github.com/spf13/cobra"
)

type workCmdConfig struct {
	*rootCmdConfig
	storeFlags
	runID      string
	workers    int
	taskMaxRun time.Duration
}

func workCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &workCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Train folds of a run shared on redis",
		Long:  `Join a cross-validation run started with the train command on a redis server and train its folds until none are left.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(1)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			q, err := config.foldQueue(&config.storeFlags, config.runID, config.taskMaxRun)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(2)
			}
			defer q.Stop(ctx)
			store, err := config.checkpointStore(&config.storeFlags)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(2)
			}
			config.Logf("Working on run %s with %d workers...", config.runID, config.workers)
			folds, err := config.work(ctx, q, store, config.workers)
			if err != nil {
				fmt.Fprintf(os.Stderr, "training folds: %v\n", err)
				config.exit(3)
			}
			printReport(sapling.Summarize(folds), false)
		},
	}
	config.storeFlags.register(cmd)
	cmd.PersistentFlags().StringVar(&(config.runID), "run", "", "identifier of the run to join (required)")
	cmd.PersistentFlags().IntVarP(&(config.workers), "workers", "w", 1, "number of folds to train at the same time on this process")
	cmd.PersistentFlags().DurationVar(&(config.taskMaxRun), "task-max-run", 0, "time after which a fold taken by a worker is considered dropped (defaults to 0: never)")
	return cmd
}

func (wcc *workCmdConfig) Validate() error {
	if wcc.redisAddr == "" {
		return fmt.Errorf("required redis-addr flag was not set")
	}
	if wcc.runID == "" {
		return fmt.Errorf("required run flag was not set")
	}
	if wcc.workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	return nil
}
