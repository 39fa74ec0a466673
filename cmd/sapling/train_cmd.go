package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/pbanos/sapling"
	"github.com/pbanos/sapling/checkpoint"
	"github.com/pbanos/sapling/config"
	"github.com/pbanos/sapling/config/yaml"
	"github.com/pbanos/sapling/queue"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type trainCmdConfig struct {
	*rootCmdConfig
	storeFlags
	paramsInput  string
	profile      string
	trainPattern string
	validPattern string
	testInput    string
	output       string
	workers      int
	runID        string
	taskMaxRun   time.Duration
	overrides    config.Params
}

func trainCmd(rootConfig *rootCmdConfig) *cobra.Command {
	modelHelp := fmt.Sprintf("model variant to train: %s or %s", config.ASTNNAttention, config.Code2VecConcat)
	config := &trainCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train and cross-validate a model",
		Long:  `Train a model on every fold of a cross-validation run, with early stopping on each fold's validation set, and test the best model of each fold.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(1)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			params, err := config.params(cmd)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(2)
			}
			if params.GPU >= 0 {
				config.Logf("GPU %d requested, training on CPU", params.GPU)
			}
			q, err := config.foldQueue(&config.storeFlags, config.runID, config.taskMaxRun)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(3)
			}
			defer q.Stop(ctx)
			store, err := config.checkpointStore(&config.storeFlags)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(3)
			}
			config.Logf("Seeding %d folds of run %s...", params.Folds, config.runID)
			_, err = sapling.Seed(ctx, q, params, config.trainPattern, config.validPattern, config.testInput)
			if err != nil {
				fmt.Fprintf(os.Stderr, "seeding folds: %v\n", err)
				config.exit(4)
			}
			folds, err := config.work(ctx, q, store, config.workers)
			if err != nil {
				fmt.Fprintf(os.Stderr, "training folds: %v\n", err)
				config.exit(5)
			}
			if config.redisAddr != "" {
				config.Logf("Waiting for folds trained by other workers...")
				err = queue.WaitFor(ctx, q)
				if err != nil {
					fmt.Fprintf(os.Stderr, "waiting for folds: %v\n", err)
					config.exit(6)
				}
			}
			if len(folds) < params.Folds {
				config.Logf("%d of %d folds were trained by other workers and are not reported", params.Folds-len(folds), params.Folds)
			}
			report := sapling.Summarize(folds)
			printReport(report, config.testInput != "")
			err = outputReport(config.output, report)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				config.exit(7)
			}
		},
	}
	config.storeFlags.register(cmd)
	cmd.PersistentFlags().StringVarP(&(config.paramsInput), "params", "p", "", "path to a YML file with the model and training parameters")
	cmd.PersistentFlags().StringVar(&(config.profile), "profile", "", "dataset profile whose default parameters to use when no params file is given")
	cmd.PersistentFlags().StringVar(&(config.trainPattern), "train", "", "URI of the training dataset of each fold, with a %d for the fold number, as "+datasetURIHelp+" (required)")
	cmd.PersistentFlags().StringVar(&(config.validPattern), "valid", "", "URI of the validation dataset of each fold, with a %d for the fold number (required)")
	cmd.PersistentFlags().StringVar(&(config.testInput), "test", "", "URI of the dataset on which to test the best model of every fold")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the report of the run will be written in JSON format")
	cmd.PersistentFlags().IntVarP(&(config.workers), "workers", "w", 1, "number of folds to train at the same time on this process")
	cmd.PersistentFlags().StringVar(&(config.runID), "run", uuid.New().String(), "identifier of the run, for other processes to join it with the work command")
	cmd.PersistentFlags().DurationVar(&(config.taskMaxRun), "task-max-run", 0, "time after which a fold taken by a worker is considered dropped (defaults to 0: never)")
	cmd.PersistentFlags().StringVar(&(config.overrides.Model), "model", "", modelHelp)
	cmd.PersistentFlags().IntVar(&(config.overrides.Epochs), "epochs", 0, "maximum number of epochs per fold")
	cmd.PersistentFlags().IntVar(&(config.overrides.Patience), "patience", 0, "epochs without validation AUC improvement after which training stops")
	cmd.PersistentFlags().IntVar(&(config.overrides.BatchSize), "batch-size", 0, "number of sequences per batch")
	cmd.PersistentFlags().IntVar(&(config.overrides.Folds), "folds", 0, "number of folds")
	cmd.PersistentFlags().Float64Var(&(config.overrides.LearningRate), "lr", 0, "learning rate")
	cmd.PersistentFlags().Float64Var(&(config.overrides.WeightDecay), "weight-decay", 0, "L2 weight decay")
	cmd.PersistentFlags().Int64Var(&(config.overrides.Seed), "seed", 0, "seed for parameter initialisation")
	cmd.PersistentFlags().IntVar(&(config.overrides.GPU), "gpu", -1, "GPU index (accepted for compatibility, training always runs on CPU)")
	return cmd
}

func (tcc *trainCmdConfig) Validate() error {
	if tcc.trainPattern == "" {
		return fmt.Errorf("required train flag was not set")
	}
	if tcc.validPattern == "" {
		return fmt.Errorf("required valid flag was not set")
	}
	if tcc.paramsInput != "" && tcc.profile != "" {
		return fmt.Errorf("cannot set both params and profile flags at the same time")
	}
	if tcc.workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	return nil
}

/*
params returns the parameters of the params file, or the defaults of the
profile, with the values of the flags set on the command line on top.
*/
func (tcc *trainCmdConfig) params(cmd *cobra.Command) (*config.Params, error) {
	var p *config.Params
	var err error
	if tcc.paramsInput != "" {
		tcc.Logf("Reading params from %s...", tcc.paramsInput)
		p, err = yaml.ReadParamsFromFile(tcc.paramsInput)
	} else {
		p, err = config.Default(tcc.profile)
	}
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	o := &tcc.overrides
	if flags.Changed("model") {
		p.Model = o.Model
	}
	if flags.Changed("epochs") {
		p.Epochs = o.Epochs
	}
	if flags.Changed("patience") {
		p.Patience = o.Patience
	}
	if flags.Changed("batch-size") {
		p.BatchSize = o.BatchSize
	}
	if flags.Changed("folds") {
		p.Folds = o.Folds
	}
	if flags.Changed("lr") {
		p.LearningRate = o.LearningRate
	}
	if flags.Changed("weight-decay") {
		p.WeightDecay = o.WeightDecay
	}
	if flags.Changed("seed") {
		p.Seed = o.Seed
	}
	if flags.Changed("gpu") {
		p.GPU = o.GPU
	}
	return p, p.Validate()
}

/*
work runs n workers on the queue until it has no more folds to train and
returns the reports of the folds they trained.
*/
func (rcc *rootCmdConfig) work(ctx context.Context, q queue.Queue, store checkpoint.Store, n int) ([]*sapling.FoldReport, error) {
	reports := make(chan *sapling.FoldReport)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		w := &sapling.Worker{
			Queue:           q,
			Open:            rcc.openDataset,
			Store:           store,
			Reports:         reports,
			Logger:          rcc.Zap(),
			EmptyQueueSleep: time.Second,
		}
		g.Go(func() error {
			return w.Work(gctx)
		})
	}
	done := make(chan error)
	go func() {
		done <- g.Wait()
		close(reports)
	}()
	var folds []*sapling.FoldReport
	for r := range reports {
		rcc.Logf("Fold %d done: best train auc = %f, best valid auc = %f, test auc = %f", r.Fold, r.TrainAUC, r.ValidAUC, r.TestAUC)
		folds = append(folds, r)
	}
	return folds, <-done
}

func printReport(r *sapling.Report, tested bool) {
	for _, f := range r.Folds {
		fmt.Printf("fold %d: best epoch = %d, best train auc = %f, best valid auc = %f", f.Fold, f.BestEpoch, f.TrainAUC, f.ValidAUC)
		if tested {
			fmt.Printf(", test auc = %f, test accuracy = %f", f.TestAUC, f.TestAccuracy)
		}
		if f.CheckpointID != "" {
			fmt.Printf(", checkpoint %s", f.CheckpointID)
		}
		fmt.Println()
	}
	if tested {
		fmt.Printf("average test auc = %f, variance = %f\n", r.TestMean, r.TestVariance)
	}
}

func outputReport(outputPath string, r *sapling.Report) error {
	if outputPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing report: %v", err)
	}
	return os.WriteFile(outputPath, data, 0644)
}
