/*
Package sapling trains knowledge tracing models that read the code students
submit as abstract syntax trees, and evaluates them by cross-validation.

Folds of a cross-validation run are tasks on a queue.Queue. Seed pushes
them and any number of workers, on one process or several, pull and train
them with Work. Every worker builds its own model, so folds never share
parameters.
*/
package sapling

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/pbanos/sapling/checkpoint"
	"github.com/pbanos/sapling/config"
	"github.com/pbanos/sapling/dataset"
	"github.com/pbanos/sapling/metrics"
	"github.com/pbanos/sapling/model"
	"github.com/pbanos/sapling/queue"
	"go.uber.org/zap"
)

// Opener takes a context and the URI of a dataset and returns the dataset
// or an error if it cannot be opened.
type Opener func(ctx context.Context, uri string) (dataset.Dataset, error)

/*
FoldReport is the outcome of a fold: the result of its training, the AUC
and accuracy of its best model on the test sequences (zero if the fold has
no test dataset) and the ID of the checkpoint of the model, if stored.
*/
type FoldReport struct {
	*FoldResult
	TestAUC      float64
	TestAccuracy float64
	CheckpointID string
}

/*
Report summarizes a cross-validation run: the reports of its folds, sorted
by fold, and the mean and population variance of their test AUC.
*/
type Report struct {
	Folds        []*FoldReport
	TestMean     float64
	TestVariance float64
}

// Seed takes a context, a queue, model parameters, patterns for the
// URIs of the training and validation datasets of each fold and the URI
// of the test dataset, and pushes a task per fold onto the queue so that
// workers consuming from it afterwards train and test the folds.
// The patterns must contain a %d verb that is replaced by the fold
// number, from 1 to the number of folds in the parameters. The test URI
// may be empty, in which case folds are not tested.
// It returns the pushed tasks or an error if a task cannot be pushed (in
// the amount of time allowed by the given context).
func Seed(ctx context.Context, q queue.Queue, p *config.Params, trainPattern, validPattern, test string) ([]*queue.Task, error) {
	for _, pattern := range []string{trainPattern, validPattern} {
		if strings.Count(pattern, "%d") != 1 {
			return nil, fmt.Errorf("dataset pattern %q must contain a single %%d for the fold", pattern)
		}
	}
	err := p.Validate()
	if err != nil {
		return nil, err
	}
	var tasks []*queue.Task
	for fold := 1; fold <= p.Folds; fold++ {
		task := queue.NewTask(fold, fmt.Sprintf(trainPattern, fold), fmt.Sprintf(validPattern, fold), test, p)
		err = q.Push(ctx, task)
		if err != nil {
			return nil, fmt.Errorf("seeding fold %d: %v", fold, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

/*
Worker pulls fold tasks from a queue and trains them. Open resolves the
dataset URIs of tasks. Store, if set, keeps a checkpoint of the best model
of every fold, and Reports, if set, receives a report per trained fold.
*/
type Worker struct {
	Queue   queue.Queue
	Open    Opener
	Store   checkpoint.Store
	Reports chan<- *FoldReport
	Logger  *zap.Logger
	// EmptyQueueSleep is how long the worker waits
	// before pulling again when the queue is empty
	// but some folds are still running
	EmptyQueueSleep time.Duration
}

// Work takes a context and enters a loop in which
// it:
//   * pulls a task for the queue,
//   * trains and tests its fold with TrainFold
//   * sends its report to the Reports channel
//   * marks the task as completed on the queue
//
// If at some point no task can be pulled from the queue and
// the sum of tasks running and pending on the queue is 0, the
// worker ends returning nil. If no task can be pulled but the
// sum is not 0, then the worker will sleep for the
// EmptyQueueSleep duration and then retry.
//
// Work will return a non-nil error if the given context
// times out or is cancelled, if TrainFold returns a non-nil
// error or if an operation with the queue returns a
// non-nil error. Failed tasks are dropped back to the queue.
func (w *Worker) Work(ctx context.Context) error {
	logger := w.logger()
	for {
		task, tctx, tcf, err := w.Queue.Pull(ctx)
		if err != nil {
			return err
		}
		if task == nil {
			p, r, err := w.Queue.Count(ctx)
			if err != nil {
				return err
			}
			if r+p == 0 {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.EmptyQueueSleep):
			}
			continue
		}
		logger.Info("pulled fold", zap.String("task", task.ID), zap.Int("fold", task.Fold))
		mctx, cancel := mergeCtxCancel(tctx, ctx)
		err = w.workTask(mctx, task)
		cancel()
		tcf()
		if err != nil {
			return err
		}
		err = ctx.Err()
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) workTask(ctx context.Context, task *queue.Task) error {
	completed := false
	defer func() {
		if !completed {
			w.Queue.Drop(context.Background(), task.ID)
		}
	}()
	report, err := TrainFold(ctx, task, w.Open, w.Store, w.logger())
	if err != nil {
		return fmt.Errorf("task %s: %v", task.ID, err)
	}
	if w.Reports != nil {
		select {
		case w.Reports <- report:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	err = w.Queue.Complete(ctx, task.ID)
	if err != nil {
		return err
	}
	completed = true
	return nil
}

func (w *Worker) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}

/*
TrainFold takes a context, a fold task, an Opener for its dataset URIs, an
optional checkpoint store and a logger, and trains a model on the task's
training sequences with early stopping on its validation sequences. The
best model is then tested on the task's test sequences, if any, and
stored on the checkpoint store, if given.

Sequences longer than the parameters' seqlen are windowed and all sequences
are validated against the parameters before training.
*/
func TrainFold(ctx context.Context, task *queue.Task, open Opener, store checkpoint.Store, logger *zap.Logger) (*FoldReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := task.Params
	train, err := Load(ctx, open, task.Train, p)
	if err != nil {
		return nil, err
	}
	valid, err := Load(ctx, open, task.Valid, p)
	if err != nil {
		return nil, err
	}
	m, err := model.New(p, rand.New(rand.NewSource(p.Seed+int64(task.Fold))))
	if err != nil {
		return nil, err
	}
	trainer, err := NewTrainer(m, logger)
	if err != nil {
		return nil, err
	}
	result, err := trainer.Fit(ctx, task.Fold, train, valid)
	if err != nil {
		return nil, err
	}
	report := &FoldReport{FoldResult: result}
	logger = logger.With(zap.Int("fold", task.Fold))
	logger.Info("fold trained",
		zap.Int("best_epoch", result.BestEpoch),
		zap.Float64("train_auc", result.TrainAUC),
		zap.Float64("valid_auc", result.ValidAUC),
	)
	if task.Test != "" {
		test, err := Load(ctx, open, task.Test, p)
		if err != nil {
			return nil, err
		}
		ev, err := trainer.Evaluate(ctx, test)
		if err != nil {
			return nil, fmt.Errorf("fold %d: testing: %v", task.Fold, err)
		}
		report.TestAUC = ev.AUC
		report.TestAccuracy = ev.Accuracy
		logger.Info("fold tested", zap.Float64("auc", ev.AUC), zap.Float64("accuracy", ev.Accuracy))
	}
	if store != nil {
		c := checkpoint.New(m, task.Fold, result.BestEpoch)
		c.TrainAUC = result.TrainAUC
		c.ValidAUC = result.ValidAUC
		c.TestAUC = report.TestAUC
		err = store.Create(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("fold %d: storing checkpoint: %v", task.Fold, err)
		}
		report.CheckpointID = c.ID
		logger.Info("checkpoint stored", zap.String("checkpoint", c.ID))
	}
	return report, nil
}

/*
Load takes a context, an Opener, a dataset URI and model parameters and
returns the sequences of the dataset, windowed to the parameters' seqlen
and validated against the vector lengths they prescribe.
*/
func Load(ctx context.Context, open Opener, uri string, p *config.Params) ([]*dataset.Sequence, error) {
	ds, err := open(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %q: %v", uri, err)
	}
	sequences, err := ds.Sequences(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %q: %v", uri, err)
	}
	sequences = dataset.Window(sequences, p.Seqlen)
	err = dataset.Validate(sequences, dataset.Shape{Concepts: p.Concepts(), Previous: p.PreviousDim})
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %v", uri, err)
	}
	return sequences, nil
}

/*
Summarize takes the reports of the folds of a run and returns the report of
the run, with the folds sorted by number.
*/
func Summarize(folds []*FoldReport) *Report {
	sorted := make([]*FoldReport, len(folds))
	copy(sorted, folds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Fold < sorted[j].Fold })
	aucs := make([]float64, len(sorted))
	for i, f := range sorted {
		aucs[i] = f.TestAUC
	}
	mean, variance := metrics.MeanVariance(aucs)
	return &Report{Folds: sorted, TestMean: mean, TestVariance: variance}
}

func mergeCtxCancel(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	mctx, cancel := context.WithCancel(ctx1)
	go func() {
		select {
		case <-mctx.Done():
		case <-ctx2.Done():
			cancel()
		}
	}()
	return mctx, cancel
}
