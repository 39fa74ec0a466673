package sapling

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/pbanos/sapling/autograd"
	"github.com/pbanos/sapling/dataset"
	"github.com/pbanos/sapling/metrics"
	"github.com/pbanos/sapling/model"
	"go.uber.org/zap"
)

// Evaluation holds the measures of a model over a set of sequences.
type Evaluation struct {
	// Loss is the average of the batch losses
	Loss float64
	// AUC is the area under the ROC curve of the predictions
	AUC float64
	// Accuracy is the fraction of predictions matching their label
	// at a 0.5 threshold
	Accuracy float64
	// Predictions is the number of steps with a target
	Predictions int
}

// EpochResult holds the evaluation of an epoch on the training and
// validation sequences.
type EpochResult struct {
	Epoch int
	Train Evaluation
	Valid Evaluation
}

/*
FoldResult is the outcome of training a model on a fold: the epoch with the
best validation AUC, with its train and validation AUC, along with the whole
history of epochs.
*/
type FoldResult struct {
	Fold      int
	BestEpoch int
	TrainAUC  float64
	ValidAUC  float64
	History   []*EpochResult
}

/*
Prediction is the predicted probability of a student answering correctly
the step of a sequence, together with the actual result.
*/
type Prediction struct {
	Student     string  `json:"student"`
	Step        int     `json:"step"`
	Probability float64 `json:"probability"`
	Result      float64 `json:"result"`
}

/*
Trainer fits a model to sequences, epoch after epoch, with batches processed
strictly in order: forward, loss, backward and optimizer step.
*/
type Trainer struct {
	Model     *model.Model
	Optimizer *autograd.Adam
	Stopping  *StoppingStrategy
	// Rand, if set, shuffles the training sequences on every epoch
	Rand   *rand.Rand
	Logger *zap.Logger
}

/*
NewTrainer returns a trainer for the given model with an Adam optimizer and
a stopping strategy set up from the model parameters. A nil logger discards
all logs.
*/
func NewTrainer(m *model.Model, logger *zap.Logger) (*Trainer, error) {
	ss, err := NewStoppingStrategy(m.Params.Epochs, m.Params.Patience)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{
		Model:     m,
		Optimizer: autograd.NewAdam(m.Params.LearningRate, m.Params.WeightDecay),
		Stopping:  ss,
		Logger:    logger,
	}, nil
}

/*
RunEpoch trains the model for an epoch on the given sequences, split into
as many whole batches as they fill, and returns the evaluation of the
predictions made while training. Batches without any target are skipped.
The context is checked between batches.
*/
func (t *Trainer) RunEpoch(ctx context.Context, sequences []*dataset.Sequence) (*Evaluation, error) {
	if t.Rand != nil {
		sequences = dataset.Shuffle(t.Rand, sequences)
	}
	batches := dataset.Batches(sequences, t.Model.Params.BatchSize)
	if len(batches) == 0 {
		return nil, fmt.Errorf("training on %d sequences with batch size %d", len(sequences), t.Model.Params.BatchSize)
	}
	params := t.Model.Parameters()
	acc := &collector{}
	for i, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := t.Model.Forward(b)
		if err == model.ErrNoTargets {
			t.Logger.Debug("skipping batch without targets", zap.Int("batch", i))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("training batch %d: %v", i, err)
		}
		autograd.Backward(out.Loss)
		t.Optimizer.Step(params)
		acc.add(out)
	}
	return acc.evaluation()
}

/*
Evaluate runs the model over all the given sequences, without training it,
and returns the evaluation of its predictions.
*/
func (t *Trainer) Evaluate(ctx context.Context, sequences []*dataset.Sequence) (*Evaluation, error) {
	acc := &collector{}
	err := t.forEachBatch(ctx, sequences, func(offset int, b []*dataset.Sequence, out *model.Output) error {
		acc.add(out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc.evaluation()
}

/*
Predict runs the model over all the given sequences and returns a
prediction for every step with a target, in sequence order.
*/
func (t *Trainer) Predict(ctx context.Context, sequences []*dataset.Sequence) ([]*Prediction, error) {
	var predictions []*Prediction
	err := t.forEachBatch(ctx, sequences, func(offset int, b []*dataset.Sequence, out *model.Output) error {
		for i, pos := range out.Positions {
			predictions = append(predictions, &Prediction{
				Student:     b[pos.Sequence].Student,
				Step:        pos.Step,
				Probability: out.Probabilities[i],
				Result:      out.Labels[i],
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return predictions, nil
}

/*
Fit trains the model on the train sequences until the stopping strategy
says so, evaluating it on the valid sequences after every epoch. The model
is left with the parameters of the epoch with the best validation AUC.
*/
func (t *Trainer) Fit(ctx context.Context, fold int, train, valid []*dataset.Sequence) (*FoldResult, error) {
	logger := t.Logger.With(zap.Int("fold", fold))
	result := &FoldResult{Fold: fold}
	var best model.Snapshot
	for epoch := 1; ; epoch++ {
		tr, err := t.RunEpoch(ctx, train)
		if err != nil {
			return nil, fmt.Errorf("fold %d epoch %d: %v", fold, epoch, err)
		}
		vr, err := t.Evaluate(ctx, valid)
		if err != nil {
			return nil, fmt.Errorf("fold %d epoch %d: validating: %v", fold, epoch, err)
		}
		er := &EpochResult{Epoch: epoch, Train: *tr, Valid: *vr}
		result.History = append(result.History, er)
		logger.Info("epoch finished",
			zap.Int("epoch", epoch),
			zap.Float64("loss", tr.Loss),
			zap.Float64("auc", tr.AUC),
			zap.Float64("accuracy", tr.Accuracy),
			zap.Float64("valid_auc", vr.AUC),
			zap.Float64("valid_accuracy", vr.Accuracy),
		)
		if best == nil || vr.AUC > result.ValidAUC {
			logger.Info("validation auc improved", zap.Float64("from", result.ValidAUC), zap.Float64("to", vr.AUC))
			result.BestEpoch = epoch
			result.TrainAUC = tr.AUC
			result.ValidAUC = vr.AUC
			best = t.Model.Snapshot()
		}
		if t.Stopping.done(result.History) {
			break
		}
	}
	if best != nil {
		err := t.Model.Restore(best)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (t *Trainer) forEachBatch(ctx context.Context, sequences []*dataset.Sequence, f func(int, []*dataset.Sequence, *model.Output) error) error {
	size := t.Model.Params.BatchSize
	for offset := 0; offset < len(sequences); offset += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := offset + size
		if end > len(sequences) {
			end = len(sequences)
		}
		b := sequences[offset:end]
		out, err := t.Model.Forward(b)
		if err == model.ErrNoTargets {
			continue
		}
		if err != nil {
			return fmt.Errorf("evaluating batch at %d: %v", offset, err)
		}
		err = f(offset, b, out)
		if err != nil {
			return err
		}
	}
	return nil
}

type collector struct {
	loss          float64
	batches       int
	probabilities []float64
	labels        []float64
}

func (c *collector) add(out *model.Output) {
	c.loss += out.Loss.Data
	c.batches++
	c.probabilities = append(c.probabilities, out.Probabilities...)
	c.labels = append(c.labels, out.Labels...)
}

func (c *collector) evaluation() (*Evaluation, error) {
	if c.batches == 0 {
		return nil, model.ErrNoTargets
	}
	auc, err := metrics.AUC(c.probabilities, c.labels)
	if err != nil {
		return nil, err
	}
	accuracy, err := metrics.Accuracy(c.probabilities, c.labels)
	if err != nil {
		return nil, err
	}
	return &Evaluation{
		Loss:        c.loss / float64(c.batches),
		AUC:         auc,
		Accuracy:    accuracy,
		Predictions: len(c.labels),
	}, nil
}
