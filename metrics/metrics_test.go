package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAUC(t *testing.T) {
	probs := []float64{0.1, 0.4, 0.35, 0.8}
	auc, err := AUC(probs, []float64{0, 0, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, auc, 1e-12)
	assert.Equal(t, []float64{0.1, 0.4, 0.35, 0.8}, probs, "inputs are not reordered")

	auc, err = AUC([]float64{0.9, 0.2, 0.7, 0.1}, []float64{1, 0, 1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1, auc, 1e-12)
}

func TestAUCErrors(t *testing.T) {
	_, err := AUC([]float64{0.3, 0.6}, []float64{1, 1})
	assert.Equal(t, ErrSingleClass, err)
	_, err = AUC(nil, nil)
	assert.Error(t, err)
	_, err = AUC([]float64{0.3}, []float64{1, 0})
	assert.Error(t, err)
}

func TestAccuracy(t *testing.T) {
	acc, err := Accuracy([]float64{0.5, 0.49, 0.9, 0.1}, []float64{1, 1, 1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, acc, 1e-12)

	_, err = Accuracy(nil, nil)
	assert.Error(t, err)
}

func TestMeanVariance(t *testing.T) {
	mean, variance := MeanVariance([]float64{0.7, 0.8, 0.9})
	assert.InDelta(t, 0.8, mean, 1e-12)
	assert.InDelta(t, 0.02/3, variance, 1e-12)
}
