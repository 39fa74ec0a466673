/*
Package metrics provides the evaluation measures of binary predictions.
*/
package metrics

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ErrSingleClass is returned by AUC when all labels are equal.
var ErrSingleClass = errors.New("area under the ROC curve needs both positive and negative labels")

/*
AUC takes predicted probabilities and binary labels of the same length and
returns the area under their ROC curve.
*/
func AUC(probabilities, labels []float64) (float64, error) {
	if len(probabilities) != len(labels) {
		return 0, fmt.Errorf("computing AUC of %d predictions with %d labels", len(probabilities), len(labels))
	}
	y := make([]float64, len(probabilities))
	copy(y, probabilities)
	classes := make([]bool, len(labels))
	var positives int
	for i, l := range labels {
		classes[i] = l == 1
		if classes[i] {
			positives++
		}
	}
	if positives == 0 || positives == len(labels) {
		return 0, ErrSingleClass
	}
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

/*
Accuracy takes predicted probabilities and binary labels of the same length
and returns the fraction of predictions that match their label when
thresholded at 0.5.
*/
func Accuracy(probabilities, labels []float64) (float64, error) {
	if len(probabilities) != len(labels) {
		return 0, fmt.Errorf("computing accuracy of %d predictions with %d labels", len(probabilities), len(labels))
	}
	if len(labels) == 0 {
		return 0, errors.New("computing accuracy of no predictions")
	}
	var right int
	for i, p := range probabilities {
		predicted := 0.0
		if p >= 0.5 {
			predicted = 1
		}
		if predicted == labels[i] {
			right++
		}
	}
	return float64(right) / float64(len(labels)), nil
}

// MeanVariance returns the mean and the population variance of values.
func MeanVariance(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanVariance(values, nil)
}
