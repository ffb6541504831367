// Package ml implements the shape classifiers.
package ml

import (
	"errors"
	"fmt"

	"github.com/drakos74/free-shape/internal/dataset"
	"github.com/drakos74/free-shape/internal/model"
)

var (
	ErrNotTrained    = errors.New("classifier not trained")
	ErrEmptyDataset  = errors.New("empty training dataset")
	ErrInvalidConfig = errors.New("invalid classifier config")
	ErrNoPrediction  = errors.New("no prediction")
)

// Classifier predicts the label of a sample after being trained on a dataset.
type Classifier interface {
	// Train fits the classifier to the dataset.
	// The dataset is never modified.
	Train(d *dataset.Dataset) error
	// Predict returns the label for the sample.
	Predict(s model.Sample) (model.Label, error)
	// Reset drops the fitted state but keeps the configuration.
	Reset()
	String() string
}

// Accuracy returns the fraction of samples of the dataset the classifier predicts correctly.
func Accuracy(c Classifier, d *dataset.Dataset) (float64, error) {
	if d == nil || d.IsEmpty() {
		return 0, fmt.Errorf("could not calculate accuracy of %s: %w", c, ErrEmptyDataset)
	}
	correct := 0
	for i := 0; i < d.Size(); i++ {
		s := d.At(i)
		l, err := c.Predict(s)
		if err != nil {
			return 0, fmt.Errorf("could not predict with %s: %w", c, err)
		}
		if l == s.Label {
			correct++
		}
	}
	return float64(correct) / float64(d.Size()), nil
}

// Predictions returns the predicted labels for all samples of the dataset.
func Predictions(c Classifier, d *dataset.Dataset) ([]model.Label, error) {
	labels := make([]model.Label, d.Size())
	for i := 0; i < d.Size(); i++ {
		l, err := c.Predict(d.At(i))
		if err != nil {
			return nil, fmt.Errorf("could not predict with %s: %w", c, err)
		}
		labels[i] = l
	}
	return labels, nil
}
