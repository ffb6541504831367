package ml

import (
	"fmt"
	"sort"

	"github.com/drakos74/free-shape/internal/dataset"
	shapemath "github.com/drakos74/free-shape/internal/math"
	"github.com/drakos74/free-shape/internal/metrics"
	"github.com/drakos74/free-shape/internal/model"
)

const knnName = "knn"

// DefaultOrder is the euclidean order used when none is given.
const DefaultOrder = shapemath.Euclidean

// KNN is a k-nearest-neighbour classifier.
// It keeps a reference to the training dataset and does no work on Train.
type KNN struct {
	k     int
	p     int
	train *dataset.Dataset
}

// NewKNN creates a new k-nearest-neighbour classifier with the given minkowski order.
func NewKNN(k, p int) (*KNN, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be positive but was %d: %w", k, ErrInvalidConfig)
	}
	if p < 1 {
		return nil, fmt.Errorf("order must be positive but was %d: %w", p, ErrInvalidConfig)
	}
	return &KNN{k: k, p: p}, nil
}

// Train stores the dataset for subsequent predictions.
func (knn *KNN) Train(d *dataset.Dataset) error {
	if d == nil || d.IsEmpty() {
		return ErrEmptyDataset
	}
	knn.train = d
	metrics.Observer.Trained(knnName)
	return nil
}

type neighbour struct {
	distance float64
	label    model.Label
}

// Predict returns the majority label among the k closest training samples.
// Equal distances keep the dataset order and vote ties go to the closest label.
func (knn *KNN) Predict(s model.Sample) (model.Label, error) {
	if knn.train == nil {
		return model.NoLabel, ErrNotTrained
	}
	neighbours := make([]neighbour, knn.train.Size())
	for i := range neighbours {
		t := knn.train.At(i)
		d, err := shapemath.Distance(s.Vector, t.Vector, knn.p)
		if err != nil {
			return model.NoLabel, err
		}
		neighbours[i] = neighbour{distance: d, label: t.Label}
	}
	sort.SliceStable(neighbours, func(i, j int) bool {
		return neighbours[i].distance < neighbours[j].distance
	})

	k := knn.k
	if k > len(neighbours) {
		k = len(neighbours)
	}
	votes := make(map[model.Label]int)
	for _, n := range neighbours[:k] {
		votes[n.label]++
	}
	label, top := model.NoLabel, 0
	for _, n := range neighbours[:k] {
		if votes[n.label] > top {
			label = n.label
			top = votes[n.label]
		}
	}
	metrics.Observer.Predicted(knnName)
	return label, nil
}

// Reset drops the training dataset.
func (knn *KNN) Reset() {
	knn.train = nil
}

func (knn *KNN) String() string {
	return fmt.Sprintf("knn(k=%d,p=%d)", knn.k, knn.p)
}
