package ml

import (
	"fmt"

	"github.com/drakos74/free-shape/internal/dataset"
	shapemath "github.com/drakos74/free-shape/internal/math"
	"github.com/drakos74/free-shape/internal/metrics"
	"github.com/drakos74/free-shape/internal/model"
	randomforest "github.com/malaschitz/randomForest"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

const forestName = "forest"

// RandomForest is a random forest classifier over the raw feature vectors.
type RandomForest struct {
	trees  int
	dim    int
	forest *randomforest.Forest
}

// NewForest creates a random forest of n trees.
func NewForest(n int) (*RandomForest, error) {
	if n < 1 {
		return nil, fmt.Errorf("trees must be positive but was %d: %w", n, ErrInvalidConfig)
	}
	return &RandomForest{
		trees: n,
	}, nil
}

// Train grows the trees on the dataset.
func (rf *RandomForest) Train(d *dataset.Dataset) error {
	if d == nil || d.IsEmpty() {
		return ErrEmptyDataset
	}
	xData := make([][]float64, d.Size())
	yData := make([]int, d.Size())
	for i := 0; i < d.Size(); i++ {
		s := d.At(i)
		xData[i] = s.Vector
		yData[i] = int(s.Label)
	}
	forest := &randomforest.Forest{}
	forest.Data = randomforest.ForestData{X: xData, Class: yData}
	forest.Train(rf.trees)
	rf.forest = forest
	rf.dim = d.Dim()
	metrics.Observer.Trained(forestName)
	log.Debug().
		Str("classifier", rf.String()).
		Int("samples", d.Size()).
		Floats64("importance", forest.FeatureImportance).
		Msg("trained")
	return nil
}

// Predict returns the label with the most votes.
func (rf *RandomForest) Predict(s model.Sample) (model.Label, error) {
	if rf.forest == nil {
		return model.NoLabel, ErrNotTrained
	}
	if s.Dim() != rf.dim {
		return model.NoLabel, fmt.Errorf("%d vs %d: %w", s.Dim(), rf.dim, shapemath.ErrDimensionMismatch)
	}
	votes := rf.forest.Vote(s.Vector)
	if len(votes) == 0 || !(floats.Sum(votes) > 0) {
		return model.NoLabel, fmt.Errorf("no votes from %s for %s: %w", rf, s, ErrNoPrediction)
	}
	metrics.Observer.Predicted(forestName)
	return model.Label(floats.MaxIdx(votes)), nil
}

// Reset drops the trained trees.
func (rf *RandomForest) Reset() {
	rf.forest = nil
	rf.dim = 0
}

func (rf *RandomForest) String() string {
	return fmt.Sprintf("forest(trees=%d)", rf.trees)
}
