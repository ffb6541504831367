// Package eval measures the performance of classifiers on labeled datasets.
package eval

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/drakos74/free-shape/internal/buffer"
	"github.com/drakos74/free-shape/internal/dataset"
	"github.com/drakos74/free-shape/internal/math/ml"
	"github.com/drakos74/free-shape/internal/model"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidFraction = errors.New("train fraction must be within (0,1)")
	ErrInvalidFolds    = errors.New("folds must be more than one")
	ErrNoClassifiers   = errors.New("no classifiers given")
	ErrInvalidLabel    = errors.New("invalid label")
)

// Options controls the cross validation.
type Options struct {
	// Shuffle permutes the dataset before splitting it into folds.
	Shuffle bool
	// Verbose logs the accuracies of every fold.
	Verbose bool
}

// Evaluator runs the evaluations with its own source of randomness.
type Evaluator struct {
	rng *rand.Rand
}

// New creates a new evaluator.
// A nil rng is seeded from the clock.
func New(rng *rand.Rand) *Evaluator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Evaluator{rng: rng}
}

// StratifiedSplit splits every label stratum at random,
// putting floor(size * f) of its samples in the train set and the rest in the test set.
func (e *Evaluator) StratifiedSplit(d *dataset.Dataset, f float64) (*dataset.Dataset, *dataset.Dataset, error) {
	if !(f > 0 && f < 1) {
		return nil, nil, fmt.Errorf("%v: %w", f, ErrInvalidFraction)
	}
	strata := d.Strata()
	labels := make([]model.Label, 0, len(strata))
	for l := range strata {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		return labels[i] < labels[j]
	})

	train, test := dataset.New(), dataset.New()
	for _, l := range labels {
		stratum := strata[l]
		n := int(float64(len(stratum)) * f)
		for j, i := range e.rng.Perm(len(stratum)) {
			target := test
			if j < n {
				target = train
			}
			if err := target.Add(stratum[i], l); err != nil {
				return nil, nil, fmt.Errorf("could not split stratum %v: %w", l, err)
			}
		}
	}
	return train, test, nil
}

// CrossValidate trains and tests every classifier over k folds of the dataset.
// With k at least the size of the dataset every sample is held out on its own.
// Otherwise the dataset is cut into k folds of size/k samples in their current order,
// the remaining samples take part in no fold.
func (e *Evaluator) CrossValidate(classifiers []ml.Classifier, d *dataset.Dataset, k int, opts Options) ([]CrossValidationResult, error) {
	if len(classifiers) == 0 {
		return nil, ErrNoClassifiers
	}
	if k <= 1 {
		return nil, fmt.Errorf("%d: %w", k, ErrInvalidFolds)
	}
	if d == nil || d.IsEmpty() {
		return nil, ml.ErrEmptyDataset
	}
	if opts.Shuffle {
		d.Shuffle(e.rng)
	}

	runs := make([]*folds, len(classifiers))
	for i := range runs {
		runs[i] = newFolds()
	}

	var err error
	if k >= d.Size() {
		err = e.leaveOneOut(classifiers, d, runs, opts)
	} else {
		err = e.kFold(classifiers, d, k, runs, opts)
	}
	if err != nil {
		return nil, err
	}

	results := make([]CrossValidationResult, len(classifiers))
	for i, c := range classifiers {
		results[i] = runs[i].result(c.String())
	}
	return results, nil
}

func (e *Evaluator) leaveOneOut(classifiers []ml.Classifier, d *dataset.Dataset, runs []*folds, opts Options) error {
	for i := 0; i < d.Size(); i++ {
		held := d.At(i)
		train, err := d.Without(i)
		if err != nil {
			return err
		}
		for j, c := range classifiers {
			trainAccuracy, err := fit(c, train)
			if err != nil {
				return err
			}
			l, err := c.Predict(held)
			if err != nil {
				return fmt.Errorf("could not predict with %s: %w", c, err)
			}
			var testAccuracy float64
			if l == held.Label {
				testAccuracy = 1
			}
			c.Reset()
			runs[j].add(trainAccuracy, testAccuracy)
			if opts.Verbose {
				log.Info().
					Str("classifier", c.String()).
					Int("fold", i).
					Str("sample", held.String()).
					Str("predicted", l.String()).
					Float64("train", trainAccuracy).
					Msg("leave one out")
			}
		}
	}
	return nil
}

func (e *Evaluator) kFold(classifiers []ml.Classifier, d *dataset.Dataset, k int, runs []*folds, opts Options) error {
	size := d.Size() / k
	if left := d.Size() % k; left > 0 {
		log.Warn().
			Int("samples", d.Size()).
			Int("folds", k).
			Int("left-out", left).
			Msg("samples not in any fold")
	}
	for f := 0; f < k; f++ {
		trainIndices := make([]int, 0, size*(k-1))
		testIndices := make([]int, 0, size)
		for i := 0; i < size*k; i++ {
			if i/size == f {
				testIndices = append(testIndices, i)
			} else {
				trainIndices = append(trainIndices, i)
			}
		}
		train, err := d.Subset(trainIndices)
		if err != nil {
			return err
		}
		test, err := d.Subset(testIndices)
		if err != nil {
			return err
		}
		for j, c := range classifiers {
			trainAccuracy, err := fit(c, train)
			if err != nil {
				return err
			}
			testAccuracy, err := ml.Accuracy(c, test)
			if err != nil {
				return err
			}
			c.Reset()
			runs[j].add(trainAccuracy, testAccuracy)
			if opts.Verbose {
				log.Info().
					Str("classifier", c.String()).
					Int("fold", f).
					Float64("train", trainAccuracy).
					Float64("test", testAccuracy).
					Msg("k-fold")
			}
		}
	}
	return nil
}

// fit trains the classifier and returns its accuracy on the training set.
func fit(c ml.Classifier, train *dataset.Dataset) (float64, error) {
	if err := c.Train(train); err != nil {
		return 0, fmt.Errorf("could not train %s: %w", c, err)
	}
	return ml.Accuracy(c, train)
}

// ConfusionMatrices trains every classifier on the train set and counts its predictions on the test set.
func (e *Evaluator) ConfusionMatrices(classifiers []ml.Classifier, train, test *dataset.Dataset) ([]*ConfusionMatrix, error) {
	if len(classifiers) == 0 {
		return nil, ErrNoClassifiers
	}
	if test == nil || test.IsEmpty() {
		return nil, ml.ErrEmptyDataset
	}
	actual := make([]model.Label, test.Size())
	for i := range actual {
		actual[i] = test.At(i).Label
	}
	matrices := make([]*ConfusionMatrix, len(classifiers))
	for i, c := range classifiers {
		if err := c.Train(train); err != nil {
			return nil, fmt.Errorf("could not train %s: %w", c, err)
		}
		predicted, err := ml.Predictions(c, test)
		if err != nil {
			return nil, err
		}
		cm, err := NewConfusionMatrix(c.String(), actual, predicted)
		if err != nil {
			return nil, err
		}
		matrices[i] = cm
	}
	return matrices, nil
}

// Accuracies trains every classifier on the train set and measures it on both sets.
func (e *Evaluator) Accuracies(classifiers []ml.Classifier, train, test *dataset.Dataset) ([]SplitResult, error) {
	if len(classifiers) == 0 {
		return nil, ErrNoClassifiers
	}
	results := make([]SplitResult, len(classifiers))
	for i, c := range classifiers {
		trainAccuracy, err := fit(c, train)
		if err != nil {
			return nil, err
		}
		testAccuracy, err := ml.Accuracy(c, test)
		if err != nil {
			return nil, err
		}
		results[i] = SplitResult{
			Classifier: c.String(),
			Train:      trainAccuracy,
			Test:       testAccuracy,
		}
	}
	return results, nil
}

// SplitAccuracy splits the dataset by label and measures every classifier on the split.
func (e *Evaluator) SplitAccuracy(classifiers []ml.Classifier, d *dataset.Dataset, f float64) ([]SplitResult, error) {
	train, test, err := e.StratifiedSplit(d, f)
	if err != nil {
		return nil, err
	}
	return e.Accuracies(classifiers, train, test)
}

// folds collects the accuracies of one classifier across the folds.
type folds struct {
	train     *buffer.Stats
	test      *buffer.Stats
	trainRuns []float64
	testRuns  []float64
}

func newFolds() *folds {
	return &folds{
		train:     buffer.NewStats(),
		test:      buffer.NewStats(),
		trainRuns: make([]float64, 0),
		testRuns:  make([]float64, 0),
	}
}

func (f *folds) add(train, test float64) {
	f.train.Push(train)
	f.test.Push(test)
	f.trainRuns = append(f.trainRuns, train)
	f.testRuns = append(f.testRuns, test)
}

func (f *folds) result(classifier string) CrossValidationResult {
	return CrossValidationResult{
		Classifier: classifier,
		Folds:      f.test.Count(),
		Train: Score{
			Mean:  f.train.Avg(),
			StDev: f.train.StDev(),
			Runs:  f.trainRuns,
		},
		Test: Score{
			Mean:  f.test.Avg(),
			StDev: f.test.StDev(),
			Runs:  f.testRuns,
		},
	}
}
