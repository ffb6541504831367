// Package dataset holds the labeled shape samples used for training and evaluation.
package dataset

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/drakos74/free-shape/internal/buffer"
	shapemath "github.com/drakos74/free-shape/internal/math"
	"github.com/drakos74/free-shape/internal/model"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidLabel = errors.New("invalid label")
	ErrKindMismatch = errors.New("representation kind mismatch")
	ErrDuplicate    = errors.New("sample already in dataset")
	ErrOutOfRange   = errors.New("index out of range")
)

// Dataset is an insertion ordered collection of distinct labeled samples
// of a single representation kind.
type Dataset struct {
	kind    model.Kind
	dim     int
	samples []model.Sample
	// keys holds the identity of every sample as it was passed to Add,
	// in the same order as the samples.
	keys   []string
	index  map[string]int
	strata map[model.Label][]model.Sample
	// ranges keeps track of the min and max of every feature,
	// it is created on the first insertion.
	ranges *buffer.StatsCollector
}

// New creates a new empty dataset.
func New() *Dataset {
	return &Dataset{
		samples: make([]model.Sample, 0),
		keys:    make([]string, 0),
		index:   make(map[string]int),
		strata:  make(map[model.Label][]model.Sample),
	}
}

// Of creates a dataset from the given samples, using the label each sample carries.
func Of(samples ...model.Sample) (*Dataset, error) {
	d := New()
	for _, s := range samples {
		if err := d.Add(s, s.Label); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Add inserts the sample with the given label.
// The first sample fixes the representation kind and dimension of the dataset.
// The sample is identified by its key as passed,
// and the same vector cannot be added twice under the same label.
// Rejected samples leave the dataset untouched.
func (d *Dataset) Add(sample model.Sample, label model.Label) error {
	return d.add(sample, label, sample.Key())
}

func (d *Dataset) add(sample model.Sample, label model.Label, key string) error {
	if err := d.accept(sample, label, key); err != nil {
		log.Warn().
			Err(err).
			Str("sample", sample.String()).
			Str("kind", string(d.kind)).
			Msg("could not add sample")
		return err
	}

	s := sample.WithLabel(label)
	s.Vector = model.Copy(sample.Vector)

	if d.ranges == nil {
		d.kind = s.Kind
		d.dim = s.Dim()
		d.ranges = buffer.NewStatsCollector(d.dim)
	}

	d.index[key] = len(d.samples)
	d.keys = append(d.keys, key)
	d.samples = append(d.samples, s)
	d.strata[label] = append(d.strata[label], s)
	d.ranges.Push(s.Vector...)
	return nil
}

func (d *Dataset) accept(sample model.Sample, label model.Label, key string) error {
	if !label.Valid() {
		return fmt.Errorf("label %d: %w", label, ErrInvalidLabel)
	}
	if d.ranges == nil {
		return nil
	}
	if sample.Kind != d.kind {
		return fmt.Errorf("dataset accepts only '%s' not '%s': %w", d.kind, sample.Kind, ErrKindMismatch)
	}
	if sample.Dim() != d.dim {
		return fmt.Errorf("%d vs %d: %w", sample.Dim(), d.dim, shapemath.ErrDimensionMismatch)
	}
	if _, ok := d.index[key]; ok {
		return ErrDuplicate
	}
	for _, s := range d.strata[label] {
		if model.Equal(s.Vector, sample.Vector) {
			return ErrDuplicate
		}
	}
	return nil
}

// Remove removes the sample, identified as it was passed to Add.
// It returns false if the sample was not present.
func (d *Dataset) Remove(sample model.Sample) bool {
	key := sample.Key()
	i, ok := d.index[key]
	if !ok {
		return false
	}
	removed := d.samples[i]
	delete(d.index, key)
	d.samples = append(d.samples[:i], d.samples[i+1:]...)
	d.keys = append(d.keys[:i], d.keys[i+1:]...)
	for j := i; j < len(d.keys); j++ {
		d.index[d.keys[j]] = j
	}

	stratum := d.strata[removed.Label]
	for j, s := range stratum {
		if model.Equal(s.Vector, removed.Vector) {
			stratum = append(stratum[:j], stratum[j+1:]...)
			break
		}
	}
	if len(stratum) == 0 {
		delete(d.strata, removed.Label)
	} else {
		d.strata[removed.Label] = stratum
	}
	return true
}

// Contains returns true if the sample, identified as it was passed to Add, is in the dataset.
func (d *Dataset) Contains(sample model.Sample) bool {
	_, ok := d.index[sample.Key()]
	return ok
}

// Label returns the label of the first sample with the same vector.
func (d *Dataset) Label(sample model.Sample) (model.Label, bool) {
	for _, s := range d.samples {
		if model.Equal(s.Vector, sample.Vector) {
			return s.Label, true
		}
	}
	return model.NoLabel, false
}

// Size returns the number of samples.
func (d *Dataset) Size() int {
	return len(d.samples)
}

// IsEmpty returns true if the dataset holds no samples.
func (d *Dataset) IsEmpty() bool {
	return len(d.samples) == 0
}

// Kind returns the representation kind accepted by the dataset.
func (d *Dataset) Kind() model.Kind {
	return d.kind
}

// Dim returns the dimension of the samples.
func (d *Dataset) Dim() int {
	return d.dim
}

// At returns the sample at the given position.
func (d *Dataset) At(i int) model.Sample {
	return d.samples[i]
}

// Samples returns the samples in their current order.
func (d *Dataset) Samples() []model.Sample {
	samples := make([]model.Sample, len(d.samples))
	copy(samples, d.samples)
	return samples
}

// Strata returns the samples grouped by label.
func (d *Dataset) Strata() map[model.Label][]model.Sample {
	strata := make(map[model.Label][]model.Sample, len(d.strata))
	for l, samples := range d.strata {
		ss := make([]model.Sample, len(samples))
		copy(ss, samples)
		strata[l] = ss
	}
	return strata
}

// Labels returns the labels present in the dataset in increasing order.
func (d *Dataset) Labels() []model.Label {
	labels := make([]model.Label, 0, len(d.strata))
	for l := range d.strata {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		return labels[i] < labels[j]
	})
	return labels
}

// Mins returns the smallest value seen for each feature.
func (d *Dataset) Mins() []float64 {
	if d.ranges == nil {
		return nil
	}
	return d.ranges.Mins()
}

// Maxs returns the largest value seen for each feature.
func (d *Dataset) Maxs() []float64 {
	if d.ranges == nil {
		return nil
	}
	return d.ranges.Maxs()
}

// Shuffle reorders the samples with a uniform random permutation.
func (d *Dataset) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.samples), func(i, j int) {
		d.samples[i], d.samples[j] = d.samples[j], d.samples[i]
		d.keys[i], d.keys[j] = d.keys[j], d.keys[i]
	})
	for i, key := range d.keys {
		d.index[key] = i
	}
}

// Reset removes all samples and the kind restriction.
func (d *Dataset) Reset() {
	d.kind = model.NoKind
	d.dim = 0
	d.samples = make([]model.Sample, 0)
	d.keys = make([]string, 0)
	d.index = make(map[string]int)
	d.strata = make(map[model.Label][]model.Sample)
	d.ranges = nil
}

// Subset creates a new dataset with the samples at the given positions.
// The samples keep the identity they were added with.
func (d *Dataset) Subset(indices []int) (*Dataset, error) {
	sub := New()
	for _, i := range indices {
		if i < 0 || i >= len(d.samples) {
			return nil, fmt.Errorf("index %d of %d: %w", i, len(d.samples), ErrOutOfRange)
		}
		s := d.samples[i]
		if err := sub.add(s, s.Label, d.keys[i]); err != nil {
			return nil, fmt.Errorf("could not add sample at %d: %w", i, err)
		}
	}
	return sub, nil
}

// Without creates a new dataset with all samples but the one at the given position.
func (d *Dataset) Without(i int) (*Dataset, error) {
	if i < 0 || i >= len(d.samples) {
		return nil, fmt.Errorf("index %d of %d: %w", i, len(d.samples), ErrOutOfRange)
	}
	indices := make([]int, 0, len(d.samples)-1)
	for j := range d.samples {
		if j != i {
			indices = append(indices, j)
		}
	}
	return d.Subset(indices)
}

// Copy creates a new dataset with the same samples in the same order.
func (d *Dataset) Copy() *Dataset {
	c := New()
	for i, s := range d.samples {
		// cannot fail, the samples were accepted already
		_ = c.add(s, s.Label, d.keys[i])
	}
	return c
}
