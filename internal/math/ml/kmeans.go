package ml

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/drakos74/free-shape/internal/dataset"
	shapemath "github.com/drakos74/free-shape/internal/math"
	"github.com/drakos74/free-shape/internal/metrics"
	"github.com/drakos74/free-shape/internal/model"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

const kmeansName = "kmeans"

// Init is the centroid seeding strategy.
type Init string

const (
	// RandomInit draws every coordinate uniformly over the positive float range.
	RandomInit Init = "random"
	// EnhancedRandomInit draws every coordinate uniformly within the feature range of the data.
	EnhancedRandomInit Init = "enhanced_random"
	// KMeansPlusPlusInit picks training points with probability proportional to their squared distance.
	KMeansPlusPlusInit Init = "kmeans++"
)

// ParseInit parses a seeding strategy ignoring case.
func ParseInit(s string) (Init, error) {
	switch in := Init(strings.ToLower(strings.TrimSpace(s))); in {
	case RandomInit, EnhancedRandomInit, KMeansPlusPlusInit:
		return in, nil
	}
	return "", fmt.Errorf("unknown init '%s': %w", s, ErrInvalidConfig)
}

// remediates returns true if unassigned centroids get the unused labels after training.
func (in Init) remediates() bool {
	return in != KMeansPlusPlusInit
}

// KMeansConfig configures the clustering classifier.
type KMeansConfig struct {
	K        int
	P        int
	MaxIter  int
	Init     Init
	Restarts int
}

// DefaultKMeansConfig returns the config for k clusters with euclidean distance and kmeans++ seeding.
func DefaultKMeansConfig(k int) KMeansConfig {
	return KMeansConfig{
		K:        k,
		P:        DefaultOrder,
		MaxIter:  100,
		Init:     KMeansPlusPlusInit,
		Restarts: 1,
	}
}

// KMeans is a clustering classifier.
// Each centroid takes the most frequent label of the training samples assigned to it.
type KMeans struct {
	cfg        KMeansConfig
	rng        *rand.Rand
	centroids  []model.Centroid
	sizes      []int
	samples    int
	iterations int
	inertia    float64
}

// NewKMeans creates a new clustering classifier.
// A nil rng is seeded from the clock.
func NewKMeans(cfg KMeansConfig, rng *rand.Rand) (*KMeans, error) {
	if cfg.K < 1 {
		return nil, fmt.Errorf("k must be positive but was %d: %w", cfg.K, ErrInvalidConfig)
	}
	if cfg.P < 1 {
		return nil, fmt.Errorf("order must be positive but was %d: %w", cfg.P, ErrInvalidConfig)
	}
	if cfg.MaxIter < 1 {
		return nil, fmt.Errorf("max iterations must be positive but was %d: %w", cfg.MaxIter, ErrInvalidConfig)
	}
	in, err := ParseInit(string(cfg.Init))
	if err != nil {
		return nil, err
	}
	cfg.Init = in
	if cfg.Restarts < 1 {
		cfg.Restarts = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &KMeans{
		cfg: cfg,
		rng: rng,
	}, nil
}

// run is the outcome of one seeding and refinement.
type run struct {
	centroids  []model.Centroid
	groups     [][]int
	iterations int
	inertia    float64
	// purity counts the samples carrying the most frequent label of their group.
	purity int
}

// better reports whether r should be kept over other,
// comparing purity first and inertia on ties.
func (r *run) better(other *run) bool {
	if other == nil {
		return true
	}
	if r.purity != other.purity {
		return r.purity > other.purity
	}
	return r.inertia < other.inertia
}

// Train clusters the dataset and labels the centroids.
// With more than one restart the run with the most samples agreeing
// with the label of their cluster is kept.
func (km *KMeans) Train(d *dataset.Dataset) error {
	if d == nil || d.IsEmpty() {
		return ErrEmptyDataset
	}
	km.Reset()

	var best *run
	for r := 0; r < km.cfg.Restarts; r++ {
		current, err := km.fit(d)
		if err != nil {
			return fmt.Errorf("could not fit %s: %w", km, err)
		}
		if current.better(best) {
			best = current
		}
	}

	km.label(d, best)
	km.centroids = best.centroids
	km.sizes = make([]int, len(best.groups))
	for i, g := range best.groups {
		km.sizes[i] = len(g)
	}
	km.samples = d.Size()
	km.iterations = best.iterations
	km.inertia = best.inertia

	metrics.Observer.Trained(kmeansName)
	metrics.Observer.Converged(km.iterations)
	log.Debug().
		Str("classifier", km.String()).
		Int("samples", d.Size()).
		Int("iterations", km.iterations).
		Float64("inertia", km.inertia).
		Msg("trained")
	return nil
}

func (km *KMeans) fit(d *dataset.Dataset) (*run, error) {
	centroids, err := km.seed(d)
	if err != nil {
		return nil, err
	}
	iterations := 0
	for iterations < km.cfg.MaxIter {
		iterations++
		groups, _, err := km.assign(d, centroids)
		if err != nil {
			return nil, err
		}
		next := update(d, centroids, groups)
		converged := true
		for i := range centroids {
			if !centroids[i].Equal(next[i]) {
				converged = false
				break
			}
		}
		centroids = next
		if converged {
			break
		}
	}
	groups, inertia, err := km.assign(d, centroids)
	if err != nil {
		return nil, err
	}
	return &run{
		centroids:  centroids,
		groups:     groups,
		iterations: iterations,
		inertia:    inertia,
		purity:     purity(d, groups),
	}, nil
}

// purity counts the samples of every group that share the group's dominant label.
func purity(d *dataset.Dataset, groups [][]int) int {
	count := 0
	for _, group := range groups {
		l := mode(d, group)
		for _, i := range group {
			if d.At(i).Label == l {
				count++
			}
		}
	}
	return count
}

// assign groups the sample indices by nearest centroid.
// Distance ties go to the first centroid.
func (km *KMeans) assign(d *dataset.Dataset, centroids []model.Centroid) ([][]int, float64, error) {
	groups := make([][]int, len(centroids))
	var inertia float64
	for i := 0; i < d.Size(); i++ {
		c, dist, err := nearest(d.At(i).Vector, centroids, km.cfg.P)
		if err != nil {
			return nil, 0, err
		}
		groups[c] = append(groups[c], i)
		inertia += dist * dist
	}
	return groups, inertia, nil
}

// update moves every centroid to the mean of its group.
// Empty groups keep their centroid where it is.
func update(d *dataset.Dataset, centroids []model.Centroid, groups [][]int) []model.Centroid {
	next := make([]model.Centroid, len(centroids))
	for i, group := range groups {
		if len(group) == 0 {
			next[i] = model.NewCentroid(centroids[i].Vector)
			continue
		}
		mean := make([]float64, d.Dim())
		for _, j := range group {
			floats.Add(mean, d.At(j).Vector)
		}
		for j := range mean {
			mean[j] /= float64(len(group))
		}
		next[i] = model.NewCentroid(mean)
	}
	return next
}

// label gives every centroid the most frequent label of its group
// and hands out the unused labels to the empty ones if the seeding requires it.
func (km *KMeans) label(d *dataset.Dataset, r *run) {
	for i, group := range r.groups {
		r.centroids[i].Label = mode(d, group)
	}
	if !km.cfg.Init.remediates() {
		return
	}
	used := make(map[model.Label]bool)
	for _, c := range r.centroids {
		if c.Assigned() {
			used[c.Label] = true
		}
	}
	unused := make([]model.Label, 0)
	for _, l := range model.Labels() {
		if !used[l] {
			unused = append(unused, l)
		}
	}
	for i, c := range r.centroids {
		if c.Assigned() {
			continue
		}
		if len(unused) == 0 {
			log.Warn().Int("centroid", i).Str("classifier", km.String()).Msg("no label left for empty centroid")
			continue
		}
		j := km.rng.Intn(len(unused))
		r.centroids[i].Label = unused[j]
		unused = append(unused[:j], unused[j+1:]...)
	}
}

// mode returns the most frequent label of the group, ties going to the first encountered.
func mode(d *dataset.Dataset, group []int) model.Label {
	counts := make(map[model.Label]int)
	for _, i := range group {
		counts[d.At(i).Label]++
	}
	label, top := model.NoLabel, 0
	for _, i := range group {
		l := d.At(i).Label
		if counts[l] > top {
			label = l
			top = counts[l]
		}
	}
	return label
}

func (km *KMeans) seed(d *dataset.Dataset) ([]model.Centroid, error) {
	switch km.cfg.Init {
	case RandomInit:
		return km.uniform(d.Dim(), nil, nil), nil
	case EnhancedRandomInit:
		return km.uniform(d.Dim(), d.Mins(), d.Maxs()), nil
	case KMeansPlusPlusInit:
		return km.plusPlus(d)
	}
	return nil, fmt.Errorf("unknown init '%s': %w", km.cfg.Init, ErrInvalidConfig)
}

// uniform draws k centroids with every coordinate in [mins[i], maxs[i]].
// Without bounds the full positive float range is used.
func (km *KMeans) uniform(dim int, mins, maxs []float64) []model.Centroid {
	centroids := make([]model.Centroid, km.cfg.K)
	for c := range centroids {
		v := make([]float64, dim)
		for i := range v {
			lo, hi := math.SmallestNonzeroFloat64, math.MaxFloat64
			if mins != nil && maxs != nil {
				lo, hi = mins[i], maxs[i]
			}
			v[i] = lo + km.rng.Float64()*(hi-lo)
		}
		centroids[c] = model.NewCentroid(v)
	}
	return centroids
}

// plusPlus picks the first centroid uniformly among the training points
// and every next one with probability proportional to the squared distance
// from its nearest already chosen centroid.
func (km *KMeans) plusPlus(d *dataset.Dataset) ([]model.Centroid, error) {
	candidates := make([]int, d.Size())
	for i := range candidates {
		candidates[i] = i
	}
	centroids := make([]model.Centroid, 0, km.cfg.K)
	pick := func(j int) {
		centroids = append(centroids, model.NewCentroid(d.At(candidates[j]).Vector))
		candidates = append(candidates[:j], candidates[j+1:]...)
	}
	pick(km.rng.Intn(len(candidates)))

	for len(centroids) < km.cfg.K {
		if len(candidates) == 0 {
			// more clusters than points
			centroids = append(centroids, model.NewCentroid(d.At(km.rng.Intn(d.Size())).Vector))
			continue
		}
		weights := make([]float64, len(candidates))
		var sum float64
		for j, i := range candidates {
			_, dist, err := nearest(d.At(i).Vector, centroids, km.cfg.P)
			if err != nil {
				return nil, err
			}
			weights[j] = dist * dist
			sum += weights[j]
		}
		pick(choose(km.rng, weights, sum))
	}
	return centroids, nil
}

// choose draws an index with probability proportional to its weight.
func choose(rng *rand.Rand, weights []float64, sum float64) int {
	if sum <= 0 || math.IsInf(sum, 0) || math.IsNaN(sum) {
		return rng.Intn(len(weights))
	}
	r := rng.Float64()
	var cumulative float64
	for i, w := range weights {
		cumulative += w / sum
		if cumulative >= r {
			return i
		}
	}
	return len(weights) - 1
}

// nearest returns the index of and the distance to the closest centroid.
func nearest(v []float64, centroids []model.Centroid, p int) (int, float64, error) {
	index, closest := 0, math.Inf(1)
	for i, c := range centroids {
		d, err := shapemath.Distance(v, c.Vector, p)
		if err != nil {
			return 0, 0, err
		}
		if i == 0 || d < closest {
			index, closest = i, d
		}
	}
	return index, closest, nil
}

// Predict returns the label of the closest centroid.
func (km *KMeans) Predict(s model.Sample) (model.Label, error) {
	if km.centroids == nil {
		return model.NoLabel, ErrNotTrained
	}
	i, _, err := nearest(s.Vector, km.centroids, km.cfg.P)
	if err != nil {
		return model.NoLabel, err
	}
	metrics.Observer.Predicted(kmeansName)
	return km.centroids[i].Label, nil
}

// Centroids returns a copy of the trained centroids.
func (km *KMeans) Centroids() []model.Centroid {
	centroids := make([]model.Centroid, len(km.centroids))
	for i, c := range km.centroids {
		centroids[i] = model.Centroid{Vector: model.Copy(c.Vector), Label: c.Label}
	}
	return centroids
}

// Iterations returns the refinement iterations of the kept run.
func (km *KMeans) Iterations() int {
	return km.iterations
}

// Inertia returns the sum of squared distances of the training samples to their centroid.
func (km *KMeans) Inertia() float64 {
	return km.inertia
}

// Metadata describes the trained clusters.
func (km *KMeans) Metadata() Metadata {
	clusters := make([]Cluster, len(km.centroids))
	for i, c := range km.centroids {
		clusters[i] = Cluster{
			Size:     km.sizes[i],
			Label:    c.Label,
			Centroid: model.Copy(c.Vector),
		}
	}
	return Metadata{
		Samples:    km.samples,
		Clusters:   clusters,
		Iterations: km.iterations,
		Inertia:    km.inertia,
	}
}

// Reset drops the trained centroids.
func (km *KMeans) Reset() {
	km.centroids = nil
	km.sizes = nil
	km.samples = 0
	km.iterations = 0
	km.inertia = 0
}

func (km *KMeans) String() string {
	return fmt.Sprintf("kmeans(k=%d,p=%d,init=%s)", km.cfg.K, km.cfg.P, km.cfg.Init)
}
