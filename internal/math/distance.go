package math

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

const (
	// Manhattan is the order of the manhattan distance.
	Manhattan = 1
	// Euclidean is the order of the euclidean distance.
	Euclidean = 2
)

var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrInvalidOrder      = errors.New("invalid distance order")
)

// Distance calculates the minkowski distance of order p between x and y.
// Missing values, represented as NaN, count as 0.
func Distance(x, y []float64, p int) (float64, error) {
	if p < 1 {
		return 0, fmt.Errorf("order %d: %w", p, ErrInvalidOrder)
	}
	if len(x) != len(y) {
		return 0, fmt.Errorf("%d vs %d: %w", len(x), len(y), ErrDimensionMismatch)
	}
	x = fill(x)
	y = fill(y)
	switch p {
	case Manhattan:
		return floats.Distance(x, y, 1), nil
	case Euclidean:
		return floats.Distance(x, y, 2), nil
	default:
		return floats.Distance(x, y, float64(p)), nil
	}
}

// SquaredDistance returns the square of the minkowski distance of order p.
func SquaredDistance(x, y []float64, p int) (float64, error) {
	d, err := Distance(x, y, p)
	if err != nil {
		return 0, err
	}
	return d * d, nil
}

// fill replaces missing values with 0.
// The given slice is returned untouched if nothing is missing.
func fill(v []float64) []float64 {
	missing := 0
	for _, f := range v {
		if math.IsNaN(f) {
			missing++
		}
	}
	if missing == 0 {
		return v
	}
	log.Warn().
		Int("missing", missing).
		Int("dim", len(v)).
		Msg("missing values in vector will be replaced by 0")
	w := make([]float64, len(v))
	for i, f := range v {
		if !math.IsNaN(f) {
			w[i] = f
		}
	}
	return w
}
