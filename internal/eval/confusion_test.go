package eval

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	shapemath "github.com/drakos74/free-shape/internal/math"
	"github.com/drakos74/free-shape/internal/model"
	"github.com/sjwhitworth/golearn/evaluation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfusionMatrix_Diagonal(t *testing.T) {
	labels := []model.Label{1, 3, 3, 9, 2, 1, 5}
	cm, err := NewConfusionMatrix("test", labels, labels)
	require.NoError(t, err)

	assert.Equal(t, 1.0, cm.Accuracy())
	assert.Equal(t, 1.0, cm.MacroPrecision())
	assert.Equal(t, 1.0, cm.MacroRecall())
	assert.Equal(t, 1.0, cm.F1())
	assert.Equal(t, len(labels), cm.Total())
	assert.Equal(t, []model.Label{1, 2, 3, 5, 9}, cm.Labels())
	assert.Equal(t, 2, cm.At(3, 3))
}

func TestConfusionMatrix_Metrics(t *testing.T) {
	actual := []model.Label{1, 1, 2, 2, 3}
	predicted := []model.Label{1, 2, 2, 2, model.NoLabel}
	cm, err := NewConfusionMatrix("test", actual, predicted)
	require.NoError(t, err)

	assert.Equal(t, 5, cm.Total())
	assert.InDelta(t, 0.6, cm.Accuracy(), 1e-12)
	assert.Equal(t, 1, cm.At(3, model.NoLabel))
	assert.Equal(t, []model.Label{1, 2, 3}, cm.Labels())

	assert.Equal(t, 0.5, cm.Recall(1))
	assert.Equal(t, 1.0, cm.Recall(2))
	assert.Equal(t, 0.0, cm.Recall(3))
	assert.Equal(t, 1.0, cm.Precision(1))
	assert.InDelta(t, 2.0/3.0, cm.Precision(2), 1e-12)
	// no predictions for 3
	assert.True(t, math.IsNaN(cm.Precision(3)))
	// out of the matrix
	assert.True(t, math.IsNaN(cm.Recall(7)))

	assert.InDelta(t, 0.5, cm.MacroRecall(), 1e-12)
	assert.InDelta(t, 5.0/6.0, cm.MacroPrecision(), 1e-12)
	assert.InDelta(t, 0.625, cm.F1(), 1e-12)

	p, r := 5.0/6.0, 0.5
	assert.InDelta(t, 5*p*r/(4*p+r), cm.FBeta(2), 1e-12)
}

func TestConfusionMatrix_Degenerate(t *testing.T) {

	type test struct {
		actual    []model.Label
		predicted []model.Label
		accuracy  float64
		f1        float64
	}

	tests := map[string]test{
		"all-wrong": {
			actual:    []model.Label{1, 2},
			predicted: []model.Label{2, 1},
			accuracy:  0,
			f1:        0,
		},
		"empty": {
			actual:    []model.Label{},
			predicted: []model.Label{},
			accuracy:  math.NaN(),
			f1:        math.NaN(),
		},
		"no-predictions": {
			actual:    []model.Label{4, 4},
			predicted: []model.Label{model.NoLabel, model.NoLabel},
			accuracy:  0,
			f1:        math.NaN(),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cm, err := NewConfusionMatrix("test", tt.actual, tt.predicted)
			require.NoError(t, err)
			assertFloat(t, tt.accuracy, cm.Accuracy())
			assertFloat(t, tt.f1, cm.F1())
			// rendering never fails on undefined values
			assert.NotEmpty(t, cm.String())
		})
	}
}

func assertFloat(t *testing.T, expected, actual float64) {
	if math.IsNaN(expected) {
		assert.True(t, math.IsNaN(actual), "expected NaN but got %v", actual)
		return
	}
	assert.InDelta(t, expected, actual, 1e-12)
}

func TestConfusionMatrix_Invalid(t *testing.T) {
	_, err := NewConfusionMatrix("test", []model.Label{1}, []model.Label{1, 2})
	assert.ErrorIs(t, err, shapemath.ErrDimensionMismatch)

	_, err = NewConfusionMatrix("test", []model.Label{-1}, []model.Label{1})
	assert.ErrorIs(t, err, ErrInvalidLabel)
}

func TestConfusionMatrix_Golearn(t *testing.T) {
	actual := []model.Label{1, 1, 1, 2, 2, 3, 3, 3, 3}
	predicted := []model.Label{1, 2, 1, 2, 3, 3, 3, 1, 3}
	cm, err := NewConfusionMatrix("test", actual, predicted)
	require.NoError(t, err)

	c := cm.Golearn()
	assert.InDelta(t, evaluation.GetAccuracy(c), cm.Accuracy(), 1e-12)
	for _, l := range cm.Labels() {
		assert.InDelta(t, evaluation.GetRecall(l.String(), c), cm.Recall(l), 1e-12)
		assert.InDelta(t, evaluation.GetPrecision(l.String(), c), cm.Precision(l), 1e-12)
	}
	summary := cm.Summary()
	assert.Contains(t, strings.ToLower(summary), "accuracy")
}

func TestConfusionMatrix_JSON(t *testing.T) {
	actual := []model.Label{1, 2, 3}
	predicted := []model.Label{1, 2, 1}
	cm, err := NewConfusionMatrix("knn", actual, predicted)
	require.NoError(t, err)

	bb, err := json.Marshal(cm)
	require.NoError(t, err)
	// precision of 3 is undefined but the macro average is not
	assert.NotContains(t, string(bb), "NaN")

	var loaded ConfusionMatrix
	require.NoError(t, json.Unmarshal(bb, &loaded))
	assert.Equal(t, "knn", loaded.Classifier)
	assert.Equal(t, cm.Total(), loaded.Total())
	assert.Equal(t, cm.Accuracy(), loaded.Accuracy())
	assert.Equal(t, cm.At(3, 1), loaded.At(3, 1))

	empty, err := NewConfusionMatrix("empty", nil, nil)
	require.NoError(t, err)
	bb, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(bb), `"accuracy":null`)
}

func TestConfusionMatrix_Render(t *testing.T) {
	cm, err := NewConfusionMatrix("test", []model.Label{1, 2}, []model.Label{1, 1})
	require.NoError(t, err)
	var b bytes.Buffer
	cm.Render(&b)
	out := b.String()
	assert.Contains(t, strings.ToUpper(out), "PRECISION")
	assert.Contains(t, out, "1.00")
}
