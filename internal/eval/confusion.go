package eval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	shapemath "github.com/drakos74/free-shape/internal/math"
	"github.com/drakos74/free-shape/internal/model"
	"github.com/olekukonko/tablewriter"
	"github.com/sjwhitworth/golearn/evaluation"
	"gonum.org/v1/gonum/mat"
)

// ConfusionMatrix counts the predictions of a classifier,
// rows are the true labels and columns the predicted ones.
// Label metrics with a zero denominator are NaN
// and the macro averages skip them.
type ConfusionMatrix struct {
	Classifier string
	counts     *mat.Dense
	size       int
}

// NewConfusionMatrix builds the matrix from the aligned true and predicted labels.
func NewConfusionMatrix(classifier string, actual, predicted []model.Label) (*ConfusionMatrix, error) {
	if len(actual) != len(predicted) {
		return nil, fmt.Errorf("%d true labels vs %d predictions: %w", len(actual), len(predicted), shapemath.ErrDimensionMismatch)
	}
	size := int(model.MinLabel) + 1
	for i := range actual {
		if int(actual[i]) >= size {
			size = int(actual[i]) + 1
		}
		if int(predicted[i]) >= size {
			size = int(predicted[i]) + 1
		}
	}
	cm := &ConfusionMatrix{
		Classifier: classifier,
		counts:     mat.NewDense(size, size, nil),
		size:       size,
	}
	for i := range actual {
		a, p := int(actual[i]), int(predicted[i])
		if a < 0 || p < 0 {
			return nil, fmt.Errorf("negative label %d/%d: %w", a, p, ErrInvalidLabel)
		}
		cm.counts.Set(a, p, cm.counts.At(a, p)+1)
	}
	return cm, nil
}

// At returns the count of samples with the actual label predicted as the given one.
func (cm *ConfusionMatrix) At(actual, predicted model.Label) int {
	a, p := int(actual), int(predicted)
	if a < 0 || p < 0 || a >= cm.size || p >= cm.size {
		return 0
	}
	return int(cm.counts.At(a, p))
}

// Total returns the number of predictions.
func (cm *ConfusionMatrix) Total() int {
	return int(mat.Sum(cm.counts))
}

// Labels returns the labels that appear either as true or as predicted.
func (cm *ConfusionMatrix) Labels() []model.Label {
	labels := make([]model.Label, 0)
	for i := int(model.MinLabel); i < cm.size; i++ {
		if mat.Sum(cm.counts.RowView(i)) > 0 || mat.Sum(cm.counts.ColView(i)) > 0 {
			labels = append(labels, model.Label(i))
		}
	}
	return labels
}

// Accuracy is the fraction of correct predictions.
func (cm *ConfusionMatrix) Accuracy() float64 {
	total := mat.Sum(cm.counts)
	if total == 0 {
		return math.NaN()
	}
	return mat.Trace(cm.counts) / total
}

// Recall is the fraction of the samples of the label that were predicted correctly.
func (cm *ConfusionMatrix) Recall(l model.Label) float64 {
	if int(l) < 0 || int(l) >= cm.size {
		return math.NaN()
	}
	return ratio(cm.counts.At(int(l), int(l)), mat.Sum(cm.counts.RowView(int(l))))
}

// Precision is the fraction of the predictions of the label that were correct.
func (cm *ConfusionMatrix) Precision(l model.Label) float64 {
	if int(l) < 0 || int(l) >= cm.size {
		return math.NaN()
	}
	return ratio(cm.counts.At(int(l), int(l)), mat.Sum(cm.counts.ColView(int(l))))
}

// MacroRecall is the unweighted mean recall over the defined labels.
func (cm *ConfusionMatrix) MacroRecall() float64 {
	return cm.macro(cm.Recall)
}

// MacroPrecision is the unweighted mean precision over the defined labels.
func (cm *ConfusionMatrix) MacroPrecision() float64 {
	return cm.macro(cm.Precision)
}

func (cm *ConfusionMatrix) macro(metric func(l model.Label) float64) float64 {
	var sum float64
	var n int
	for _, l := range cm.Labels() {
		v := metric(l)
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// FBeta combines the macro precision and recall, weighting recall beta times as much as precision.
func (cm *ConfusionMatrix) FBeta(beta float64) float64 {
	p, r := cm.MacroPrecision(), cm.MacroRecall()
	if math.IsNaN(p) || math.IsNaN(r) {
		return math.NaN()
	}
	if p == 0 && r == 0 {
		return 0
	}
	b2 := beta * beta
	return (1 + b2) * p * r / (b2*p + r)
}

// F1 is the harmonic mean of the macro precision and recall.
func (cm *ConfusionMatrix) F1() float64 {
	return cm.FBeta(1)
}

// Golearn converts the matrix to the golearn representation, keyed by the label names.
// Predictions without a label are left out.
func (cm *ConfusionMatrix) Golearn() evaluation.ConfusionMatrix {
	c := make(evaluation.ConfusionMatrix)
	labels := cm.Labels()
	for _, a := range labels {
		row := make(map[string]int)
		for _, p := range labels {
			row[p.String()] = cm.At(a, p)
		}
		c[a.String()] = row
	}
	return c
}

// Summary renders the per label summary of golearn.
func (cm *ConfusionMatrix) Summary() string {
	return evaluation.GetSummary(cm.Golearn())
}

// Render writes the matrix as a table.
func (cm *ConfusionMatrix) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	header := []string{"actual \\ predicted"}
	for p := 0; p < cm.size; p++ {
		header = append(header, model.Label(p).String())
	}
	header = append(header, "recall")
	table.SetHeader(header)
	for a := 1; a < cm.size; a++ {
		row := []string{model.Label(a).String()}
		for p := 0; p < cm.size; p++ {
			row = append(row, strconv.Itoa(cm.At(model.Label(a), model.Label(p))))
		}
		row = append(row, shapemath.Format(cm.Recall(model.Label(a))))
		table.Append(row)
	}
	precision := []string{"precision", "-"}
	for p := 1; p < cm.size; p++ {
		precision = append(precision, shapemath.Format(cm.Precision(model.Label(p))))
	}
	table.SetFooter(append(precision, shapemath.Format(cm.Accuracy())))
	table.Render()
}

func (cm *ConfusionMatrix) String() string {
	var b bytes.Buffer
	b.WriteString(fmt.Sprintf("%s accuracy=%s precision=%s recall=%s f1=%s\n",
		cm.Classifier,
		shapemath.Format(cm.Accuracy()),
		shapemath.Format(cm.MacroPrecision()),
		shapemath.Format(cm.MacroRecall()),
		shapemath.Format(cm.F1())))
	cm.Render(&b)
	return b.String()
}

// matrixJSON is the stored form of the matrix, undefined metrics are null.
type matrixJSON struct {
	Classifier string        `json:"classifier"`
	Counts     [][]int       `json:"counts"`
	Accuracy   *float64      `json:"accuracy"`
	Precision  *float64      `json:"precision"`
	Recall     *float64      `json:"recall"`
	F1         *float64      `json:"f1"`
	Labels     []model.Label `json:"labels"`
}

// MarshalJSON encodes the counts together with the derived metrics.
func (cm *ConfusionMatrix) MarshalJSON() ([]byte, error) {
	counts := make([][]int, cm.size)
	for a := range counts {
		counts[a] = make([]int, cm.size)
		for p := range counts[a] {
			counts[a][p] = int(cm.counts.At(a, p))
		}
	}
	return json.Marshal(matrixJSON{
		Classifier: cm.Classifier,
		Counts:     counts,
		Accuracy:   number(cm.Accuracy()),
		Precision:  number(cm.MacroPrecision()),
		Recall:     number(cm.MacroRecall()),
		F1:         number(cm.F1()),
		Labels:     cm.Labels(),
	})
}

// UnmarshalJSON restores the counts, the metrics are derived again.
func (cm *ConfusionMatrix) UnmarshalJSON(data []byte) error {
	var m matrixJSON
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	size := len(m.Counts)
	if size == 0 {
		return fmt.Errorf("empty confusion matrix: %w", ErrInvalidLabel)
	}
	counts := mat.NewDense(size, size, nil)
	for a, row := range m.Counts {
		if len(row) != size {
			return fmt.Errorf("row %d has %d columns instead of %d: %w", a, len(row), size, shapemath.ErrDimensionMismatch)
		}
		for p, c := range row {
			counts.Set(a, p, float64(c))
		}
	}
	cm.Classifier = m.Classifier
	cm.counts = counts
	cm.size = size
	return nil
}

func ratio(x, y float64) float64 {
	if y == 0 {
		return math.NaN()
	}
	return x / y
}

func number(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
