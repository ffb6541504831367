package eval

import (
	"io"
	"strconv"

	shapemath "github.com/drakos74/free-shape/internal/math"
	"github.com/olekukonko/tablewriter"
)

// Score is the accuracy of a classifier across the folds.
type Score struct {
	Mean  float64 `json:"mean"`
	StDev float64 `json:"stdev"`
	// Runs are the accuracies of the individual folds in order.
	Runs []float64 `json:"runs"`
}

// CrossValidationResult is the outcome of the cross validation of one classifier.
type CrossValidationResult struct {
	Classifier string `json:"classifier"`
	Folds      int    `json:"folds"`
	Train      Score  `json:"train"`
	Test       Score  `json:"test"`
}

// SplitResult holds the accuracies of a classifier trained on one set and tested on another.
type SplitResult struct {
	Classifier string  `json:"classifier"`
	Train      float64 `json:"train"`
	Test       float64 `json:"test"`
}

// RenderCrossValidation writes the cross validation results as a table.
func RenderCrossValidation(w io.Writer, results []CrossValidationResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"classifier", "folds", "train", "train stdev", "test", "test stdev"})
	for _, r := range results {
		table.Append([]string{
			r.Classifier,
			strconv.Itoa(r.Folds),
			shapemath.Percent(r.Train.Mean),
			shapemath.Percent(r.Train.StDev),
			shapemath.Percent(r.Test.Mean),
			shapemath.Percent(r.Test.StDev),
		})
	}
	table.Render()
}

// RenderSplit writes the split accuracies as a table.
func RenderSplit(w io.Writer, results []SplitResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"classifier", "train", "test"})
	for _, r := range results {
		table.Append([]string{
			r.Classifier,
			shapemath.Percent(r.Train),
			shapemath.Percent(r.Test),
		})
	}
	table.Render()
}
