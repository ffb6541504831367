package eval

import (
	"time"

	"github.com/drakos74/free-shape/internal/dataset"
	"github.com/drakos74/free-shape/internal/model"
	"github.com/drakos74/free-shape/internal/storage"
	"github.com/google/uuid"
)

// Report is the stored outcome of an evaluation run.
type Report struct {
	ID              string                  `json:"id"`
	Command         string                  `json:"command"`
	Time            time.Time               `json:"time"`
	Seed            int64                   `json:"seed"`
	Kind            model.Kind              `json:"kind"`
	Samples         int                     `json:"samples"`
	Strata          map[model.Label]int     `json:"strata"`
	CrossValidation []CrossValidationResult `json:"cross_validation,omitempty"`
	Split           []SplitResult           `json:"split,omitempty"`
	Confusion       []*ConfusionMatrix      `json:"confusion,omitempty"`
}

// NewReport creates a new report for a run of the command over the dataset.
func NewReport(command string, seed int64, d *dataset.Dataset) *Report {
	strata := make(map[model.Label]int)
	for l, samples := range d.Strata() {
		strata[l] = len(samples)
	}
	return &Report{
		ID:      uuid.New().String(),
		Command: command,
		Time:    time.Now(),
		Seed:    seed,
		Kind:    d.Kind(),
		Samples: d.Size(),
		Strata:  strata,
	}
}

// Key is the storage key of the report.
func (r *Report) Key() storage.Key {
	return storage.Key{
		ID:      r.ID,
		Kind:    string(r.Kind),
		Command: r.Command,
	}
}
