package dataset

import (
	"errors"
	"fmt"

	"github.com/drakos74/free-shape/internal/metrics"
	"github.com/drakos74/free-shape/internal/representation"
	"github.com/rs/zerolog/log"
)

// Summary describes the outcome of a directory load.
type Summary struct {
	Files   int `json:"files"`
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}

// Load creates a new dataset from the representation files in the given directory.
func Load(dir string, loader representation.Loader) (*Dataset, Summary, error) {
	d := New()
	summary, err := d.LoadFromDirectory(dir, loader)
	if err != nil {
		return nil, summary, err
	}
	return d, summary, nil
}

// LoadFromDirectory resets the dataset and loads every regular file directly under dir.
// Files that cannot be loaded or added are skipped.
func (d *Dataset) LoadFromDirectory(dir string, loader representation.Loader) (Summary, error) {
	d.Reset()

	files, err := representation.Files(dir)
	if err != nil {
		return Summary{}, fmt.Errorf("could not load dataset: %w", err)
	}

	summary := Summary{Files: len(files)}
	for _, f := range files {
		sample, err := loader.Load(f)
		if err != nil {
			log.Warn().Err(err).Str("path", f).Msg("skipping bad representation file")
			metrics.Observer.Skipped(reason(err))
			summary.Skipped++
			continue
		}
		if err := d.Add(sample, sample.Label); err != nil {
			metrics.Observer.Skipped(reason(err))
			summary.Skipped++
			continue
		}
		summary.Loaded++
	}

	log.Info().
		Str("dir", dir).
		Str("kind", string(d.kind)).
		Int("files", summary.Files).
		Int("loaded", summary.Loaded).
		Int("skipped", summary.Skipped).
		Msg("loaded dataset")

	return summary, nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, representation.ErrUnreadableFile):
		return "unreadable"
	case errors.Is(err, representation.ErrUnrecognizedRepresentation):
		return "unrecognized"
	case errors.Is(err, ErrInvalidLabel):
		return "label"
	case errors.Is(err, ErrKindMismatch):
		return "kind"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	default:
		return "other"
	}
}
