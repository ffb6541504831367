package main

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/drakos74/free-shape/internal/config"
	"github.com/drakos74/free-shape/internal/dataset"
	"github.com/drakos74/free-shape/internal/eval"
	"github.com/drakos74/free-shape/internal/metrics"
	"github.com/drakos74/free-shape/internal/representation"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
)

// app carries the state shared by the commands.
type app struct {
	cfg       config.Config
	command   string
	seed      int64
	rng       *rand.Rand
	evaluator *eval.Evaluator
	loader    representation.Loader
	out       io.Writer
}

func (a *app) prepare(cfg config.Config, command string, out io.Writer, loader representation.Loader) {
	a.cfg = cfg
	a.command = command
	a.out = out
	a.loader = loader
	a.seed = cfg.Seed
	if a.seed == 0 {
		a.seed = time.Now().UnixNano()
	}
	a.rng = rand.New(rand.NewSource(a.seed))
	a.evaluator = eval.New(a.rng)

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				log.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("metrics server stopped")
			}
		}()
	}
	log.Debug().Int64("seed", a.seed).Str("command", command).Msg("starting")
}

// load reads the dataset from the directory, falling back to the configured one.
func (a *app) load(dir string) (*dataset.Dataset, *eval.Report, error) {
	if dir == "" {
		dir = a.cfg.Data.Dir
	}
	if dir == "" {
		return nil, nil, fmt.Errorf("no data directory given")
	}
	d, summary, err := dataset.Load(dir, a.loader)
	if err != nil {
		return nil, nil, err
	}
	if d.IsEmpty() {
		return nil, nil, fmt.Errorf("no samples loaded from '%s' out of %d files", dir, summary.Files)
	}
	return d, eval.NewReport(a.command, a.seed, d), nil
}

// store saves the report in the configured storage.
func (a *app) store(report *eval.Report) error {
	p, err := a.cfg.Storage.Shard()(a.command)
	if err != nil {
		return fmt.Errorf("could not open storage: %w", err)
	}
	if err := p.Store(report.Key(), report); err != nil {
		return fmt.Errorf("could not store report: %w", err)
	}
	log.Info().Str("id", report.ID).Str("storage", a.cfg.Storage.Type).Msg("stored report")
	return nil
}

func render(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.AppendBulk(rows)
	table.Render()
}
