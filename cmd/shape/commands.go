package main

import (
	"fmt"
	"os"
	"time"

	"github.com/drakos74/free-shape/internal/config"
	"github.com/drakos74/free-shape/internal/eval"
	"github.com/drakos74/free-shape/internal/model"
	"github.com/drakos74/free-shape/internal/representation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type flags struct {
	config   string
	seed     int64
	logLevel string
	fraction float64
	folds    int
	shuffle  bool
	verbose  bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	a := &app{}

	root := &cobra.Command{
		Use:           "shape",
		Short:         "Classify shape feature vectors and evaluate the classifiers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, f)
		},
	}
	root.PersistentFlags().StringVar(&f.config, "config", "", "config file (yaml or json)")
	root.PersistentFlags().Int64Var(&f.seed, "seed", 0, "seed of the random source, overrides the config")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level, overrides the config")

	split := &cobra.Command{
		Use:   "split [data-dir]",
		Short: "Train on a stratified split and report train and test accuracy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.split(dir(args))
		},
	}
	split.Flags().Float64Var(&f.fraction, "fraction", 0, "train fraction, overrides the config")

	crossval := &cobra.Command{
		Use:   "crossval [data-dir]",
		Short: "Cross validate the classifiers over k folds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.crossValidate(dir(args))
		},
	}
	crossval.Flags().IntVar(&f.folds, "folds", 0, "number of folds, overrides the config")
	crossval.Flags().BoolVar(&f.shuffle, "shuffle", false, "shuffle before splitting into folds")
	crossval.Flags().BoolVar(&f.verbose, "verbose", false, "log every fold")

	confusion := &cobra.Command{
		Use:   "confusion [data-dir]",
		Short: "Print the confusion matrix of every classifier on a stratified split",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.confusion(dir(args))
		},
	}
	confusion.Flags().Float64Var(&f.fraction, "fraction", 0, "train fraction, overrides the config")

	predict := &cobra.Command{
		Use:   "predict <data-dir> <file>...",
		Short: "Train on the data directory and predict the label of the given files",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.predict(args[0], args[1:])
		},
	}

	root.AddCommand(split, crossval, confusion, predict)
	return root
}

func dir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// setup loads the config, applies the flags and prepares the logger and the random source.
func (a *app) setup(cmd *cobra.Command, f *flags) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = f.seed
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if cmd.Flags().Changed("fraction") {
		cfg.Evaluation.TrainFraction = f.fraction
	}
	if cmd.Flags().Changed("folds") {
		cfg.Evaluation.Folds = f.folds
	}
	if cmd.Flags().Changed("shuffle") {
		cfg.Evaluation.Shuffle = f.shuffle
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Evaluation.Verbose = f.verbose
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	zerolog.SetGlobalLevel(cfg.Level())

	a.prepare(cfg, cmd.Name(), cmd.OutOrStdout(), representation.NewFileLoader())
	return nil
}

func (a *app) split(dir string) error {
	d, report, err := a.load(dir)
	if err != nil {
		return err
	}
	classifiers, err := a.cfg.Build(a.rng)
	if err != nil {
		return err
	}
	results, err := a.evaluator.SplitAccuracy(classifiers, d, a.cfg.Evaluation.TrainFraction)
	if err != nil {
		return err
	}
	report.Split = results
	eval.RenderSplit(a.out, results)
	return a.store(report)
}

func (a *app) crossValidate(dir string) error {
	d, report, err := a.load(dir)
	if err != nil {
		return err
	}
	classifiers, err := a.cfg.Build(a.rng)
	if err != nil {
		return err
	}
	results, err := a.evaluator.CrossValidate(classifiers, d, a.cfg.Evaluation.Folds, eval.Options{
		Shuffle: a.cfg.Evaluation.Shuffle,
		Verbose: a.cfg.Evaluation.Verbose,
	})
	if err != nil {
		return err
	}
	report.CrossValidation = results
	eval.RenderCrossValidation(a.out, results)
	return a.store(report)
}

func (a *app) confusion(dir string) error {
	d, report, err := a.load(dir)
	if err != nil {
		return err
	}
	classifiers, err := a.cfg.Build(a.rng)
	if err != nil {
		return err
	}
	train, test, err := a.evaluator.StratifiedSplit(d, a.cfg.Evaluation.TrainFraction)
	if err != nil {
		return err
	}
	matrices, err := a.evaluator.ConfusionMatrices(classifiers, train, test)
	if err != nil {
		return err
	}
	report.Confusion = matrices
	for _, cm := range matrices {
		fmt.Fprintln(a.out, cm.String())
	}
	return a.store(report)
}

func (a *app) predict(dir string, files []string) error {
	d, _, err := a.load(dir)
	if err != nil {
		return err
	}
	classifiers, err := a.cfg.Build(a.rng)
	if err != nil {
		return err
	}
	for _, c := range classifiers {
		if err := c.Train(d); err != nil {
			return fmt.Errorf("could not train %s: %w", c, err)
		}
	}
	rows := make([][]string, 0, len(files))
	for _, file := range files {
		s, err := a.loader.Load(file)
		if err != nil {
			log.Warn().Err(err).Str("path", file).Msg("skipping file")
			continue
		}
		row := []string{file, s.Label.String()}
		for _, c := range classifiers {
			l := model.NoLabel
			if p, err := c.Predict(s); err != nil {
				log.Warn().Err(err).Str("path", file).Str("classifier", c.String()).Msg("could not predict")
			} else {
				l = p
			}
			row = append(row, l.String())
		}
		rows = append(rows, row)
	}
	header := []string{"file", "label"}
	for _, c := range classifiers {
		header = append(header, c.String())
	}
	render(a.out, header, rows)
	return nil
}
