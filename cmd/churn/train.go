package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/churn/internal/config"
	"github.com/JaimeStill/churn/internal/pipeline"
)

type trainFlags struct {
	cutoffDate  string
	rebalance   string
	model       string
	classWeight string
	cv          int
	gridSearch  bool
	testSize    float64
	seed        uint64
	workers     int
	plotsDir    string
	noProgress  bool
}

func trainCmd() *cobra.Command {
	var f trainFlags

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a churn model and write the artifact bundle",
		Long: `Train a churn model from the configured order source.

Flags override churn.toml and CHURN_PIPELINE_* values. The model, scaler,
feature columns, and analysis report are written to the artifact directory
only when every step succeeds.

Examples:
  churn train --model xgboost --rebalance undersample
  churn train --cv 5 --grid_search --model logistic_regression`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			override := func(cfg *config.Config) error {
				return f.apply(cmd, cfg)
			}
			return run(cmd.Context(), override, func(ctx context.Context, app *App) error {
				return runTrain(ctx, app, f.noProgress)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.cutoffDate, "cutoff_date", "2018-04-17", "churn cutoff date (YYYY-MM-DD)")
	flags.StringVar(&f.rebalance, "rebalance", "smote", "rebalancing method (smote, undersample, none)")
	flags.StringVar(&f.model, "model", "random_forest", "model family (random_forest, xgboost, logistic_regression)")
	flags.StringVar(&f.classWeight, "class_weight", "balanced", "class weighting (balanced, none)")
	flags.IntVar(&f.cv, "cv", 5, "cross-validation folds (0 disables)")
	flags.BoolVar(&f.gridSearch, "grid_search", false, "search hyperparameters (requires cv > 0)")
	flags.Float64Var(&f.testSize, "test_size", 0.3, "test split proportion (0-1)")
	flags.Uint64Var(&f.seed, "seed", 42, "random seed for every randomized step")
	flags.IntVar(&f.workers, "workers", 0, "parallel cross-validation fits (default: CPU count)")
	flags.StringVar(&f.plotsDir, "plots_dir", "", "directory for evaluation charts")
	flags.BoolVar(&f.noProgress, "no-progress", false, "disable the cross-validation progress bar")

	return cmd
}

// apply copies explicitly set flags over the loaded configuration.
func (f *trainFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	p := &cfg.Pipeline

	if changed("cutoff_date") {
		p.CutoffDate = f.cutoffDate
	}
	if changed("rebalance") {
		p.Rebalance = f.rebalance
	}
	if changed("model") {
		p.Model = f.model
	}
	if changed("class_weight") {
		p.ClassWeight = f.classWeight
	}
	if changed("cv") {
		cv := f.cv
		p.CV = &cv
	}
	if changed("grid_search") {
		p.GridSearch = f.gridSearch
	}
	if changed("test_size") {
		p.TestSize = f.testSize
	}
	if changed("seed") {
		p.Seed = f.seed
	}
	if changed("workers") {
		p.Workers = f.workers
		if p.Workers == 0 {
			p.Workers = runtime.NumCPU()
		}
	}
	if changed("plots_dir") {
		cfg.Artifacts.PlotsDir = f.plotsDir
	}

	return p.Validate()
}

func runTrain(ctx context.Context, app *App, noProgress bool) error {
	source, err := app.Source()
	if err != nil {
		return err
	}

	opts := pipeline.OptionsFrom(app.cfg)
	if !noProgress && opts.CV > 0 {
		opts.Progress = progress()
	}

	p := pipeline.New(source, app.WriteStore(), app.Registry(), app.infra.Logger)
	res, err := p.Run(ctx, opts)
	if err != nil {
		return err
	}

	out := os.Stdout
	if cv := res.Training.CV; cv != nil {
		fmt.Fprintln(out, "Resultados da validação cruzada:")
		for _, line := range cv.Lines() {
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out)
	}
	if res.Training.Candidates != nil {
		fmt.Fprintln(out, "Melhores hiperparâmetros:")
		fmt.Fprintln(out, res.Training.Params.Describe(opts.Family))
		fmt.Fprintln(out)
	}

	fmt.Fprint(out, res.Report)
	fmt.Fprintf(out, "\nModelo salvo em %s (run %s)\n", app.cfg.Artifacts.Dir, res.RunID)
	for _, path := range res.Plots {
		fmt.Fprintf(out, "Gráfico: %s\n", path)
	}
	return nil
}

// progress renders cross-validation fits on stderr. The bar is created on
// the first report, when the total is known.
func progress() func(done, total int) {
	var (
		once sync.Once
		bar  *progressbar.ProgressBar
	)
	return func(_, total int) {
		once.Do(func() {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("cross-validation"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		})
		_ = bar.Add(1)
	}
}
