package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/soltixdb/txcast/internal/analytics"
	"github.com/soltixdb/txcast/internal/analytics/aggregate"
	"github.com/soltixdb/txcast/internal/analytics/backtest"
	"github.com/soltixdb/txcast/internal/analytics/forecast"
	"github.com/soltixdb/txcast/internal/analytics/period"
	"github.com/soltixdb/txcast/internal/config"
	"github.com/soltixdb/txcast/internal/dataset"
	"github.com/soltixdb/txcast/internal/export"
	"github.com/soltixdb/txcast/internal/logging"
	"github.com/soltixdb/txcast/internal/utils"
)

// Options holds the command line options
type Options struct {
	ConfigPath  string
	File        string
	State       string
	Type        string
	Metric      string
	Granularity string
	Model       string
	Horizon     int
	Output      string
	Format      string
}

func main() {
	opts := Options{}
	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (forecast defaults)")
	flag.StringVar(&opts.File, "file", "", "Aggregated transactions file (.csv or .xlsx); defaults to dataset.path")
	flag.StringVar(&opts.State, "state", "", "Restrict to one state")
	flag.StringVar(&opts.Type, "type", "", "Restrict to one transaction type")
	flag.StringVar(&opts.Metric, "metric", "count", "Metric to forecast (count, amount)")
	flag.StringVar(&opts.Granularity, "granularity", "", "Period length (M, Q, Y)")
	flag.StringVar(&opts.Model, "model", "", "Model used for the forward forecast")
	flag.IntVar(&opts.Horizon, "horizon", 0, "Periods to forecast")
	flag.StringVar(&opts.Output, "out", "", "Write the forecast and history to this file")
	flag.StringVar(&opts.Format, "format", "", "Output format (csv, json, xlsx); defaults to the -out extension")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts Options) error {
	cfg := config.LoadOrDefault(opts.ConfigPath)
	logger := logging.NewDevelopment()

	applyDefaults(&opts, cfg)
	if opts.File == "" {
		return fmt.Errorf("no dataset file given (-file or dataset.path)")
	}

	strategy, err := forecast.ParseStrategy(opts.Model)
	if err != nil {
		return err
	}
	gran, err := period.ParseGranularity(opts.Granularity)
	if err != nil {
		return err
	}
	metric, err := dataset.ParseMetric(opts.Metric)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), utils.DatasetLoadTimeout)
	defer cancel()

	snap, err := dataset.NewStore(opts.File, "", logger).Load(ctx)
	if err != nil {
		return err
	}

	obs := snap.Observations(dataset.Filter{State: opts.State, Type: opts.Type}, metric)
	series, report, err := aggregate.Aggregate(obs, gran, aggregate.Options{SkipInvalid: cfg.Dataset.SkipInvalidMarkers})
	if err != nil {
		return err
	}

	fitCfg := forecast.Config{
		FallbackToNaive: cfg.Forecast.FallbackToNaive,
		MaxIterations:   cfg.Forecast.MaxIterations,
	}

	cmp, err := backtest.Compare(series, fitCfg)
	if err != nil {
		return err
	}

	fmt.Printf("=== txcast Backtest ===\n")
	fmt.Printf("Dataset:\n")
	fmt.Printf("  File: %s\n", opts.File)
	fmt.Printf("  Version: %s\n", snap.Version)
	fmt.Printf("  Records: %d (skipped %d)\n", report.Records, report.Skipped)
	fmt.Printf("  Periods: %d %s (%d filled)\n", report.Periods, gran, report.Filled)
	if opts.State != "" {
		fmt.Printf("  State: %s\n", opts.State)
	}
	if opts.Type != "" {
		fmt.Printf("  Type: %s\n", opts.Type)
	}
	fmt.Printf("  Metric: %s\n", metric)
	fmt.Printf("\n")

	printComparison(cmp, cfg.Forecast.MetricDecimals)

	fc, err := forecast.Assemble(series, opts.Horizon, strategy, fitCfg)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Forecast (%s, %d periods) ===\n\n", fc.ModelInfo.Algorithm, fc.Len())
	if fc.ModelInfo.Fallback {
		fmt.Printf("Note: fell back to naive (%s)\n\n", fc.ModelInfo.FallbackReason)
	}
	for _, p := range fc.Points {
		fmt.Printf("  %s  %.2f\n", p.Time.Format(export.DateLayout), p.Value)
	}

	if opts.Output != "" {
		if err := writeOutput(opts, fc, series); err != nil {
			return err
		}
		fmt.Printf("\nWrote %s\n", opts.Output)
	}
	return nil
}

func applyDefaults(opts *Options, cfg *config.Config) {
	if opts.File == "" {
		opts.File = cfg.Dataset.Path
	}
	if opts.Granularity == "" {
		opts.Granularity = cfg.Forecast.DefaultGranularity
	}
	if opts.Model == "" {
		opts.Model = cfg.Forecast.DefaultModel
	}
	if opts.Horizon == 0 {
		opts.Horizon = cfg.Forecast.DefaultHorizon
	}
}

func printComparison(cmp *backtest.Comparison, decimals int) {
	evals := append([]*backtest.Evaluation(nil), cmp.Evaluations...)
	sort.SliceStable(evals, func(i, j int) bool {
		return evals[i].Metrics.MAE < evals[j].Metrics.MAE
	})

	if len(evals) > 0 {
		fmt.Printf("Holdout: %d periods after %d training periods\n\n", len(evals[0].Holdout), evals[0].Train)
	}
	fmt.Printf("%-16s %12s %12s %10s\n", "Model", "MAE", "RMSE", "MAPE %")
	fmt.Printf("%-16s %12s %12s %10s\n", "-----", "---", "----", "------")
	for _, e := range evals {
		m := e.Metrics.Round(decimals)
		name := string(e.Strategy)
		if e.ModelInfo.Fallback {
			name += "*"
		}
		fmt.Printf("%-16s %12.*f %12.*f %10.*f\n", name, decimals, m.MAE, decimals, m.RMSE, decimals, m.MAPE)
	}

	names := make([]string, 0, len(cmp.Errors))
	for name := range cmp.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-16s failed: %s\n", name, cmp.Errors[name])
	}
}

func writeOutput(opts Options, fc *forecast.Forecast, series analytics.Series) error {
	format := opts.Format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(opts.Output), ".")
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	out, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.Output, err)
	}
	if err := export.Write(out, f, export.ForecastTable(fc), export.HistoryTable(series)); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
