package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"fuelcast/internal/config"
	"fuelcast/internal/errors"
	"fuelcast/internal/infrastructure"
	"fuelcast/internal/narrative"
	"fuelcast/internal/operations"
	"fuelcast/internal/validation"
	"fuelcast/pkg/contracts"
)

// options holds the parsed command line
type options struct {
	input       string
	sheet       string
	fuel        string
	outlet      string
	periods     int
	all         bool
	filter      string
	concurrency int
	narrative   bool
	list        bool
	configFile  string
	output      string
	metrics     bool
	version     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "fuelcast: %v\n", err)
	}
	infrastructure.CloseLogFile()
	os.Exit(errors.ExitCode(err))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.input, "input", "", "wide-format sales workbook (.xlsx, .xlsm or .csv), or a directory of them")
	fs.StringVar(&opts.sheet, "sheet", "", "sheet to read (defaults to the first sheet)")
	fs.StringVar(&opts.fuel, "fuel", "", "fuel type the workbook holds, e.g. Petrol")
	fs.StringVar(&opts.outlet, "outlet", "", "outlet to forecast (exact match)")
	fs.IntVar(&opts.periods, "periods", 0, "forecast horizon in months (defaults to forecast.periods)")
	fs.BoolVar(&opts.all, "all", false, "forecast every outlet in the workbook")
	fs.StringVar(&opts.filter, "filter", "", `batch filter expression, e.g. 'Points >= 12 && Outlet startsWith "HP"'`)
	fs.IntVar(&opts.concurrency, "concurrency", operations.DefaultConcurrency, "pairs forecast in parallel in batch mode")
	fs.BoolVar(&opts.narrative, "narrative", false, "generate the business report with the language model")
	fs.BoolVar(&opts.list, "list", false, "list the series in the workbook and exit")
	fs.StringVar(&opts.configFile, "config", "", "YAML configuration file")
	fs.StringVar(&opts.output, "output", "", "output directory (defaults to the reports directory)")
	fs.BoolVar(&opts.metrics, "metrics", false, "write run metrics in the Prometheus text format")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if fs.NArg() > 0 {
		return nil, errors.NewValidationError("unexpected arguments: " + strings.Join(fs.Args(), " "))
	}
	if opts.filter != "" && !opts.all {
		return nil, errors.NewValidationError("--filter requires --all")
	}
	if opts.all && opts.list {
		return nil, errors.NewValidationError("--all and --list are mutually exclusive")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return errors.NewConfigError("failed to load configuration", err)
	}

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return errors.NewConfigError("failed to resolve paths", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return errors.NewStorageError("failed to create required directories", err)
	}

	cfg.Logging.FilePath = logFilePath(cfg.Logging.FilePath, paths)
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	fv := validation.NewFileValidator(logger)
	inputs, err := resolveInputs(fv, opts.input)
	if err != nil {
		return err
	}
	if opts.output != "" {
		if err := fv.ValidateOutputDirectory(opts.output); err != nil {
			return err
		}
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return errors.NewConfigError("failed to initialize telemetry", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	wantNarrative := opts.narrative || cfg.Narrative.Enabled
	var generator narrative.Generator
	if wantNarrative && !opts.list {
		if cfg.Narrative.APIKey == "" {
			logger.Warn("Narrative requested but no API key is configured; stopping after export")
		} else {
			gemini, err := narrative.NewGeminiGenerator(ctx, cfg.Narrative, logger)
			if err != nil {
				return err
			}
			defer gemini.Close()
			generator = gemini
		}
	}

	pipeline, err := operations.NewPipeline(operations.Dependencies{
		Config:    cfg,
		Paths:     paths,
		Providers: providers,
		Generator: generator,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	periods := opts.periods
	if periods == 0 {
		periods = cfg.Forecast.Periods
	}
	req := operations.RunRequest{
		Sheet:     opts.sheet,
		FuelType:  opts.fuel,
		Outlet:    opts.outlet,
		Periods:   periods,
		Narrative: wantNarrative,
		OutputDir: opts.output,
	}

	logger.Info("Starting fuelcast",
		slog.String("version", config.AppVersion),
		slog.String("input", opts.input),
		slog.Int("inputs", len(inputs)),
		slog.String("fuel_type", opts.fuel),
		slog.Int("periods", periods),
		slog.Bool("batch", opts.all),
		slog.Bool("narrative", generator != nil))

	outputRoot := opts.output
	if outputRoot == "" {
		outputRoot = paths.ReportsDir
	}

	var runErr error
	for _, input := range inputs {
		if ctx.Err() != nil {
			break
		}

		req.InputPath = input
		req.OutputDir = opts.output
		if len(inputs) > 1 {
			req.OutputDir = filepath.Join(outputRoot, inputStem(input))
			fmt.Fprintf(stdout, "== %s ==\n", filepath.Base(input))
		}
		manifestDir := req.OutputDir
		if manifestDir == "" {
			manifestDir = paths.ReportsDir
		}

		var err error
		switch {
		case opts.list:
			err = listSeries(ctx, pipeline, req, manifestDir, stdout)
		case opts.all:
			err = runBatch(ctx, pipeline, operations.BatchRequest{
				RunRequest:  req,
				Filter:      opts.filter,
				Concurrency: opts.concurrency,
			}, stdout)
		default:
			err = runSingle(ctx, pipeline, req, stdout)
		}

		if err != nil {
			logger.Error("Input failed",
				slog.String("input", input),
				slog.String("error", err.Error()))
			if len(inputs) > 1 {
				fmt.Fprintf(stdout, "Failed: %v\n", err)
			}
			if runErr == nil {
				runErr = err
			}
		}
	}

	if metricsPath := metricsFile(cfg, paths, opts.metrics); metricsPath != "" {
		if werr := providers.WriteMetricsFile(metricsPath); werr != nil {
			logger.Warn("Failed to write metrics file", slog.String("error", werr.Error()))
		} else {
			logger.Info("Metrics written", slog.String("path", metricsPath))
		}
	}

	return runErr
}

// resolveInputs expands a directory into the workbooks it holds. Anything
// else must be a single valid input file.
func resolveInputs(fv *validation.FileValidator, input string) ([]string, error) {
	if info, err := os.Stat(input); err == nil && info.IsDir() {
		inputs, err := fv.FindInputs(input)
		if err != nil {
			return nil, err
		}
		if len(inputs) == 0 {
			return nil, errors.NewValidationError("no " + strings.Join(config.SupportedInputExtensions, ", ") + " inputs in " + input)
		}
		return inputs, nil
	}

	if err := fv.ValidateInputFile(input); err != nil {
		return nil, err
	}
	return []string{input}, nil
}

// inputStem names the output subdirectory of one input in directory mode.
func inputStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// logFilePath places a relative log file inside the logs directory.
func logFilePath(configured string, paths *config.Paths) string {
	if configured == "" || filepath.IsAbs(configured) {
		return configured
	}
	return paths.GetLogPath(configured)
}

func runSingle(ctx context.Context, pipeline *operations.Pipeline, req operations.RunRequest, stdout io.Writer) error {
	result, err := pipeline.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Forecast for %s / %s: %d observed months, %d forecast months (run %s)\n",
		result.Pair.Outlet, result.Pair.FuelType, len(result.Forecast.Input), len(result.Forecast.Future), result.RunID)
	if dropped := result.Drops.UnparseableColumns; len(dropped) > 0 {
		fmt.Fprintf(stdout, "Ignored columns: %s\n", strings.Join(dropped, ", "))
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MONTH\tPREDICTED\tLOWER\tUPPER")
	for _, p := range result.Forecast.Future {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\n", p.DS.Format("2006-01"), p.YHat, p.YHatLower, p.YHatUpper)
	}
	w.Flush()

	printArtifacts(stdout, result.Artifacts)
	fmt.Fprintf(stdout, "Manifest: %s\n", result.ManifestPath)
	return nil
}

func runBatch(ctx context.Context, pipeline *operations.Pipeline, req operations.BatchRequest, stdout io.Writer) error {
	result, err := pipeline.RunBatch(ctx, req)
	if result == nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OUTLET\tFUEL\tSTATUS\tOUTPUT")
	for _, pr := range result.Pairs {
		detail := pr.OutputDir
		if pr.Err != nil {
			detail = pr.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", pr.Pair.Outlet, pr.Pair.FuelType, pr.Status, detail)
	}
	w.Flush()

	fmt.Fprintf(stdout, "Completed %d, failed %d, skipped %d (run %s)\n",
		result.Completed, result.Failed, result.Skipped, result.RunID)
	if result.ManifestPath != "" {
		fmt.Fprintf(stdout, "Manifest: %s\n", result.ManifestPath)
	}
	return err
}

func listSeries(ctx context.Context, pipeline *operations.Pipeline, req operations.RunRequest, manifestDir string, stdout io.Writer) error {
	summaries, err := pipeline.Summarize(ctx, req)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OUTLET\tFUEL\tSHIP TO\tMONTHS\tFIRST\tLAST\tMEAN")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%.2f\n",
			s.Outlet, s.FuelType, s.ShipTo, s.Months,
			s.First.Format("2006-01"), s.Last.Format("2006-01"), s.Mean)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	printLastRun(stdout, filepath.Join(manifestDir, config.ManifestFile))
	return nil
}

// printLastRun summarizes the manifest a previous run left in the output
// directory. A missing or unreadable manifest prints nothing.
func printLastRun(stdout io.Writer, path string) {
	if !config.FileExists(path) {
		return
	}
	m, err := operations.LoadManifest(path)
	if err != nil {
		slog.Warn("Ignoring unreadable manifest", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	target := m.Parameters.FuelType
	if m.Parameters.Outlet != "" {
		target = m.Parameters.Outlet + " / " + target
	}
	fmt.Fprintf(stdout, "Last run: %s %s %s (%s) at %s\n",
		m.ID, m.Mode, m.Status, target, m.StartTime.Format(time.RFC3339))
}

func printArtifacts(stdout io.Writer, artifacts map[string]string) {
	kinds := make([]string, 0, len(artifacts))
	for kind := range artifacts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(stdout, "  %-16s %s\n", kind, artifacts[kind])
	}
}

// metricsFile returns where to dump metrics, or "" when no dump is wanted.
// Relative paths land in the data directory.
func metricsFile(cfg *config.Config, paths *config.Paths, requested bool) string {
	path := cfg.Telemetry.MetricsFile
	if path == "" {
		if !requested {
			return ""
		}
		path = config.MetricsFile
	}
	if filepath.IsAbs(path) {
		return path
	}
	return paths.GetDataPath(path)
}
