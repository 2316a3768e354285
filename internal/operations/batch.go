package operations

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"fuelcast/internal/config"
	"fuelcast/internal/dataprocessing"
	"fuelcast/internal/infrastructure"
	"fuelcast/pkg/contracts/domain"
)

// DefaultConcurrency bounds the pairs forecast at once in batch mode.
const DefaultConcurrency = 4

// Pair outcome statuses.
const (
	PairStatusCompleted = "completed"
	PairStatusFailed    = "failed"
	PairStatusSkipped   = "skipped"
)

// BatchRequest forecasts every selected pair of one input
type BatchRequest struct {
	RunRequest
	// Filter is an expression over SeriesSummary fields; blank selects all.
	Filter string
	// Concurrency bounds the pairs processed at once.
	Concurrency int
}

// PairResult is the outcome of one pair in batch mode
type PairResult struct {
	Pair      domain.Pair
	Summary   dataprocessing.SeriesSummary
	Status    string
	Forecast  *domain.ForecastResult
	Artifacts map[string]string
	OutputDir string
	Err       error
}

// BatchResult is the outcome of a batch run
type BatchResult struct {
	RunID        string
	Drops        dataprocessing.DropReport
	Pairs        []PairResult
	Completed    int
	Failed       int
	Skipped      int
	Manifest     *RunManifest
	ManifestPath string
}

// RunBatch forecasts every (outlet, fuel type) pair selected by the filter.
// Pairs run concurrently up to the configured limit and share the read-only
// dataset. A failed pair does not stop the others; the failures come back as
// an *ErrorList alongside the full result.
func (p *Pipeline) RunBatch(ctx context.Context, req BatchRequest) (result *BatchResult, err error) {
	if err := req.Validate(ModeBatch); err != nil {
		return nil, err
	}

	filter, err := CompilePairFilter(req.Filter)
	if err != nil {
		return nil, err
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	runID := infrastructure.GetTraceID(ctx)
	outDir := p.outputDir(req.RunRequest)
	manifest := p.newManifest(runID, ModeBatch, req.RunRequest, filter.String())
	state := NewRunState(req.RunRequest, domain.Pair{}, outDir, &Dataset{})

	start := time.Now()
	ctx, span := p.tracer.TraceRun(ctx, runID, ModeBatch, req.RunRequest)
	defer func() {
		for kind, path := range state.Artifacts() {
			manifest.AddArtifact(kind, path)
		}
		p.finish(ctx, manifest, filepath.Join(outDir, config.ManifestFile), err)
		p.tracer.EndRun(ctx, span, ModeBatch, time.Since(start), err)
	}()

	if err = p.execute(ctx, p.prepareSteps(), state, manifest); err != nil {
		return nil, err
	}
	p.recordDataset(manifest, state.Dataset)

	selected, err := filter.Select(p.summarizer.Summarize(ctx, state.Dataset.Records))
	if err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "batch started",
		slog.Int("pairs", len(selected)),
		slog.String("filter", filter.String()))

	result = &BatchResult{
		RunID:        runID,
		Drops:        state.Dataset.Drops,
		Pairs:        make([]PairResult, len(selected)),
		Manifest:     manifest,
		ManifestPath: filepath.Join(outDir, config.ManifestFile),
	}

	dirs := p.pairDirs(req.RunRequest, selected)
	progress := NewProgressTracker("batch", len(selected))

	limit := req.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, summary := range selected {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res := p.runPair(gctx, runID, req.RunRequest, summary, dirs[i], state.Dataset)
			result.Pairs[i] = res

			progress.Increment(summary.Outlet + "/" + summary.FuelType)
			done, total, pct, _ := progress.GetProgress()
			infrastructure.WithSeries(p.logger, summary.Outlet, summary.FuelType).InfoContext(gctx, "pair finished",
				slog.String("status", res.Status),
				slog.Int("done", done),
				slog.Int("total", total),
				slog.String("progress", fmt.Sprintf("%.0f%%", pct)),
				slog.String("eta", progress.GetETA()))
			return nil
		})
	}

	if waitErr := g.Wait(); waitErr != nil {
		err = NewCancellationError("batch", waitErr)
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = NewCancellationError("batch", ctxErr)
		return nil, err
	}

	failures := &ErrorList{}
	for _, res := range result.Pairs {
		outcome := PairOutcome{
			Outlet:    res.Pair.Outlet,
			FuelType:  res.Pair.FuelType,
			Status:    res.Status,
			Artifacts: res.Artifacts,
		}

		switch res.Status {
		case PairStatusCompleted:
			result.Completed++
		case PairStatusSkipped:
			result.Skipped++
		case PairStatusFailed:
			result.Failed++
			outcome.Step = StepOf(res.Err)
			outcome.Error = res.Err.Error()
			failures.Add(asOperationError(res.Err))
		}
		manifest.AddPair(outcome)
	}

	if failures.HasErrors() {
		err = failures
		return result, err
	}
	return result, nil
}

// runPair executes the pair steps for one summary and records them in the
// pair's own manifest
func (p *Pipeline) runPair(ctx context.Context, runID string, req RunRequest, summary dataprocessing.SeriesSummary, dir string, dataset *Dataset) PairResult {
	pair := summary.Pair()
	res := PairResult{Pair: pair, Summary: summary, OutputDir: dir}

	if !summary.Forecastable() {
		res.Status = PairStatusSkipped
		return res
	}

	ctx, span := p.tracer.TracePair(ctx, pair)
	defer span.End()

	pairReq := req
	pairReq.Outlet = pair.Outlet
	pairReq.FuelType = pair.FuelType

	manifest := p.newManifest(runID, ModeBatch, pairReq, "")
	p.recordDataset(manifest, dataset)

	state := NewRunState(pairReq, pair, dir, dataset)
	err := p.execute(ctx, p.pairSteps(), state, manifest)

	res.Artifacts = state.Artifacts()
	for kind, path := range res.Artifacts {
		manifest.AddArtifact(kind, path)
	}
	p.finish(ctx, manifest, filepath.Join(dir, config.ManifestFile), err)

	if err != nil {
		res.Status = PairStatusFailed
		res.Err = err
		return res
	}
	res.Status = PairStatusCompleted
	res.Forecast = state.Result
	return res
}

// pairDirs assigns each summary a distinct output directory
func (p *Pipeline) pairDirs(req RunRequest, summaries []dataprocessing.SeriesSummary) []string {
	dirs := make([]string, len(summaries))
	seen := make(map[string]int, len(summaries))

	for i, s := range summaries {
		slug := PairSlug(s.Pair())
		seen[slug]++
		if n := seen[slug]; n > 1 {
			slug = fmt.Sprintf("%s-%d", slug, n)
		}

		if req.OutputDir != "" {
			dirs[i] = filepath.Join(req.OutputDir, slug)
		} else {
			dirs[i] = p.paths.GetPairReportDir(slug)
		}
	}
	return dirs
}

// PairSlug returns a file-system safe directory name for a pair
func PairSlug(pair domain.Pair) string {
	return slugify(pair.Outlet) + "_" + slugify(pair.FuelType)
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "unnamed"
	}
	return out
}

func asOperationError(err error) *OperationError {
	var opErr *OperationError
	if stderrors.As(err, &opErr) {
		return opErr
	}
	return NewExecutionError("", err)
}
