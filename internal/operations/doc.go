// Package operations sequences a forecasting run.
//
// A run is a strict chain of steps, each wrapped in an OpenTelemetry span and
// recorded in a JSON manifest:
//
//	load -> reshape -> export_data -> extract -> forecast -> chart -> export -> narrative
//
// The first three steps prepare the dataset once; the rest run per
// (outlet, fuel type) pair. Run handles the single pair named in the request.
// RunBatch selects pairs with an optional expr-lang filter over
// dataprocessing.SeriesSummary and forecasts them concurrently under an
// errgroup, each pair writing into its own directory.
//
// Failures are returned as *OperationError carrying the step that produced
// them; the underlying internal/errors type is preserved for errors.Is.
package operations
