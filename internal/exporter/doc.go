// Package exporter persists the artifacts of a forecasting run.
//
// CSVWriter is the low-level writer with headers, append mode, streaming and
// a UTF-8 BOM for Excel compatibility. Exporter builds on it to write the
// long-format sales table, the forecast CSV and XLSX workbook, the chart
// HTML, the business report text and the run manifest JSON.
//
// Relative paths resolve through a PathResolver: names starting with "data/"
// land in the data directory, everything else in the reports directory.
//
// Example usage:
//
//	paths, _ := config.GetPaths(cfg.Paths)
//	exp := exporter.New(paths, logger)
//	path, err := exp.WriteForecastCSV(ctx, config.ForecastResultsFile, result.Full)
package exporter
