package exporter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"fuelcast/internal/errors"
	"fuelcast/pkg/contracts/domain"
)

// Column headers of the exported tables.
var (
	SalesHeaders    = []string{"ShipTo", "Outlet", "Month", "Sales", "Fuel_Type"}
	ForecastHeaders = []string{"ds", "yhat", "yhat_lower", "yhat_upper"}
)

// Renderable is anything that can write itself as a document, such as a
// rendered chart.
type Renderable interface {
	Render(w io.Writer) error
}

// Exporter persists pipeline artifacts. Relative paths resolve through the
// configured PathResolver.
type Exporter struct {
	csv    *CSVWriter
	paths  PathResolver
	logger *slog.Logger
}

// New creates an exporter. A nil logger falls back to slog.Default().
func New(paths PathResolver, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		csv:    NewCSVWriter(paths, logger),
		paths:  paths,
		logger: logger,
	}
}

// Resolve returns the absolute location for a relative artifact name.
func (e *Exporter) Resolve(filePath string) string {
	return resolve(e.paths, filePath)
}

// cancelCheckInterval is how many rows are streamed between context checks.
const cancelCheckInterval = 1000

// WriteSalesRecords streams the long-format sales table. A partially written
// file is removed on failure.
func (e *Exporter) WriteSalesRecords(ctx context.Context, filePath string, records []domain.SalesRecord) (string, error) {
	stream, err := e.csv.CreateStreamWriter(filePath, SalesHeaders)
	if err != nil {
		return "", err
	}

	abort := func(err error) (string, error) {
		stream.Close()
		os.Remove(stream.Path())
		return "", err
	}

	for i, rec := range records {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return abort(errors.NewStorageError("export of "+stream.Path()+" interrupted", err))
			}
		}
		if err := stream.WriteRecord([]string{
			rec.ShipTo,
			rec.Outlet,
			formatDate(rec.Month),
			formatFloat(rec.Sales),
			rec.FuelType,
		}); err != nil {
			return abort(err)
		}
	}

	if err := stream.Close(); err != nil {
		os.Remove(stream.Path())
		return "", err
	}

	e.logger.InfoContext(ctx, "exported sales records",
		slog.String("path", stream.Path()),
		slog.Int("rows", stream.Rows()))

	return stream.Path(), nil
}

// WriteForecastCSV writes the full forecast table.
func (e *Exporter) WriteForecastCSV(ctx context.Context, filePath string, points []domain.ForecastPoint) (string, error) {
	records := make([][]string, 0, len(points))
	for _, p := range points {
		records = append(records, []string{
			formatDate(p.DS),
			formatFloat(p.YHat),
			formatFloat(p.YHatLower),
			formatFloat(p.YHatUpper),
		})
	}

	if err := e.csv.WriteCSV(filePath, WriteOptions{
		Headers:   ForecastHeaders,
		Records:   records,
		BOMPrefix: true,
	}); err != nil {
		return "", err
	}

	fullPath := e.Resolve(filePath)
	e.logger.InfoContext(ctx, "exported forecast",
		slog.String("path", fullPath),
		slog.Int("rows", len(records)))

	return fullPath, nil
}

// WriteChart renders a chart to an HTML file.
func (e *Exporter) WriteChart(ctx context.Context, filePath string, chart Renderable) (string, error) {
	fullPath, err := e.writeFile(filePath, func(w io.Writer) error {
		return chart.Render(w)
	})
	if err != nil {
		return "", err
	}

	e.logger.InfoContext(ctx, "exported chart", slog.String("path", fullPath))
	return fullPath, nil
}

// WriteText writes a plain text document such as the business report.
func (e *Exporter) WriteText(ctx context.Context, filePath, text string) (string, error) {
	fullPath, err := e.writeFile(filePath, func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	})
	if err != nil {
		return "", err
	}

	e.logger.InfoContext(ctx, "exported text",
		slog.String("path", fullPath),
		slog.Int("bytes", len(text)))
	return fullPath, nil
}

// WriteJSON writes v as indented JSON.
func (e *Exporter) WriteJSON(ctx context.Context, filePath string, v interface{}) (string, error) {
	fullPath, err := e.writeFile(filePath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
	if err != nil {
		return "", err
	}

	e.logger.DebugContext(ctx, "exported json", slog.String("path", fullPath))
	return fullPath, nil
}

// writeFile creates the resolved file (and its directory) and hands it to
// write. A partially written file is removed on failure.
func (e *Exporter) writeFile(filePath string, write func(io.Writer) error) (string, error) {
	fullPath := e.Resolve(filePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", errors.NewStorageError("failed to create directory for "+fullPath, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", errors.NewStorageError("failed to create "+fullPath, err)
	}

	if err := write(file); err != nil {
		file.Close()
		os.Remove(fullPath)
		return "", errors.NewStorageError("failed to write "+fullPath, err)
	}

	if err := file.Close(); err != nil {
		return "", errors.NewStorageError("failed to close "+fullPath, err)
	}
	return fullPath, nil
}
