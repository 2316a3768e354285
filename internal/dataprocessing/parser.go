package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"fuelcast/internal/errors"
	"fuelcast/pkg/contracts/domain"
)

const utf8BOM = "\uFEFF"

// SheetLoader reads wide-format sales exports from disk.
type SheetLoader struct {
	logger *slog.Logger
}

// NewSheetLoader creates a loader. A nil logger falls back to slog.Default().
func NewSheetLoader(logger *slog.Logger) *SheetLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetLoader{logger: logger}
}

// Load dispatches on the file extension. sheetName is ignored for CSV files;
// for workbooks an empty name selects the first sheet.
func (l *SheetLoader) Load(ctx context.Context, path, sheetName string) (domain.RawSheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return l.LoadWorkbook(ctx, path, sheetName)
	case ".csv":
		return l.LoadCSV(ctx, path)
	default:
		return domain.RawSheet{}, errors.NewValidationError(
			fmt.Sprintf("unsupported input format %q (expected .xlsx, .xlsm or .csv)", filepath.Ext(path)))
	}
}

// LoadWorkbook reads one sheet of an Excel workbook. Cells are read raw so a
// date-typed header comes back as its serial number rather than a
// locale-formatted string; ParseMonth understands both.
func (l *SheetLoader) LoadWorkbook(ctx context.Context, path, sheetName string) (domain.RawSheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.RawSheet{}, errors.NewParsingError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return domain.RawSheet{}, errors.NewSchemaError(fmt.Sprintf("workbook %s has no sheets", path))
		}
		sheetName = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return domain.RawSheet{}, errors.NewSchemaError(
			fmt.Sprintf("sheet %q not found in %s (available: %s)", sheetName, path, strings.Join(f.GetSheetList(), ", ")))
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.RawSheet{}, errors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheetName), err)
	}

	sheet := buildSheet(sheetName, rows)

	l.logger.InfoContext(ctx, "loaded workbook sheet",
		slog.String("path", path),
		slog.String("sheet", sheetName),
		slog.Int("columns", sheet.ColumnCount()),
		slog.Int("rows", len(sheet.Rows)))

	return sheet, nil
}

// LoadCSV reads a comma-separated export. A leading UTF-8 byte order mark is
// stripped and ragged rows are allowed.
func (l *SheetLoader) LoadCSV(ctx context.Context, path string) (domain.RawSheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.RawSheet{}, errors.NewParsingError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer file.Close()

	sheet, err := readCSV(file, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if err != nil {
		return domain.RawSheet{}, err
	}

	l.logger.InfoContext(ctx, "loaded csv sheet",
		slog.String("path", path),
		slog.Int("columns", sheet.ColumnCount()),
		slog.Int("rows", len(sheet.Rows)))

	return sheet, nil
}

func readCSV(r io.Reader, name string) (domain.RawSheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return domain.RawSheet{}, errors.NewParsingError("failed to parse csv", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], utf8BOM)
	}
	return buildSheet(name, rows), nil
}

// buildSheet splits the header row from the data rows and drops rows that
// are entirely blank.
func buildSheet(name string, rows [][]string) domain.RawSheet {
	sheet := domain.RawSheet{Name: name, Rows: [][]string{}}
	if len(rows) == 0 {
		sheet.Headers = []string{}
		return sheet
	}

	sheet.Headers = make([]string, len(rows[0]))
	for i, h := range rows[0] {
		sheet.Headers[i] = strings.TrimSpace(h)
	}

	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
