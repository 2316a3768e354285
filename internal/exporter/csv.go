package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fuelcast/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PathResolver maps relative artifact names onto directories
type PathResolver interface {
	GetReportPath(filename string) string
	GetDataPath(filename string) string
}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  PathResolver
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. paths may be nil, in which
// case relative paths are used as given.
func NewCSVWriter(paths PathResolver, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV replaces filePath with the given table. A partially written file
// is removed on failure.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Debug("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for "+fullPath, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return errors.NewStorageError("failed to create "+fullPath, err)
	}

	if err := writeTable(file, options); err != nil {
		file.Close()
		os.Remove(fullPath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(fullPath)
		return errors.NewStorageError("failed to close "+fullPath, err)
	}
	return nil
}

func writeTable(f *os.File, options WriteOptions) error {
	// Write BOM if requested (helps Excel recognize UTF-8)
	if options.BOMPrefix {
		if _, err := f.Write(utf8BOM); err != nil {
			return errors.NewStorageError("failed to write BOM", err)
		}
	}

	writer := csv.NewWriter(f)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return errors.NewStorageError("failed to write headers", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.NewStorageError("failed to flush "+f.Name(), err)
	}
	return nil
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer
	rows   int
}

// CreateStreamWriter creates a new streaming CSV writer. The file starts with
// a UTF-8 BOM and the header row.
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, errors.NewStorageError("failed to create directory for "+fullPath, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, errors.NewStorageError("failed to create "+fullPath, err)
	}

	if _, err := file.Write(utf8BOM); err != nil {
		file.Close()
		return nil, errors.NewStorageError("failed to write BOM", err)
	}

	writer := csv.NewWriter(file)

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, errors.NewStorageError("failed to write headers", err)
		}
	}

	return &StreamWriter{
		path:   fullPath,
		file:   file,
		writer: writer,
	}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to write row %d", s.rows+1), err)
	}
	s.rows++
	return nil
}

// Path returns the resolved file path
func (s *StreamWriter) Path() string {
	return s.path
}

// Rows returns the number of records written so far, excluding the header
func (s *StreamWriter) Rows() int {
	return s.rows
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return errors.NewStorageError("failed to flush "+s.path, err)
	}
	if err := s.file.Close(); err != nil {
		return errors.NewStorageError("failed to close "+s.path, err)
	}
	return nil
}

// resolvePath resolves a path to the appropriate directory. Absolute paths
// are kept, "data/" paths go to the data directory and everything else is
// a report.
func (w *CSVWriter) resolvePath(filePath string) string {
	return resolve(w.paths, filePath)
}

func resolve(paths PathResolver, filePath string) string {
	if filepath.IsAbs(filePath) || paths == nil {
		return filePath
	}

	slashed := filepath.ToSlash(filePath)
	if strings.HasPrefix(slashed, "data/") {
		return paths.GetDataPath(strings.TrimPrefix(slashed, "data/"))
	}
	return paths.GetReportPath(filePath)
}
