package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"fuelcast/internal/config"
	"fuelcast/internal/errors"
)

// FileValidator checks input workbooks and output directories before a run
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputFile checks that path names a readable workbook in one of
// the supported formats.
func (v *FileValidator) ValidateInputFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.NewValidationError("input path is required")
	}

	if err := v.validateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(config.SupportedInputExtensions, ext) {
		v.logger.Error("Unsupported input format",
			slog.String("file", path),
			slog.String("extension", ext))
		return errors.NewValidationError("unsupported input format " + quoteExt(ext)).
			WithContext("supported", strings.Join(config.SupportedInputExtensions, ","))
	}

	// Lock files left behind by spreadsheet editors
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Rejecting temporary workbook",
			slog.String("file", path))
		return errors.NewValidationError("input " + path + " is a temporary workbook")
	}

	return nil
}

// ValidateOutputDirectory ensures dir exists or can be created and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError("failed to create output directory "+dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError("output directory "+dir+" is not writable", err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// FindInputs lists the supported workbooks in dir, skipping editor lock files
func (v *FileValidator) FindInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		v.logger.Error("Failed to read input directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return nil, errors.NewStorageError("failed to read input directory "+dir, err)
	}

	var inputs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") {
			continue
		}
		if slices.Contains(config.SupportedInputExtensions, strings.ToLower(filepath.Ext(name))) {
			inputs = append(inputs, filepath.Join(dir, name))
		}
	}

	v.logger.Debug("Input files found",
		slog.String("directory", dir),
		slog.Int("count", len(inputs)))
	return inputs, nil
}

func (v *FileValidator) validateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return errors.NewValidationError("input file " + path + " does not exist")
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewStorageError("failed to stat "+path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return errors.NewValidationError(path + " is a directory, not a file")
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewStorageError("input file "+path+" is not readable", err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

func quoteExt(ext string) string {
	if ext == "" {
		return "(no extension)"
	}
	return ext
}
