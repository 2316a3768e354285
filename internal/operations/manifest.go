package operations

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"fuelcast/internal/errors"
	"fuelcast/pkg/contracts"
)

// Run modes.
const (
	ModeSingle = "single"
	ModeBatch  = "batch"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunManifest is the JSON record of one run
type RunManifest struct {
	mu sync.RWMutex `json:"-"`

	ID            string    `json:"id"`
	Version       string    `json:"version"`
	FormatVersion string    `json:"format_version"`
	Mode          string    `json:"mode"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time,omitempty"`
	Duration      string    `json:"duration,omitempty"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`

	Input      InputInfo  `json:"input"`
	Parameters Parameters `json:"parameters"`
	Drops      *DropInfo  `json:"drops,omitempty"`

	Steps     []StepExecution   `json:"steps"`
	Artifacts map[string]string `json:"artifacts"`
	Pairs     []PairOutcome     `json:"pairs,omitempty"`
}

// InputInfo identifies the input file
type InputInfo struct {
	Path        string `json:"path"`
	Sheet       string `json:"sheet,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
	Fingerprint string `json:"blake2b_256"`
}

// Parameters are the knobs a run was invoked with
type Parameters struct {
	Outlet        string  `json:"outlet,omitempty"`
	FuelType      string  `json:"fuel_type"`
	Periods       int     `json:"periods"`
	IntervalWidth float64 `json:"interval_width"`
	Narrative     bool    `json:"narrative"`
	Filter        string  `json:"filter,omitempty"`
}

// DropInfo summarizes what the reshaper discarded
type DropInfo struct {
	UnparseableColumns []string `json:"unparseable_columns,omitempty"`
	MissingSales       int      `json:"missing_sales"`
	Emitted            int      `json:"emitted"`
}

// PairOutcome is the result of one pair in batch mode
type PairOutcome struct {
	Outlet    string            `json:"outlet"`
	FuelType  string            `json:"fuel_type"`
	Status    string            `json:"status"`
	Step      string            `json:"step,omitempty"`
	Error     string            `json:"error,omitempty"`
	Artifacts map[string]string `json:"artifacts,omitempty"`
}

// NewRunManifest creates a manifest in the running state
func NewRunManifest(id, mode string) *RunManifest {
	return &RunManifest{
		ID:            id,
		Version:       contracts.Version,
		FormatVersion: contracts.DataFormatVersion,
		Mode:          mode,
		StartTime:     time.Now(),
		Status:        RunStatusRunning,
		Steps:         []StepExecution{},
		Artifacts:     make(map[string]string),
	}
}

// RecordStepStart records the start of a step
func (m *RunManifest) RecordStepStart(stepID, stepName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Steps = append(m.Steps, StepExecution{
		StepID:    stepID,
		StepName:  stepName,
		Status:    StepStatusRunning,
		StartTime: time.Now(),
	})
}

// RecordStepCompletion marks the latest execution of stepID as completed
func (m *RunManifest) RecordStepCompletion(stepID string, metadata map[string]interface{}) {
	m.finishStep(stepID, StepStatusCompleted, "", "", metadata)
}

// RecordStepFailure marks the latest execution of stepID as failed
func (m *RunManifest) RecordStepFailure(stepID string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	m.finishStep(stepID, StepStatusFailed, msg, "", nil)
}

// RecordStepSkipped records a step that did not run
func (m *RunManifest) RecordStepSkipped(stepID, stepName, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.Steps = append(m.Steps, StepExecution{
		StepID:    stepID,
		StepName:  stepName,
		Status:    StepStatusSkipped,
		StartTime: now,
		EndTime:   now,
		Message:   reason,
	})
}

func (m *RunManifest) finishStep(stepID string, status StepStatus, errMsg, message string, metadata map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.Steps) - 1; i >= 0; i-- {
		if m.Steps[i].StepID != stepID {
			continue
		}
		now := time.Now()
		m.Steps[i].EndTime = now
		m.Steps[i].Duration = now.Sub(m.Steps[i].StartTime).String()
		m.Steps[i].Status = status
		m.Steps[i].Error = errMsg
		m.Steps[i].Message = message
		m.Steps[i].Metadata = metadata
		return
	}
}

// AddArtifact records a produced file
func (m *RunManifest) AddArtifact(kind, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Artifacts[kind] = path
}

// AddPair records the outcome of one batch pair
func (m *RunManifest) AddPair(outcome PairOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pairs = append(m.Pairs, outcome)
}

// Complete marks the run as completed
func (m *RunManifest) Complete() {
	m.finish(RunStatusCompleted, nil)
}

// Fail marks the run as failed
func (m *RunManifest) Fail(err error) {
	m.finish(RunStatusFailed, err)
}

func (m *RunManifest) finish(status string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime).String()
	m.Status = status
	if err != nil {
		m.Error = err.Error()
	}
}

// SaveToFile writes the manifest as indented JSON
func (m *RunManifest) SaveToFile(path string) error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return errors.NewStorageError("failed to marshal manifest", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create manifest directory", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return errors.NewStorageError("failed to write manifest", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return errors.NewStorageError("failed to replace manifest", err)
	}
	return nil
}

// LoadManifest reads a manifest written by SaveToFile
func LoadManifest(path string) (*RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewStorageError("failed to read manifest", err)
	}

	var m RunManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("invalid manifest %s", path), err)
	}
	if m.Artifacts == nil {
		m.Artifacts = make(map[string]string)
	}
	return &m, nil
}

// FingerprintFile returns the hex BLAKE2b-256 digest and size of a file
func FingerprintFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, errors.NewStorageError("failed to open "+path, err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", 0, err
	}

	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, errors.NewStorageError("failed to read "+path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
