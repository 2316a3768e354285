package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrTypeSchema, TypeOf(fmt.Errorf("reshape: %w", NewSchemaError("x"))))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitInternal},
		{"validation", NewValidationError("periods must be positive"), ExitUsage},
		{"config", NewConfigError("bad level", nil), ExitUsage},
		{"schema", NewSchemaError("2 columns"), ExitSchema},
		{"parsing", NewParsingError("bad file", nil), ExitSchema},
		{"insufficient", NewInsufficientDataError("1 date"), ExitInsufficientData},
		{"empty", fmt.Errorf("wrapped: %w", NewEmptyInputError("no rows")), ExitEmptyInput},
		{"storage", NewStorageError("disk", nil), ExitStorage},
		{"narrative", NewNarrativeError("quota", nil), ExitNarrative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
