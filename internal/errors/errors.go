package errors

import (
	stderrors "errors"
)

// Category sentinels. Use errors.Is(err, ErrSchema) to test an error's type
// regardless of its message.
var (
	ErrSchema           = &AppError{Type: ErrTypeSchema}
	ErrInsufficientData = &AppError{Type: ErrTypeInsufficientData}
	ErrEmptyInput       = &AppError{Type: ErrTypeEmptyInput}
	ErrParsing          = &AppError{Type: ErrTypeParsing}
	ErrValidation       = &AppError{Type: ErrTypeValidation}
	ErrConfig           = &AppError{Type: ErrTypeConfig}
	ErrStorage          = &AppError{Type: ErrTypeStorage}
	ErrNarrative        = &AppError{Type: ErrTypeNarrative}
)

// Process exit codes used by the command line tools.
const (
	ExitOK               = 0
	ExitInternal         = 1
	ExitUsage            = 2
	ExitSchema           = 3
	ExitInsufficientData = 4
	ExitEmptyInput       = 5
	ExitStorage          = 6
	ExitNarrative        = 7
)

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// ExitCode maps an error to the process exit code reported by the CLI.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch TypeOf(err) {
	case ErrTypeValidation, ErrTypeConfig:
		return ExitUsage
	case ErrTypeSchema, ErrTypeParsing:
		return ExitSchema
	case ErrTypeInsufficientData:
		return ExitInsufficientData
	case ErrTypeEmptyInput:
		return ExitEmptyInput
	case ErrTypeStorage:
		return ExitStorage
	case ErrTypeNarrative:
		return ExitNarrative
	default:
		return ExitInternal
	}
}

// Is, As and Join re-export the standard helpers so callers importing this
// package under the name "errors" keep access to them.
var (
	Is   = stderrors.Is
	As   = stderrors.As
	Join = stderrors.Join
)
