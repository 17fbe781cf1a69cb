package main

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeFetch     ErrorType = "fetch"
	ErrorTypeParse     ErrorType = "parse"
	ErrorTypeTranslate ErrorType = "translate"
	ErrorTypeStorage   ErrorType = "storage"
	ErrorTypeScheduler ErrorType = "scheduler"
	ErrorTypeAPI       ErrorType = "api"
)

// PipelineError is the custom error type for the application
type PipelineError struct {
	Type    ErrorType
	Code    string
	Message string
	Inner   error
}

func (e *PipelineError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("[%s-%s] %s: %v", e.Type, e.Code, e.Message, e.Inner)
	}
	return fmt.Sprintf("[%s-%s] %s", e.Type, e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Inner
}

// NewError creates a new PipelineError
func NewError(errType ErrorType, code string, message string, inner error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Code:    code,
		Message: message,
		Inner:   inner,
	}
}

// Common error constructors
func NewFetchError(code string, message string, inner error) *PipelineError {
	return NewError(ErrorTypeFetch, code, message, inner)
}

func NewParseError(code string, message string, inner error) *PipelineError {
	return NewError(ErrorTypeParse, code, message, inner)
}

func NewTranslateError(code string, message string, inner error) *PipelineError {
	return NewError(ErrorTypeTranslate, code, message, inner)
}

func NewStorageError(code string, message string, inner error) *PipelineError {
	return NewError(ErrorTypeStorage, code, message, inner)
}

// Error codes
const (
	ErrFetchHTTP      = "FETCH_001"
	ErrFetchTimeout   = "FETCH_002"
	ErrFetchForbidden = "FETCH_003"
	ErrFetchEmpty     = "FETCH_004"

	ErrParseFeed   = "PARSE_001"
	ErrParseSchema = "PARSE_002"

	ErrTranslateCall  = "TRANS_001"
	ErrTranslateEmpty = "TRANS_002"

	ErrStorageRead  = "STORE_001"
	ErrStorageWrite = "STORE_002"
	ErrStorageLock  = "STORE_003"
)

// IsTransient determines if an error is likely temporary. Transient source
// failures stay isolated; only storage failures can abort a run.
func IsTransient(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		switch pe.Code {
		case ErrFetchHTTP, ErrFetchTimeout, ErrFetchForbidden, ErrFetchEmpty, ErrTranslateCall:
			return true
		}
	}
	return false
}
