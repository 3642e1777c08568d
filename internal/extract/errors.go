// internal/extract/errors.go
package extract

import (
	"errors"
	"fmt"
)

// Extraction errors
var (
	ErrMissingToken   = errors.New("anti-forgery token not found")
	ErrMalformedLabel = errors.New("malformed origin label")
	ErrMalformedValue = errors.New("non-numeric origin value")
	ErrFetchFailed    = errors.New("destination request failed")
	ErrParseFailed    = errors.New("failed to parse destination response")
)

// ErrorCode classifies an extraction failure
type ErrorCode string

const (
	ErrCodeMissingToken   ErrorCode = "MISSING_TOKEN"
	ErrCodeMalformedInput ErrorCode = "MALFORMED_INPUT"
	ErrCodeNetworkError   ErrorCode = "NETWORK_ERROR"
	ErrCodeParseError     ErrorCode = "PARSE_ERROR"
)

// ExtractError wraps errors with a code and context.
//
// MISSING_TOKEN and MALFORMED_INPUT are fatal for the run. NETWORK_ERROR and
// PARSE_ERROR are contained to a single origin.
type ExtractError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *ExtractError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ExtractError) Unwrap() error {
	return e.Underlying
}

// Is matches another *ExtractError by code, otherwise defers to the underlying error
func (e *ExtractError) Is(target error) bool {
	if t, ok := target.(*ExtractError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewExtractError creates a new ExtractError
func NewExtractError(code ErrorCode, message string, err error) *ExtractError {
	return &ExtractError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the error
func (e *ExtractError) WithDetail(key string, value interface{}) *ExtractError {
	e.Details[key] = value
	return e
}

// Fatal reports whether the error must stop the whole run
func (e *ExtractError) Fatal() bool {
	return e.Code == ErrCodeMissingToken || e.Code == ErrCodeMalformedInput
}

// IsMalformedInput reports whether err signals an upstream format change
func IsMalformedInput(err error) bool {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeMalformedInput
	}
	return false
}

// StatusError is returned by transports when the endpoint answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}
