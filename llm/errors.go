package llm

import (
	"errors"
	"fmt"
)

// ErrorType classifies an engine error.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeDataset covers missing or invalid input data.
	ErrorTypeDataset
	// ErrorTypeTokenLimit covers token accounting failures.
	ErrorTypeTokenLimit
	// ErrorTypeProvider covers model call configuration or execution failures.
	ErrorTypeProvider
	// ErrorTypeOptimization covers retry exhaustion and batch processing failures.
	ErrorTypeOptimization
	// ErrorTypeConfiguration covers setup and environment problems.
	ErrorTypeConfiguration
	// ErrorTypeRateLimit is a transient provider rejection (HTTP 429 and friends).
	ErrorTypeRateLimit
	// ErrorTypeTimeout is a transient provider or network timeout.
	ErrorTypeTimeout
)

// Error is the typed error used throughout the engine.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.TypeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.TypeString(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) TypeString() string {
	switch e.Type {
	case ErrorTypeDataset:
		return "DatasetError"
	case ErrorTypeTokenLimit:
		return "TokenLimitError"
	case ErrorTypeProvider:
		return "ProviderError"
	case ErrorTypeOptimization:
		return "OptimizationError"
	case ErrorTypeConfiguration:
		return "ConfigurationError"
	case ErrorTypeRateLimit:
		return "RateLimitError"
	case ErrorTypeTimeout:
		return "TimeoutError"
	default:
		return "UnknownError"
	}
}

// NewError creates a new typed Error.
func NewError(errType ErrorType, message string, err error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown if err carries none.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsTransient reports whether err is worth retrying. Only rate limiting and
// timeouts qualify; everything else propagates immediately.
func IsTransient(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeRateLimit, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}
