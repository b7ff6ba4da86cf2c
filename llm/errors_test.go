package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	testCases := []struct {
		name        string
		errType     ErrorType
		message     string
		underlying  error
		expectedStr string
	}{
		{
			name:        "dataset error with underlying error",
			errType:     ErrorTypeDataset,
			message:     "missing columns",
			underlying:  errors.New("no such column: feedback"),
			expectedStr: "DatasetError (missing columns): no such column: feedback",
		},
		{
			name:        "rate limit error without underlying error",
			errType:     ErrorTypeRateLimit,
			message:     "too many requests",
			expectedStr: "RateLimitError: too many requests",
		},
		{
			name:        "optimization error",
			errType:     ErrorTypeOptimization,
			message:     "retries exhausted",
			underlying:  errors.New("timeout"),
			expectedStr: "OptimizationError (retries exhausted): timeout",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewError(tc.errType, tc.message, tc.underlying)
			assert.Equal(t, tc.expectedStr, err.Error())
			assert.Equal(t, tc.errType, TypeOf(err))
			if tc.underlying != nil {
				assert.Equal(t, tc.underlying, errors.Unwrap(err))
			}
		})
	}
}

func TestTypeOfWrappedError(t *testing.T) {
	inner := NewError(ErrorTypeTimeout, "deadline", nil)
	wrapped := fmt.Errorf("calling model: %w", inner)

	assert.Equal(t, ErrorTypeTimeout, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(nil))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewError(ErrorTypeRateLimit, "429", nil)))
	assert.True(t, IsTransient(NewError(ErrorTypeTimeout, "deadline", nil)))

	assert.False(t, IsTransient(NewError(ErrorTypeProvider, "bad request", nil)))
	assert.False(t, IsTransient(NewError(ErrorTypeDataset, "missing", nil)))
	assert.False(t, IsTransient(errors.New("untyped")))
	assert.False(t, IsTransient(nil))
}
