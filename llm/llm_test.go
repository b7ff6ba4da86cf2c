package llm

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptlearn/promptlearn/providers"
	"github.com/promptlearn/promptlearn/utils"
)

func fastRetryOption() Option {
	return WithRetryPolicy(&RetryPolicy{
		MaxRetries:    2,
		InitialDelay:  time.Microsecond,
		BackoffFactor: 3.0,
		Retryable:     IsTransient,
	})
}

func TestGenerateReturnsProviderContent(t *testing.T) {
	mock := providers.NewMockProvider("gpt-4")
	mock.QueueResponse("improved prompt")

	model := New(mock, utils.NewMockLogger(), fastRetryOption())
	out, err := model.Generate(context.Background(), "meta prompt")

	require.NoError(t, err)
	assert.Equal(t, "improved prompt", out)
	assert.Equal(t, []string{"meta prompt"}, mock.Prompts)
	assert.Equal(t, "gpt-4", model.Model())
}

func TestGenerateReportsUsage(t *testing.T) {
	mock := providers.NewMockProvider("gpt-4")
	mock.QueueResponse("new prompt text")

	var gotModel string
	var gotIn, gotOut int
	model := New(mock, utils.NewMockLogger(), fastRetryOption(),
		WithUsageCallback(func(m string, in, out int) {
			gotModel, gotIn, gotOut = m, in, out
		}))

	_, err := model.Generate(context.Background(), "a prompt that is forty characters odd")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", gotModel)
	assert.Positive(t, gotIn)
	assert.Positive(t, gotOut)
}

func TestGenerateRetriesRateLimit(t *testing.T) {
	mock := providers.NewMockProvider("gpt-4")
	mock.QueueError(&providers.StatusError{Provider: "mock", Code: http.StatusTooManyRequests, Body: "slow down"})
	mock.QueueResponse("eventually fine")

	model := New(mock, utils.NewMockLogger(), fastRetryOption())
	out, err := model.Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "eventually fine", out)
	assert.Len(t, mock.Prompts, 2)
}

func TestGenerateDoesNotRetryFatalStatus(t *testing.T) {
	mock := providers.NewMockProvider("gpt-4")
	mock.QueueError(&providers.StatusError{Provider: "mock", Code: http.StatusUnauthorized, Body: "bad key"})
	mock.QueueResponse("never reached")

	model := New(mock, utils.NewMockLogger(), fastRetryOption())
	_, err := model.Generate(context.Background(), "prompt")

	require.Error(t, err)
	assert.Equal(t, ErrorTypeProvider, TypeOf(err))
	assert.Len(t, mock.Prompts, 1)
}

func TestGenerateExhaustsRetries(t *testing.T) {
	mock := providers.NewMockProvider("gpt-4")
	for i := 0; i < 3; i++ {
		mock.QueueError(&providers.StatusError{Provider: "mock", Code: http.StatusTooManyRequests, Body: "still busy"})
	}

	model := New(mock, utils.NewMockLogger(), fastRetryOption())
	_, err := model.Generate(context.Background(), "prompt")

	require.Error(t, err)
	assert.Equal(t, ErrorTypeOptimization, TypeOf(err))
	assert.Len(t, mock.Prompts, 3)
}

func TestClassifyStatusCodes(t *testing.T) {
	testCases := []struct {
		name     string
		code     int
		expected ErrorType
	}{
		{"too many requests", http.StatusTooManyRequests, ErrorTypeRateLimit},
		{"request timeout", http.StatusRequestTimeout, ErrorTypeTimeout},
		{"unauthorized", http.StatusUnauthorized, ErrorTypeProvider},
		{"internal server error", http.StatusInternalServerError, ErrorTypeProvider},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := classify(&providers.StatusError{Provider: "p", Code: tc.code})
			assert.Equal(t, tc.expected, TypeOf(err))
		})
	}
}

func TestClassifyKeepsTypedErrors(t *testing.T) {
	typed := NewError(ErrorTypeRateLimit, "already typed", nil)
	assert.Equal(t, typed, classify(typed))
}
