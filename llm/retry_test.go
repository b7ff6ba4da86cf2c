package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptlearn/promptlearn/utils"
)

func fastPolicy(maxRetries int) *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:    maxRetries,
		InitialDelay:  time.Microsecond,
		BackoffFactor: 3.0,
		Retryable:     IsTransient,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := fastPolicy(5).Do(context.Background(), utils.NewMockLogger(), "op", func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryRecoversFromTransientFailures(t *testing.T) {
	calls := 0
	err := fastPolicy(5).Do(context.Background(), utils.NewMockLogger(), "op", func() error {
		calls++
		if calls < 3 {
			return NewError(ErrorTypeRateLimit, "throttled", nil)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryFatalErrorPropagatesImmediately(t *testing.T) {
	fatal := NewError(ErrorTypeProvider, "invalid api key", nil)
	calls := 0
	err := fastPolicy(5).Do(context.Background(), utils.NewMockLogger(), "op", func() error {
		calls++
		return fatal
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, fatal, err)
}

func TestRetryExhaustionWrapsLastError(t *testing.T) {
	last := NewError(ErrorTypeTimeout, "deadline exceeded", nil)
	calls := 0
	err := fastPolicy(2).Do(context.Background(), utils.NewMockLogger(), "generate", func() error {
		calls++
		return last
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls) // initial attempt + 2 retries
	assert.Equal(t, ErrorTypeOptimization, TypeOf(err))
	assert.ErrorContains(t, err, "generate failed after 2 retries")
	assert.True(t, errors.Is(err, last))
}

func TestRetryLogsEachAttempt(t *testing.T) {
	logger := utils.NewMockLogger()
	_ = fastPolicy(3).Do(context.Background(), logger, "op", func() error {
		return NewError(ErrorTypeRateLimit, "throttled", nil)
	})
	assert.Len(t, logger.Messages(utils.LogLevelWarn), 3)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := &RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  time.Hour, // the sleep must never complete
		BackoffFactor: 3.0,
		Retryable:     IsTransient,
	}
	err := policy.Do(ctx, utils.NewMockLogger(), "op", func() error {
		return NewError(ErrorTypeTimeout, "slow", nil)
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryZeroRetriesFailsImmediately(t *testing.T) {
	calls := 0
	err := fastPolicy(0).Do(context.Background(), utils.NewMockLogger(), "op", func() error {
		calls++
		return NewError(ErrorTypeRateLimit, "throttled", nil)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, ErrorTypeOptimization, TypeOf(err))
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 5, p.MaxRetries)
	assert.Equal(t, time.Second, p.InitialDelay)
	assert.Equal(t, 3.0, p.BackoffFactor)
}
