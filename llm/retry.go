package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/promptlearn/promptlearn/utils"
)

// RetryPolicy wraps a blocking external call with bounded retries and
// exponential backoff. Only errors accepted by Retryable are retried; any
// other error propagates immediately. Exhausting every retry yields an
// ErrorTypeOptimization error wrapping the last underlying failure.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
	Retryable     func(error) bool
}

// DefaultRetryPolicy matches the engine-wide policy for model calls: five
// retries after the initial attempt, one second initial delay, tripling after
// each retry, transient errors only.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  time.Second,
		BackoffFactor: 3.0,
		Retryable:     IsTransient,
	}
}

func (p *RetryPolicy) retryable(err error) bool {
	if p.Retryable == nil {
		return IsTransient(err)
	}
	return p.Retryable(err)
}

// Do runs fn until it succeeds, fails fatally, or retries are exhausted.
// The first retry reuses the initial delay unchanged; the delay multiplies
// from the second retry on. op names the call for logging and error text.
func (p *RetryPolicy) Do(ctx context.Context, logger utils.Logger, op string, fn func() error) error {
	delay := p.InitialDelay

	var err error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !p.retryable(err) {
			return err
		}
		if attempt == p.MaxRetries {
			return NewError(ErrorTypeOptimization,
				fmt.Sprintf("%s failed after %d retries", op, p.MaxRetries), err)
		}

		next := delay
		if attempt > 0 {
			next = time.Duration(float64(delay) * p.BackoffFactor)
		}
		logger.Warn("call failed, retrying",
			"op", op,
			"attempt", attempt+1,
			"max_attempts", p.MaxRetries+1,
			"delay", next,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(next):
		}
		delay = next
	}
	return err
}
