// Package llm wraps a provider behind a single rate-limited, retried
// Generate boundary and defines the engine's error taxonomy and retry policy.
package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"

	"golang.org/x/time/rate"

	"github.com/promptlearn/promptlearn/providers"
	"github.com/promptlearn/promptlearn/utils"
)

// LLM is the model call boundary the optimizer depends on. Generate blocks
// for the duration of the call, including retry sleeps.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// UsageFunc observes the token usage of every completed call. The pricing
// ledger is wired in through this hook.
type UsageFunc func(model string, inputTokens, outputTokens int)

type llmImpl struct {
	provider providers.Provider
	limiter  *rate.Limiter
	retry    *RetryPolicy
	logger   utils.Logger
	onUsage  UsageFunc
}

// Option configures the LLM wrapper.
type Option func(*llmImpl)

// WithRateLimit throttles outgoing calls.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(l *llmImpl) {
		l.limiter = rate.NewLimiter(r, burst)
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p *RetryPolicy) Option {
	return func(l *llmImpl) {
		l.retry = p
	}
}

// WithUsageCallback registers a usage observer.
func WithUsageCallback(fn UsageFunc) Option {
	return func(l *llmImpl) {
		l.onUsage = fn
	}
}

// New builds an LLM over the given provider.
func New(provider providers.Provider, logger utils.Logger, opts ...Option) LLM {
	l := &llmImpl{
		provider: provider,
		retry:    DefaultRetryPolicy(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	provider.SetLogger(logger)
	return l
}

func (l *llmImpl) Model() string {
	return l.provider.Model()
}

func (l *llmImpl) Generate(ctx context.Context, prompt string) (string, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	var resp *providers.Response
	err := l.retry.Do(ctx, l.logger, l.provider.Name()+" generate", func() error {
		r, callErr := l.provider.Generate(ctx, prompt)
		if callErr != nil {
			return classify(callErr)
		}
		resp = r
		return nil
	})
	if err != nil {
		return "", err
	}

	in, out := resp.Usage.InputTokens, resp.Usage.OutputTokens
	if in == 0 && out == 0 {
		// Provider did not report usage; fall back to the chars/4 rule.
		in = len(prompt) / 4
		out = len(resp.Content) / 4
	}
	if l.onUsage != nil {
		l.onUsage(l.provider.Model(), in, out)
	}

	l.logger.Debug("model call complete",
		"model", l.provider.Model(),
		"input_tokens", in,
		"output_tokens", out)
	return resp.Content, nil
}

// classify maps raw provider failures onto the typed taxonomy so the retry
// predicate can tell transient from fatal.
func classify(err error) error {
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}

	var status *providers.StatusError
	if errors.As(err, &status) {
		switch {
		case status.Code == http.StatusTooManyRequests:
			return NewError(ErrorTypeRateLimit, "provider rate limited", err)
		case status.Code == http.StatusRequestTimeout:
			return NewError(ErrorTypeTimeout, "provider request timed out", err)
		default:
			return NewError(ErrorTypeProvider, "provider call failed", err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(ErrorTypeTimeout, "network timeout", err)
	}
	if os.IsTimeout(err) {
		return NewError(ErrorTypeTimeout, "network timeout", err)
	}

	return NewError(ErrorTypeProvider, "provider call failed", err)
}
