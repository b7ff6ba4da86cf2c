// Package promptlearn wires the engine together: configuration, provider,
// rate-limited and retried model calls, the pricing ledger, and the batch
// optimizer. Callers needing finer control can assemble the sub-packages
// directly.
package promptlearn

import (
	"golang.org/x/time/rate"

	"github.com/promptlearn/promptlearn/config"
	"github.com/promptlearn/promptlearn/llm"
	"github.com/promptlearn/promptlearn/optimizer"
	"github.com/promptlearn/promptlearn/pricing"
	"github.com/promptlearn/promptlearn/providers"
	"github.com/promptlearn/promptlearn/utils"
)

// Engine bundles one configured model boundary with its spend ledger.
type Engine struct {
	LLM     llm.LLM
	Pricing *pricing.Calculator
	Config  *config.Config

	logger utils.Logger
}

// New builds an Engine from defaults plus options. Use NewFromConfig to
// reuse a configuration loaded from the environment.
func New(opts ...config.ConfigOption) (*Engine, error) {
	return NewFromConfig(config.NewConfig(opts...))
}

func NewFromConfig(cfg *config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, llm.NewError(llm.ErrorTypeConfiguration, "invalid configuration", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)

	registry := providers.NewRegistry()
	provider, err := registry.Get(cfg.Provider, cfg.APIKey(), cfg.Model)
	if err != nil {
		return nil, llm.NewError(llm.ErrorTypeConfiguration, "provider setup failed", err)
	}
	if p, ok := provider.(*providers.OpenAIProvider); ok && cfg.Timeout > 0 {
		p.SetTimeout(cfg.Timeout)
	}

	calc := pricing.NewCalculator()

	llmOpts := []llm.Option{
		llm.WithRetryPolicy(&llm.RetryPolicy{
			MaxRetries:    cfg.MaxRetries,
			InitialDelay:  cfg.RetryDelay,
			BackoffFactor: cfg.BackoffFactor,
			Retryable:     llm.IsTransient,
		}),
		llm.WithUsageCallback(func(model string, in, out int) {
			calc.Record(model, in, out)
		}),
	}
	if cfg.RateLimitInterval > 0 {
		llmOpts = append(llmOpts, llm.WithRateLimit(rate.Every(cfg.RateLimitInterval), 1))
	}

	return &Engine{
		LLM:     llm.New(provider, logger, llmOpts...),
		Pricing: calc,
		Config:  cfg,
		logger:  logger,
	}, nil
}

// NewOptimizer builds a batch optimizer for the given prompt, wired to the
// engine's model, ledger, and budgets.
func (e *Engine) NewOptimizer(prompt optimizer.Prompt, opts ...optimizer.Option) *optimizer.PromptLearningOptimizer {
	base := []optimizer.Option{
		optimizer.WithLogger(e.logger),
		optimizer.WithPricing(e.Pricing),
		optimizer.WithContextTokens(e.Config.ContextTokens),
		optimizer.WithBudgetLimit(e.Config.BudgetLimit),
	}
	return optimizer.NewPromptLearningOptimizer(e.LLM, prompt, append(base, opts...)...)
}

// Usage returns the engine-wide spend summary.
func (e *Engine) Usage() pricing.Summary {
	return e.Pricing.Summary()
}
