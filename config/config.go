// Package config holds the engine configuration. It is constructed once at
// process start (from the environment or defaults) and passed explicitly into
// every component; there is no ambient global state.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/promptlearn/promptlearn/utils"
)

type Config struct {
	Provider string `env:"PROMPTLEARN_PROVIDER" envDefault:"openai" validate:"required"`
	Model    string `env:"PROMPTLEARN_MODEL" envDefault:"gpt-4" validate:"required"`

	// ContextTokens is the per-batch token budget fed to the splitter.
	ContextTokens int `env:"PROMPTLEARN_CONTEXT_TOKENS" envDefault:"128000" validate:"min=1"`
	// BudgetLimit is the currency budget for one run; zero disables it.
	BudgetLimit float64 `env:"PROMPTLEARN_BUDGET_LIMIT" envDefault:"0" validate:"min=0"`

	MaxRetries    int           `env:"PROMPTLEARN_MAX_RETRIES" envDefault:"5" validate:"min=0"`
	RetryDelay    time.Duration `env:"PROMPTLEARN_RETRY_DELAY" envDefault:"1s"`
	BackoffFactor float64       `env:"PROMPTLEARN_BACKOFF_FACTOR" envDefault:"3" validate:"gte=1"`

	// RateLimitInterval spaces out model calls; zero means no limiter.
	RateLimitInterval time.Duration `env:"PROMPTLEARN_RATE_LIMIT_INTERVAL" envDefault:"0s"`
	Timeout           time.Duration `env:"PROMPTLEARN_TIMEOUT" envDefault:"60s"`

	LogLevel utils.LogLevel `env:"PROMPTLEARN_LOG_LEVEL" envDefault:"WARN"`

	APIKeys map[string]string
}

var validate = validator.New()

// LoadConfig reads configuration from the environment. API keys are
// harvested from every *_API_KEY variable, keyed by lowercased provider name.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKeys: make(map[string]string),
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	loadAPIKeys(cfg)
	return cfg, nil
}

func loadAPIKeys(cfg *Config) {
	for _, envVar := range os.Environ() {
		key, value, found := strings.Cut(envVar, "=")
		if found && strings.HasSuffix(strings.ToUpper(key), "_API_KEY") {
			provider := strings.TrimSuffix(strings.ToUpper(key), "_API_KEY")
			cfg.APIKeys[strings.ToLower(provider)] = value
		}
	}
}

// NewConfig returns a default configuration with options applied.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := &Config{
		Provider:      "openai",
		Model:         "gpt-4",
		ContextTokens: 128000,
		MaxRetries:    5,
		RetryDelay:    time.Second,
		BackoffFactor: 3,
		Timeout:       60 * time.Second,
		LogLevel:      utils.LogLevelWarn,
		APIKeys:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// APIKey returns the key for the configured provider, if any.
func (c *Config) APIKey() string {
	return c.APIKeys[c.Provider]
}

type ConfigOption func(*Config)

func SetProvider(provider string) ConfigOption {
	return func(c *Config) { c.Provider = provider }
}

func SetModel(model string) ConfigOption {
	return func(c *Config) { c.Model = model }
}

func SetContextTokens(n int) ConfigOption {
	return func(c *Config) { c.ContextTokens = n }
}

func SetBudgetLimit(limit float64) ConfigOption {
	return func(c *Config) { c.BudgetLimit = limit }
}

func SetMaxRetries(n int) ConfigOption {
	return func(c *Config) { c.MaxRetries = n }
}

func SetRetryDelay(d time.Duration) ConfigOption {
	return func(c *Config) { c.RetryDelay = d }
}

func SetRateLimitInterval(d time.Duration) ConfigOption {
	return func(c *Config) { c.RateLimitInterval = d }
}

func SetTimeout(d time.Duration) ConfigOption {
	return func(c *Config) { c.Timeout = d }
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) { c.LogLevel = level }
}

func SetAPIKey(provider, key string) ConfigOption {
	return func(c *Config) { c.APIKeys[strings.ToLower(provider)] = key }
}
