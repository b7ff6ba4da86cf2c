// Package providers implements the model call boundary. A Provider turns a
// rendered prompt into response text plus token usage; the engine treats the
// call as opaque text-in, text-out.
package providers

import (
	"context"
	"fmt"

	"github.com/promptlearn/promptlearn/utils"
)

// Usage reports the token consumption of a single call, as counted by the
// provider. Zero values mean the provider did not report usage.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is the result of one model call.
type Response struct {
	Content string
	Usage   Usage
}

// Provider is implemented by every model backend.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, prompt string) (*Response, error)
	SetLogger(logger utils.Logger)
}

// Constructor builds a Provider from an API key and model identifier.
type Constructor func(apiKey, model string) Provider

// StatusError reports a non-success HTTP status from a provider endpoint.
// The llm layer maps it onto the engine's error taxonomy.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Code, e.Body)
}
