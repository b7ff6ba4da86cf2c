package providers

import (
	"context"
	"fmt"

	"github.com/promptlearn/promptlearn/utils"
)

// MockProvider implements Provider for tests. It replays a queue of scripted
// results and records every prompt it receives.
type MockProvider struct {
	model   string
	logger  utils.Logger
	results []mockResult
	index   int
	loop    bool

	// Prompts holds every prompt passed to Generate, in order.
	Prompts []string
}

type mockResult struct {
	response string
	err      error
}

func NewMockProvider(model string) *MockProvider {
	return &MockProvider{
		model:  model,
		logger: utils.NewLogger(utils.LogLevelOff),
	}
}

func (p *MockProvider) Name() string                  { return "mock" }
func (p *MockProvider) Model() string                 { return p.model }
func (p *MockProvider) SetLogger(logger utils.Logger) { p.logger = logger }

// QueueResponse appends a successful scripted response.
func (p *MockProvider) QueueResponse(response string) {
	p.results = append(p.results, mockResult{response: response})
}

// QueueError appends a scripted failure.
func (p *MockProvider) QueueError(err error) {
	p.results = append(p.results, mockResult{err: err})
}

// SetLoop makes the queue wrap around instead of erroring when exhausted.
func (p *MockProvider) SetLoop(loop bool) {
	p.loop = loop
}

func (p *MockProvider) Generate(_ context.Context, prompt string) (*Response, error) {
	p.Prompts = append(p.Prompts, prompt)

	if len(p.results) == 0 {
		return p.respond(prompt, "mock response")
	}
	if p.index >= len(p.results) {
		if !p.loop {
			return nil, fmt.Errorf("mock responses exhausted after %d calls", len(p.results))
		}
		p.index = 0
	}
	r := p.results[p.index]
	p.index++
	if r.err != nil {
		return nil, r.err
	}
	return p.respond(prompt, r.response)
}

func (p *MockProvider) respond(prompt, content string) (*Response, error) {
	return &Response{
		Content: content,
		Usage: Usage{
			InputTokens:  len(prompt) / 4,
			OutputTokens: len(content) / 4,
		},
	}, nil
}
