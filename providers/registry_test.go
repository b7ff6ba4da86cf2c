package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKnownProviders(t *testing.T) {
	r := NewRegistry()

	openai, err := r.Get("openai", "key", "gpt-4")
	require.NoError(t, err)
	assert.Equal(t, "openai", openai.Name())
	assert.Equal(t, "gpt-4", openai.Model())

	mock, err := r.Get("mock", "", "gpt-4")
	require.NoError(t, err)
	assert.Equal(t, "mock", mock.Name())
}

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nonexistent", "key", "model")
	assert.ErrorContains(t, err, "unknown provider: nonexistent")
}

func TestRegistryRegisterCustom(t *testing.T) {
	r := NewRegistry()
	r.Register("custom", func(apiKey, model string) Provider {
		return NewMockProvider(model)
	})

	p, err := r.Get("custom", "", "my-model")
	require.NoError(t, err)
	assert.Equal(t, "my-model", p.Model())
}

func TestMockProviderQueue(t *testing.T) {
	p := NewMockProvider("gpt-4")
	p.QueueResponse("first")
	p.QueueResponse("second")

	resp, err := p.Generate(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	resp, err = p.Generate(context.Background(), "two")
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content)

	_, err = p.Generate(context.Background(), "three")
	assert.ErrorContains(t, err, "exhausted")

	assert.Equal(t, []string{"one", "two", "three"}, p.Prompts)
}

func TestMockProviderLoop(t *testing.T) {
	p := NewMockProvider("gpt-4")
	p.QueueResponse("only")
	p.SetLoop(true)

	for i := 0; i < 3; i++ {
		resp, err := p.Generate(context.Background(), "prompt")
		require.NoError(t, err)
		assert.Equal(t, "only", resp.Content)
	}
}

func TestMockProviderSynthesizesUsage(t *testing.T) {
	p := NewMockProvider("gpt-4")
	p.QueueResponse("12345678") // 8 chars -> 2 output tokens

	resp, err := p.Generate(context.Background(), "exactly sixteen!")
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Usage.InputTokens)
	assert.Equal(t, 2, resp.Usage.OutputTokens)
}
