package providers

import (
	"fmt"
	"sync"
)

// Registry manages the registration and retrieval of providers.
// It is safe for concurrent use.
type Registry struct {
	constructors map[string]Constructor
	mutex        sync.RWMutex
}

// NewRegistry creates a registry pre-populated with the known providers.
func NewRegistry() *Registry {
	r := &Registry{
		constructors: make(map[string]Constructor),
	}
	r.Register("openai", func(apiKey, model string) Provider {
		return NewOpenAIProvider(apiKey, model)
	})
	r.Register("mock", func(apiKey, model string) Provider {
		return NewMockProvider(model)
	})
	return r
}

// Register adds or replaces a provider constructor.
func (r *Registry) Register(name string, constructor Constructor) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.constructors[name] = constructor
}

// Get builds a provider by name.
func (r *Registry) Get(name, apiKey, model string) (Provider, error) {
	r.mutex.RLock()
	constructor, ok := r.constructors[name]
	r.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return constructor(apiKey, model), nil
}
