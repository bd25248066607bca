package providers

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ProviderConstructor builds a provider for one credential and base URL. An
// empty endpoint selects the vendor default.
type ProviderConstructor func(apiKey, endpoint string) Provider

type ProviderRegistry struct {
	mu           sync.RWMutex
	constructors map[string]ProviderConstructor
}

func knownProviders() map[string]ProviderConstructor {
	return map[string]ProviderConstructor{
		"openai-completions": func(apiKey, endpoint string) Provider {
			return NewCompletionsProvider(apiKey, endpoint)
		},
		"openai": func(apiKey, endpoint string) Provider {
			return NewOpenAIProvider(apiKey, endpoint)
		},
		"ollama": func(apiKey, endpoint string) Provider {
			return NewOllamaProvider(apiKey, endpoint)
		},
		"mock": func(apiKey, endpoint string) Provider {
			return NewMockProvider(apiKey, endpoint)
		},
	}
}

// keyless providers never need a credential.
var keyless = map[string]bool{
	"ollama": true,
	"mock":   true,
}

// NewProviderRegistry returns a registry holding the named built-in
// providers, or all of them when no names are given.
func NewProviderRegistry(providerNames ...string) *ProviderRegistry {
	known := knownProviders()
	r := &ProviderRegistry{constructors: make(map[string]ProviderConstructor)}
	if len(providerNames) == 0 {
		r.constructors = known
		return r
	}
	for _, name := range providerNames {
		if c, ok := known[normalize(name)]; ok {
			r.constructors[normalize(name)] = c
		}
	}
	return r
}

var (
	defaultRegistry     *ProviderRegistry
	defaultRegistryOnce sync.Once
)

func GetDefaultRegistry() *ProviderRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewProviderRegistry()
	})
	return defaultRegistry
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds or replaces a constructor.
func (r *ProviderRegistry) Register(name string, constructor ProviderConstructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[normalize(name)] = constructor
}

func (r *ProviderRegistry) Get(name, apiKey, endpoint string) (Provider, error) {
	r.mu.RLock()
	constructor, ok := r.constructors[normalize(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (registered: %s)", name, strings.Join(r.Names(), ", "))
	}
	return constructor(apiKey, endpoint), nil
}

// Names lists registered providers, sorted.
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *ProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.constructors[normalize(name)]
	return ok
}

// RequiresKey reports whether requests to name must carry a credential.
func RequiresKey(name string) bool {
	return !keyless[normalize(name)]
}

func IsKnownProvider(name string) bool {
	_, ok := knownProviders()[normalize(name)]
	return ok
}
