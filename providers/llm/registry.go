package llm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/modelmux/modelmux/config"
)

// ErrUnknownAPIType is returned by New when no adapter has registered for
// the requested api_type. Check with errors.Is.
var ErrUnknownAPIType = errors.New("no provider registered for api_type")

// Factory constructs a Provider from its configuration. Construction must
// fail fast (bad model name, malformed proxy) before any network call.
type Factory func(cfg *config.LLMConfig) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[config.APIType]Factory{}
)

// Register maps an api_type to a provider factory. Adapter packages call it
// from init, so importing an adapter package is what makes its api_type
// resolvable. Registering the same type twice is a programming error and
// panics.
func Register(apiType config.APIType, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[apiType]; exists {
		panic(fmt.Sprintf("llm: provider already registered for api_type %q", apiType))
	}
	registry[apiType] = factory
}

// New resolves cfg.APIType through the registry and constructs the matching
// provider.
func New(cfg *config.LLMConfig) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[cfg.APIType]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAPIType, cfg.APIType)
	}
	return factory(cfg)
}

// RegisteredTypes returns the api_type values with a registered factory,
// for diagnostics and error messages.
func RegisteredTypes() []config.APIType {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]config.APIType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}
