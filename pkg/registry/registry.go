// Package registry resolves logical provider names from configuration into
// concrete backend connection settings. The registry is populated once at
// startup and is read-only afterwards, so it is safe to share across
// concurrent requests without locking.
package registry

import (
	"errors"
	"fmt"
)

// DefaultName is the sentinel provider/model name meaning "use the
// configured default". It is resolved at the registry boundary and never
// forwarded to a backend.
const DefaultName = "default"

// ErrNotFound is returned when a provider name is not configured.
var ErrNotFound = errors.New("provider not found")

// Provider holds the connection settings for one configured LLM backend.
type Provider struct {
	Name         string
	Kind         string
	APIEndpoint  string
	APIKey       string
	DefaultModel string
	Default      bool
}

// Registry is a read-only lookup over the configured providers.
type Registry struct {
	providers []Provider
	byName    map[string]Provider
	def       Provider
}

// New builds a Registry from the given providers. The default provider is
// the one marked Default, or the sole provider when only one is configured.
// Config validation guarantees exactly one default, but New re-checks so the
// registry never hands out an ambiguous provider.
func New(providers []Provider) (*Registry, error) {
	if len(providers) == 0 {
		return nil, errors.New("registry: no providers configured")
	}

	r := &Registry{
		providers: providers,
		byName:    make(map[string]Provider, len(providers)),
	}

	var defFound bool
	for _, p := range providers {
		r.byName[p.Name] = p
		if p.Default {
			if defFound {
				return nil, fmt.Errorf("registry: multiple providers marked default")
			}
			r.def = p
			defFound = true
		}
	}

	if !defFound {
		if len(providers) > 1 {
			return nil, errors.New("registry: no provider marked default")
		}
		r.def = providers[0]
	}

	return r, nil
}

// Resolve returns the provider with the given name. An empty name or the
// "default" sentinel resolves to the configured default provider. Unknown
// names fail with ErrNotFound.
func (r *Registry) Resolve(name string) (Provider, error) {
	if name == "" || name == DefaultName {
		return r.def, nil
	}

	p, ok := r.byName[name]
	if !ok {
		return Provider{}, fmt.Errorf("registry: %q: %w", name, ErrNotFound)
	}

	return p, nil
}

// Default returns the configured default provider.
func (r *Registry) Default() Provider { return r.def }

// List returns all providers in configuration order.
func (r *Registry) List() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// ResolveModel returns the concrete model identifier for a request. An empty
// or "default" requested model resolves to the provider's default model;
// anything else passes through unchanged. Validation of the resulting name
// is the backend's concern.
func ResolveModel(p Provider, requested string) string {
	if requested == "" || requested == DefaultName {
		return p.DefaultModel
	}

	return requested
}
