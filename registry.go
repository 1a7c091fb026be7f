package conf

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Registry maps provider kinds to the factories that build them. Kinds are
// normalized with NormalizeKind so "file", "FILE" and "File" are the same
// entry. A Registry is built by the caller and passed to New; the chain only
// consults it.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// NormalizeKind returns the canonical capitalized form of a provider kind.
func NormalizeKind(kind string) string {
	trimmed := strings.TrimSpace(kind)
	if trimmed == "" {
		return ""
	}
	return cases.Title(language.Und).String(trimmed)
}

// Register stores factory under kind guarding against duplicates.
func (r *Registry) Register(kind string, factory Factory) error {
	name := NormalizeKind(kind)
	if name == "" {
		return ErrEmptyKind
	}
	if factory == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, name)
	}
	r.factories[name] = factory
	return nil
}

// Lookup returns the factory registered for kind.
func (r *Registry) Lookup(kind string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[NormalizeKind(kind)]
	return factory, ok
}

// Kinds returns the registered kinds sorted alphabetically.
func (r *Registry) Kinds() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Clone returns a registry holding the same factories.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return NewRegistry()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &Registry{factories: make(map[string]Factory, len(r.factories))}
	for kind, factory := range r.factories {
		clone.factories[kind] = factory
	}
	return clone
}

// New converts store into a Provider using the factory registered for its
// kind. An unregistered kind yields a ConfigurationError of kind
// UnknownProviderKind; a factory failure yields InvalidStore.
func (r *Registry) New(store Store) (Provider, error) {
	kind := NormalizeKind(store.Provider)
	factory, ok := r.Lookup(kind)
	if !ok {
		return nil, &ConfigurationError{
			Kind:     UnknownProviderKind,
			Provider: kind,
			Store:    store.Name,
			Err:      ErrUnknownProviderKind,
		}
	}
	provider, err := factory(store)
	if err != nil {
		return nil, wrapStoreError(kind, store.Name, err)
	}
	if provider == nil {
		return nil, wrapStoreError(kind, store.Name, fmt.Errorf("factory returned nil provider"))
	}
	return provider, nil
}
