package conf

import (
	"errors"
	"testing"
)

const staticKind = "static"

var errStaticFactory = errors.New("static: factory failure")

// countingProvider records how often the chain consults it.
type countingProvider struct {
	data      map[string]any
	err       error
	meta      Meta
	dataCalls int
	metaCalls int
}

func (p *countingProvider) Data() (map[string]any, error) {
	p.dataCalls++
	if p.err != nil {
		return nil, p.err
	}
	return p.data, nil
}

func (p *countingProvider) Meta() Meta {
	p.metaCalls++
	return p.meta
}

func newStaticProvider(store Store) (Provider, error) {
	if fail, _ := store.Settings["fail"].(bool); fail {
		return nil, errStaticFactory
	}
	data, _ := store.Settings["data"].(map[string]any)
	provider := &countingProvider{data: data, meta: NewMeta(store, "test")}
	if err, ok := store.Settings["data_err"].(error); ok {
		provider.err = err
	}
	return provider, nil
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry()
	if err := registry.Register(staticKind, newStaticProvider); err != nil {
		t.Fatalf("register static provider: %v", err)
	}
	return registry
}

func staticStore(name string, data map[string]any) Store {
	return Store{Provider: staticKind, Name: name, Settings: map[string]any{"data": data}}
}

func mustAdd(t *testing.T, chain *Chain, stores ...Store) {
	t.Helper()
	for _, store := range stores {
		if err := chain.AddStore(store); err != nil {
			t.Fatalf("add store %q: %v", store.Name, err)
		}
	}
}

// unwrapCounting strips the scope decoration Stack.Build adds.
func unwrapCounting(provider Provider) *countingProvider {
	if scoped, ok := provider.(interface{ Unwrap() Provider }); ok {
		provider = scoped.Unwrap()
	}
	return provider.(*countingProvider)
}

func providerNames(chain *Chain) []string {
	providers := chain.Providers()
	names := make([]string, len(providers))
	for i, provider := range providers {
		names[i] = unwrapCounting(provider).meta.Name
	}
	return names
}

func counting(t *testing.T, chain *Chain, index int) *countingProvider {
	t.Helper()
	providers := chain.Providers()
	if index >= len(providers) {
		t.Fatalf("no provider at %d (len %d)", index, len(providers))
	}
	return unwrapCounting(providers[index])
}
