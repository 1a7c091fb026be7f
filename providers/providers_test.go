package providers

import (
	"errors"
	"strings"
	"testing"

	conf "github.com/goliatone/go-conf"
	"github.com/google/go-cmp/cmp"
)

func newRegistry(t *testing.T, opts ...Option) *conf.Registry {
	t.Helper()
	registry := conf.NewRegistry()
	if err := Register(registry, opts...); err != nil {
		t.Fatalf("register providers: %v", err)
	}
	return registry
}

func newProvider(t *testing.T, registry *conf.Registry, store conf.Store) conf.Provider {
	t.Helper()
	provider, err := registry.New(store)
	if err != nil {
		t.Fatalf("new provider for %s: %v", store.Provider, err)
	}
	return provider
}

func mustData(t *testing.T, provider conf.Provider) map[string]any {
	t.Helper()
	data, err := provider.Data()
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	return data
}

func staticEnviron(vars ...string) Option {
	return WithEnviron(func() []string { return vars })
}

func TestRegisterInstallsEveryKind(t *testing.T) {
	registry := newRegistry(t)

	want := []string{"Argv", "Computed", "Defaults", "Env", "File", "Literal", "Memory", "Sqlite"}
	if diff := cmp.Diff(want, registry.Kinds()); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}

	err := Register(registry)
	if !errors.Is(err, conf.ErrDuplicateKind) {
		t.Fatalf("expected duplicate kind error, got %v", err)
	}
	if err := Register(nil); err == nil {
		t.Fatalf("expected error for nil registry")
	}
}

func TestMemoryProviderKinds(t *testing.T) {
	registry := newRegistry(t)
	data := map[string]any{"server": map[string]any{"port": 8080}}

	for _, kind := range []string{KindMemory, KindLiteral, KindDefaults, "LITERAL"} {
		t.Run(kind, func(t *testing.T) {
			provider := newProvider(t, registry, conf.Store{Provider: kind, Settings: map[string]any{"data": data}})
			if diff := cmp.Diff(data, mustData(t, provider)); diff != "" {
				t.Fatalf("data mismatch (-want +got):\n%s", diff)
			}
			if got := provider.Meta().Provider; got != conf.NormalizeKind(kind) {
				t.Fatalf("unexpected meta provider %q", got)
			}
		})
	}
}

func TestMemoryProviderClonesData(t *testing.T) {
	registry := newRegistry(t)
	data := map[string]any{"nested": map[string]any{"flag": true}}
	provider := newProvider(t, registry, MemoryStore("defaults", data))

	data["nested"].(map[string]any)["flag"] = false

	value, ok := conf.Lookup("nested.flag", mustData(t, provider))
	if !ok || value != true {
		t.Fatalf("expected cloned value true, got %v (found=%v)", value, ok)
	}
}

func TestMemoryProviderRejectsNonMapData(t *testing.T) {
	registry := newRegistry(t)
	_, err := registry.New(conf.Store{Provider: KindMemory, Settings: map[string]any{"data": []int{1}}})
	if !errors.Is(err, conf.ErrInvalidStore) {
		t.Fatalf("expected invalid store, got %v", err)
	}
}

func TestUnknownSettingsAreRejected(t *testing.T) {
	registry := newRegistry(t, staticEnviron("APP_PORT=80"))

	tests := []struct {
		name  string
		store conf.Store
	}{
		{name: "env", store: conf.Store{Provider: KindEnv, Settings: map[string]any{"prefx": "APP_"}}},
		{name: "argv", store: conf.Store{Provider: KindArgv, Settings: map[string]any{"args": []string{}, "argz": []string{"--a=1"}}}},
		{name: "file", store: conf.Store{Provider: KindFile, Settings: map[string]any{"path": "app.yaml", "optinal": true}}},
		{name: "memory", store: conf.Store{Provider: KindMemory, Settings: map[string]any{"data": map[string]any{}, "dta": 1}}},
		{name: "computed", store: conf.Store{Provider: KindComputed, Settings: map[string]any{"values": map[string]any{"a": "1"}, "engin": "cel"}}},
		{name: "sqlite", store: conf.Store{Provider: KindSQLite, Settings: map[string]any{"dsn": ":memory:", "tabel": "settings"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.New(tt.store)
			if !errors.Is(err, conf.ErrInvalidStore) {
				t.Fatalf("expected invalid store, got %v", err)
			}
			if !strings.Contains(err.Error(), "unknown field") {
				t.Fatalf("expected unknown field in error, got %v", err)
			}
		})
	}

	if _, err := registry.New(EnvStore("env", "APP_")); err != nil {
		t.Fatalf("declared settings must still decode: %v", err)
	}
}

func TestDefaultsStoreDescriptor(t *testing.T) {
	store := DefaultsStore(map[string]any{"a": 1})
	if store.Provider != KindDefaults || store.Name != KindDefaults {
		t.Fatalf("unexpected defaults store %+v", store)
	}
}

func TestStandardChainWithProviders(t *testing.T) {
	registry := newRegistry(t, staticEnviron("APP_SERVER__PORT=9090", "APP_SERVER__HOST=env-host"))

	chain, err := conf.StandardChain(registry,
		ArgvStore("", []string{"--server.host=cli-host"}),
		EnvStore("", "APP_"),
		conf.Store{},
		DefaultsStore(map[string]any{"server": map[string]any{"host": "localhost", "port": 80, "tls": false}}),
	)
	if err != nil {
		t.Fatalf("standard chain: %v", err)
	}

	tests := []struct {
		key      string
		value    any
		provider string
		label    string
	}{
		{key: "server.host", value: "cli-host", provider: "Argv", label: "Command Line"},
		{key: "server.port", value: "9090", provider: "Env", label: "Environment"},
		{key: "server.tls", value: false, provider: "Defaults", label: "Defaults"},
	}
	for _, tt := range tests {
		resolved, err := chain.GetWithMeta(tt.key)
		if err != nil {
			t.Fatalf("get %s: %v", tt.key, err)
		}
		if !resolved.Found || resolved.Value != tt.value || resolved.Meta.Provider != tt.provider {
			t.Fatalf("%s: expected %v from %s, got %+v", tt.key, tt.value, tt.provider, resolved)
		}
		if got := resolved.Meta.ScopeLabel(); got != tt.label {
			t.Fatalf("%s: expected scope label %q, got %q", tt.key, tt.label, got)
		}
	}
}
