package providers

import (
	"fmt"

	conf "github.com/goliatone/go-conf"
	"github.com/goliatone/go-conf/layering"
)

// MemoryStore describes a store holding data in memory. data is cloned when
// the store is added to a chain.
func MemoryStore(name string, data map[string]any) conf.Store {
	return conf.Store{
		Provider: KindMemory,
		Name:     name,
		Settings: map[string]any{"data": data},
	}
}

// DefaultsStore is MemoryStore registered under the defaults kind.
func DefaultsStore(data map[string]any) conf.Store {
	store := MemoryStore(KindDefaults, data)
	store.Provider = KindDefaults
	return store
}

type memoryProvider struct {
	data map[string]any
	meta conf.Meta
}

func newMemoryProvider(store conf.Store) (conf.Provider, error) {
	if _, err := decodeSettings[struct{}](store, nil, []string{"data"}); err != nil {
		return nil, err
	}
	raw, _ := store.Setting("data")
	data, err := asMap(raw)
	if err != nil {
		return nil, fmt.Errorf("providers: memory data: %w", err)
	}
	return &memoryProvider{
		data: layering.Clone(data),
		meta: conf.NewMeta(store, ""),
	}, nil
}

func (p *memoryProvider) Data() (map[string]any, error) {
	return p.data, nil
}

func (p *memoryProvider) Meta() conf.Meta {
	return p.meta
}

func asMap(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case map[string]string:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[key] = value
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a map, got %T", raw)
	}
}
