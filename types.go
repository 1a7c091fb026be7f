package conf

import (
	"fmt"

	"github.com/google/uuid"
)

// Store describes a configuration source handed to a Chain. Provider is the
// discriminator used to pick the adapter variant from a Registry; Settings
// carries kind-specific fields that only that variant reads. A Store should
// not be mutated once it has been added to a chain.
type Store struct {
	Provider string
	Name     string
	Settings map[string]any
}

// Setting returns the raw kind-specific value stored under key.
func (s Store) Setting(key string) (any, bool) {
	if s.Settings == nil {
		return nil, false
	}
	value, ok := s.Settings[key]
	return value, ok
}

func (s Store) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Provider
}

// Provider is the uniform view of a store consulted by a Chain.
//
// Data returns the nested snapshot the store currently contributes; it may
// be called any number of times and must reflect the store's view at call
// time. Meta identifies the store for provenance reporting and is only
// requested from the provider that supplied a resolved value.
type Provider interface {
	Data() (map[string]any, error)
	Meta() Meta
}

// Factory builds a Provider from a Store descriptor.
type Factory func(store Store) (Provider, error)

// Meta is the provenance record attached to a resolved value.
type Meta struct {
	// ID is unique per provider instance; adding the same store twice yields
	// two different IDs.
	ID       string         `json:"id"`
	Provider string         `json:"provider"`
	Name     string         `json:"name,omitempty"`
	Source   string         `json:"source,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// NewMeta returns the metadata for a provider built from store. source is a
// kind-specific locator such as a file path or an environment prefix.
func NewMeta(store Store, source string) Meta {
	return Meta{
		ID:       uuid.NewString(),
		Provider: NormalizeKind(store.Provider),
		Name:     store.Name,
		Source:   source,
	}
}

// IsZero reports whether m carries no provenance.
func (m Meta) IsZero() bool {
	return m.ID == "" && m.Provider == "" && m.Name == "" && m.Source == "" && len(m.Extra) == 0
}

func (m Meta) String() string {
	if m.IsZero() {
		return "<none>"
	}
	label := m.Provider
	if m.Name != "" {
		label = fmt.Sprintf("%s[%s]", label, m.Name)
	}
	if m.Source != "" {
		label = fmt.Sprintf("%s(%s)", label, m.Source)
	}
	return label
}

// Resolved pairs a value with the metadata of the provider that supplied it.
// Found distinguishes an absent key from an explicit nil, false, 0 or "".
type Resolved struct {
	Value    any
	Meta     Meta
	Found    bool
	Position int
}

func absent() Resolved {
	return Resolved{Position: -1}
}
