package conf

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-conf/layering"
)

// Scope models a named precedence bucket (defaults, file, env, argv, etc.).
// Higher priority values represent stronger layers.
type Scope struct {
	Name     string
	Label    string
	Priority int
	Metadata map[string]any
}

// ScopeOption configures metadata on Scope creation.
type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	label    string
	metadata map[string]any
}

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.label = label
	}
}

// WithScopeMetadata attaches arbitrary metadata to the scope. The map is copied
// so the resulting Scope remains immutable even if the caller mutates their
// reference.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(cfg *scopeConfig) {
		if len(metadata) == 0 {
			return
		}
		cfg.metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope. Validation is deferred to NewStack.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	cfg := scopeConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return Scope{
		Name:     name,
		Label:    cfg.label,
		Priority: priority,
		Metadata: copyMetadata(cfg.metadata),
	}
}

func (s Scope) clone() Scope {
	return Scope{
		Name:     s.Name,
		Label:    s.Label,
		Priority: s.Priority,
		Metadata: copyMetadata(s.Metadata),
	}
}

// Layer pairs a scope with the store that backs it.
type Layer struct {
	Scope Scope
	Store Store
}

// NewLayer copies scope and store. A store without a name takes the scope
// name so provenance reports which scope supplied a value.
func NewLayer(scope Scope, store Store) Layer {
	layer := Layer{
		Scope: scope.clone(),
		Store: cloneStore(store),
	}
	if layer.Store.Name == "" {
		layer.Store.Name = scope.Name
	}
	return layer
}

var (
	// ErrScopeNameRequired indicates a missing scope name.
	ErrScopeNameRequired = errors.New("scope: name must be provided")
	// ErrDuplicateScopeName indicates NewStack received multiple layers with
	// the same scope name.
	ErrDuplicateScopeName = errors.New("scope: names must be unique")
	// ErrPriorityOrder indicates NewStack detected duplicate priorities.
	ErrPriorityOrder = errors.New("scope: priorities must be strictly ordered")
)

// Stack is an immutable set of scoped stores ordered from strongest to
// weakest precedence, ready to be turned into a Chain.
type Stack struct {
	layers []Layer
}

// NewStack validates and sorts the supplied layers so that the strongest
// scope (highest priority) is first.
func NewStack(layers ...Layer) (*Stack, error) {
	if len(layers) == 0 {
		return &Stack{}, nil
	}

	seenNames := make(map[string]struct{}, len(layers))
	copied := make([]Layer, len(layers))
	for i, layer := range layers {
		layer := cloneLayer(layer)
		if layer.Scope.Name == "" {
			return nil, ErrScopeNameRequired
		}
		if _, ok := seenNames[layer.Scope.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScopeName, layer.Scope.Name)
		}
		seenNames[layer.Scope.Name] = struct{}{}
		copied[i] = layer
	}

	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Scope.Priority > copied[j].Scope.Priority
	})

	for i := 1; i < len(copied); i++ {
		if copied[i-1].Scope.Priority <= copied[i].Scope.Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Scope.Priority)
		}
	}

	return &Stack{layers: copied}, nil
}

// Layers returns a copy of the layers, strongest first.
func (s *Stack) Layers() []Layer {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(s.layers))
	for i := range s.layers {
		out[i] = cloneLayer(s.layers[i])
	}
	return out
}

// Len returns the number of layers in the stack.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Build converts every layer with registry and returns a chain in stack
// order. The first conversion error aborts the build. Providers built here
// report their scope in Meta.Extra under the MetaScope* keys.
func (s *Stack) Build(registry *Registry, opts ...Option) (*Chain, error) {
	chain := New(registry, opts...)
	if s == nil {
		return chain, nil
	}
	for _, layer := range s.layers {
		provider, err := chain.registry.New(layer.Store)
		if err != nil {
			return nil, fmt.Errorf("scope: build %q: %w", layer.Scope.Name, err)
		}
		chain.insert(&scopedProvider{Provider: provider, scope: layer.Scope.clone()}, layer.Store, chain.Len())
	}
	return chain, nil
}

// Keys set in Meta.Extra by providers built from a Stack.
const (
	MetaScope         = "scope"
	MetaScopeLabel    = "scope_label"
	MetaScopePriority = "scope_priority"
	MetaScopeMetadata = "scope_metadata"
)

// scopedProvider decorates a provider with the scope it was built for.
type scopedProvider struct {
	Provider
	scope Scope
}

// Unwrap returns the provider built by the registry.
func (p *scopedProvider) Unwrap() Provider {
	return p.Provider
}

func (p *scopedProvider) Meta() Meta {
	meta := p.Provider.Meta()
	extra := make(map[string]any, len(meta.Extra)+4)
	for key, value := range meta.Extra {
		extra[key] = value
	}
	extra[MetaScope] = p.scope.Name
	extra[MetaScopePriority] = p.scope.Priority
	if p.scope.Label != "" {
		extra[MetaScopeLabel] = p.scope.Label
	}
	if len(p.scope.Metadata) > 0 {
		extra[MetaScopeMetadata] = copyMetadata(p.scope.Metadata)
	}
	meta.Extra = extra
	return meta
}

// ScopeLabel returns the label of the scope that supplied m, falling back to
// the scope name. It is empty for providers not built from a Stack.
func (m Meta) ScopeLabel() string {
	if label, ok := m.Extra[MetaScopeLabel].(string); ok && label != "" {
		return label
	}
	name, _ := m.Extra[MetaScope].(string)
	return name
}

func cloneLayer(layer Layer) Layer {
	return Layer{
		Scope: layer.Scope.clone(),
		Store: cloneStore(layer.Store),
	}
}

func cloneStore(store Store) Store {
	return Store{
		Provider: store.Provider,
		Name:     store.Name,
		Settings: layering.Clone(store.Settings),
	}
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
