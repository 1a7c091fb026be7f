package conf

import (
	"context"
	"math"
	"slices"

	"github.com/goliatone/go-conf/pkg/activity"
)

// Chain is an ordered list of providers. Index 0 is consulted first and
// shadows every later provider for the keys it defines. The order changes
// only through AddStore, InsertStore and ReplaceStore; no deduplication is
// performed.
//
// A Chain is not safe for mutation concurrent with reads. Hosts that need
// concurrent access serialize mutations or swap in a mutated Clone.
type Chain struct {
	registry *Registry
	links    []link
	cfg      chainConfig
	emitter  *activity.Emitter
}

// link is one position in the chain: the converted provider and the
// normalized kind it was built from.
type link struct {
	provider Provider
	kind     string
}

// New constructs an empty chain that converts stores with registry.
func New(registry *Registry, opts ...Option) *Chain {
	if registry == nil {
		registry = NewRegistry()
	}
	cfg := applyOptions(opts)
	return &Chain{
		registry: registry,
		cfg:      cfg,
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{
			Enabled: len(cfg.activityHooks) > 0,
			Channel: cfg.activityChannel,
		}),
	}
}

// AddStore converts store and places it at the front of the chain, above
// every existing provider. It is InsertStore with priority 0.
func (c *Chain) AddStore(store Store) error {
	return c.InsertStore(store, 0)
}

// InsertStore converts store and inserts it at priority, shifting the
// provider previously at that index and every later one down by one.
// Priorities past the end append. Negative priorities are clamped to 0 and
// insert at the front; unlike ReplaceStore they never count from the end.
func (c *Chain) InsertStore(store Store, priority int) error {
	provider, err := c.registry.New(store)
	if err != nil {
		return err
	}
	c.insert(provider, store, priority)
	return nil
}

func (c *Chain) insert(provider Provider, store Store, priority int) {
	index := min(max(priority, 0), len(c.links))
	c.links = slices.Insert(c.links, index, link{provider: provider, kind: NormalizeKind(store.Provider)})
	c.emit(activity.BuildStoreAddedEvent, store, index)
}

// ReplaceStore converts store and substitutes it for the provider at
// position, reporting whether a replacement happened.
//
// Replacement is lenient: a position that is not a number, not an integer,
// or outside the current bounds is ignored and (false, nil) is returned. A
// negative position counts from the end, so -1 is the last provider.
// ReplaceStore never grows the chain. Conversion errors are still returned,
// even when the position would have been ignored.
func (c *Chain) ReplaceStore(store Store, position any) (bool, error) {
	provider, err := c.registry.New(store)
	if err != nil {
		return false, err
	}
	index, ok := positionIndex(position)
	if !ok {
		return false, nil
	}
	if index < 0 {
		index = max(0, len(c.links)+index)
	}
	if index >= len(c.links) {
		return false, nil
	}
	c.links[index] = link{provider: provider, kind: NormalizeKind(store.Provider)}
	c.emit(activity.BuildStoreReplacedEvent, store, index)
	return true, nil
}

// Len returns the number of providers in the chain.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.links)
}

// Providers returns a copy of the providers in lookup order.
func (c *Chain) Providers() []Provider {
	if c == nil || len(c.links) == 0 {
		return nil
	}
	providers := make([]Provider, len(c.links))
	for i, l := range c.links {
		providers[i] = l.provider
	}
	return providers
}

// Clone returns a chain sharing the registry, options and provider
// instances but with its own ordering, so mutations on either side are not
// observed by the other.
func (c *Chain) Clone() *Chain {
	if c == nil {
		return nil
	}
	return &Chain{
		registry: c.registry,
		links:    slices.Clone(c.links),
		cfg:      c.cfg,
		emitter:  c.emitter,
	}
}

// Registry returns the registry consulted by the chain.
func (c *Chain) Registry() *Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Chain) emit(build func(activity.StoreEventInput) activity.Event, store Store, index int) {
	if !c.emitter.Enabled() {
		return
	}
	event := build(activity.StoreEventInput{
		Provider: NormalizeKind(store.Provider),
		Name:     store.Name,
		Position: index,
		Length:   len(c.links),
	})
	// Hook failures never undo a mutation that already happened.
	_ = c.emitter.Emit(context.Background(), event)
}

func positionIndex(position any) (int, bool) {
	switch v := position.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		if v > math.MaxInt || v < math.MinInt {
			return 0, false
		}
		return int(v), true
	case uint:
		if v > math.MaxInt {
			return 0, false
		}
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		if v > math.MaxInt {
			return 0, false
		}
		return int(v), true
	case float32:
		return floatIndex(float64(v))
	case float64:
		return floatIndex(v)
	default:
		return 0, false
	}
}

func floatIndex(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	// float64(math.MaxInt) rounds up to 2^63 on 64-bit platforms.
	if v >= float64(math.MaxInt) || v < float64(math.MinInt) {
		return 0, false
	}
	return int(v), true
}
