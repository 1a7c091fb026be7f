package conf

import (
	"fmt"
	"time"
)

// Get returns the value of the first provider defining key, or nil when no
// provider does. Use GetWithMeta to tell an absent key from an explicit nil.
func (c *Chain) Get(key string) (any, error) {
	resolved, err := c.GetWithMeta(key)
	if err != nil {
		return nil, err
	}
	return resolved.Value, nil
}

// GetWithMeta walks the chain in order and returns the first value found at
// key together with the metadata of the provider that supplied it. Later
// providers are not consulted once a value is found, and Meta is requested
// only from the supplying provider. An error from a provider's Data stops
// the walk and is returned wrapped.
func (c *Chain) GetWithMeta(key string) (Resolved, error) {
	start := time.Now()
	resolved, err := c.resolve(key)
	c.resolutionLogger().LogResolution(ResolutionEvent{
		Key:      key,
		Found:    resolved.Found,
		Position: resolved.Position,
		Meta:     resolved.Meta,
		Duration: time.Since(start),
		Err:      err,
	})
	return resolved, err
}

func (c *Chain) resolve(key string) (Resolved, error) {
	if c == nil || key == "" {
		return absent(), nil
	}
	for i, l := range c.links {
		data, err := l.provider.Data()
		if err != nil {
			return absent(), l.dataError(i, err)
		}
		value, ok := Lookup(key, data)
		if !ok {
			continue
		}
		return Resolved{
			Value:    value,
			Meta:     l.provider.Meta(),
			Found:    true,
			Position: i,
		}, nil
	}
	return absent(), nil
}

func (l link) dataError(position int, err error) error {
	return fmt.Errorf("conf: provider %s at position %d: %w", l.kind, position, err)
}
