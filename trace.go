package conf

import (
	"encoding/json"
)

// Trace captures how every provider in a chain answered a single path
// lookup, strongest first.
type Trace struct {
	Path   string       `json:"path"`
	Value  any          `json:"value,omitempty"`
	Found  bool         `json:"found"`
	Layers []Provenance `json:"layers"`
}

// Provenance details how one provider contributed to a traced path.
type Provenance struct {
	Position int    `json:"position"`
	Meta     Meta   `json:"meta"`
	Path     string `json:"path"`
	Value    any    `json:"value,omitempty"`
	Found    bool   `json:"found"`
}

// Winner returns the provenance of the provider that supplies the effective
// value, which is the first layer that found the path.
func (t Trace) Winner() (Provenance, bool) {
	for _, layer := range t.Layers {
		if layer.Found {
			return layer, true
		}
	}
	return Provenance{}, false
}

// ResolveWithTrace looks key up in every provider without stopping at the
// first hit, so shadowed values are visible. Unlike GetWithMeta it requests
// Meta from every provider. The effective value matches GetWithMeta.
func (c *Chain) ResolveWithTrace(key string) (Trace, error) {
	trace := Trace{Path: key, Layers: []Provenance{}}
	if c == nil || key == "" {
		return trace, nil
	}
	for i, l := range c.links {
		data, err := l.provider.Data()
		if err != nil {
			return trace, l.dataError(i, err)
		}
		value, ok := Lookup(key, data)
		trace.Layers = append(trace.Layers, Provenance{
			Position: i,
			Meta:     l.provider.Meta(),
			Path:     key,
			Value:    value,
			Found:    ok,
		})
	}
	if winner, ok := trace.Winner(); ok {
		trace.Value = winner.Value
		trace.Found = true
	}
	return trace, nil
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
