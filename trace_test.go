package conf

import (
	"errors"
	"testing"
)

func TestResolveWithTraceReportsShadowedLayers(t *testing.T) {
	chain := New(testRegistry(t))
	mustAdd(t, chain,
		staticStore("defaults", map[string]any{"db": map[string]any{"host": "localhost"}}),
		staticStore("file", map[string]any{"db": map[string]any{"port": 5432}}),
		staticStore("env", map[string]any{"db": map[string]any{"host": "env-host"}}),
	)

	trace, err := chain.ResolveWithTrace("db.host")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if !trace.Found || trace.Value != "env-host" {
		t.Fatalf("expected env-host to win, got %+v", trace)
	}
	if len(trace.Layers) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(trace.Layers))
	}

	want := []struct {
		name  string
		found bool
		value any
	}{
		{name: "env", found: true, value: "env-host"},
		{name: "file"},
		{name: "defaults", found: true, value: "localhost"},
	}
	for i, w := range want {
		layer := trace.Layers[i]
		if layer.Position != i || layer.Meta.Name != w.name || layer.Found != w.found || layer.Value != w.value {
			t.Fatalf("layer %d: expected %+v, got %+v", i, w, layer)
		}
	}

	winner, ok := trace.Winner()
	if !ok || winner.Meta.Name != "env" {
		t.Fatalf("unexpected winner %+v", winner)
	}

	resolved, err := chain.GetWithMeta("db.host")
	if err != nil || resolved.Value != trace.Value || resolved.Meta.ID != winner.Meta.ID {
		t.Fatalf("trace and GetWithMeta disagree: %+v vs %+v", resolved, winner)
	}
}

func TestResolveWithTraceMissingKey(t *testing.T) {
	chain := New(testRegistry(t))
	mustAdd(t, chain, staticStore("a", map[string]any{"x": 1}))

	trace, err := chain.ResolveWithTrace("y")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if trace.Found || trace.Value != nil || len(trace.Layers) != 1 {
		t.Fatalf("unexpected trace %+v", trace)
	}
	if _, ok := trace.Winner(); ok {
		t.Fatalf("expected no winner")
	}
}

func TestResolveWithTraceDataError(t *testing.T) {
	boom := errors.New("unreachable")
	chain := New(testRegistry(t))
	mustAdd(t, chain, Store{Provider: staticKind, Settings: map[string]any{"data_err": boom}})

	if _, err := chain.ResolveWithTrace("x"); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	chain := New(testRegistry(t))
	mustAdd(t, chain, staticStore("a", map[string]any{"name": "svc"}))

	trace, err := chain.ResolveWithTrace("name")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	decoded, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if decoded.Path != "name" || decoded.Value != "svc" || len(decoded.Layers) != 1 || decoded.Layers[0].Meta.ID != trace.Layers[0].Meta.ID {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}

	if _, err := TraceFromJSON([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}
