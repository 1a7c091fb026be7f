package conf

import "testing"

func TestLookup(t *testing.T) {
	type endpoint struct{ Host string }
	data := map[string]any{
		"db": map[string]any{
			"primary": map[string]any{"host": "db1", "port": 5432},
			"replicas": []any{
				map[string]any{"host": "r1"},
				map[string]any{"host": "r2"},
			},
			"nothing": nil,
		},
		"labels":   map[string]string{"team": "core"},
		"ports":    []int{80, 443},
		"name":     "svc",
		"disabled": false,
		"endpoint": endpoint{Host: "struct"},
		"pointer":  &map[string]any{"inner": 1},
	}

	tests := []struct {
		key   string
		value any
		found bool
	}{
		{key: "name", value: "svc", found: true},
		{key: "db.primary.host", value: "db1", found: true},
		{key: "db.primary.port", value: 5432, found: true},
		{key: "db.replicas.1.host", value: "r2", found: true},
		{key: "db.replicas.2.host"},
		{key: "db.replicas.-1.host"},
		{key: "labels.team", value: "core", found: true},
		{key: "ports.0", value: 80, found: true},
		{key: "disabled", value: false, found: true},
		{key: "db.nothing", value: nil, found: true},
		{key: "db.nothing.deeper"},
		{key: "name.length"},
		{key: "db.missing"},
		{key: "endpoint.Host"},
		{key: "pointer.inner", value: 1, found: true},
		{key: ""},
		{key: "db."},
		{key: ".db"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			value, found := Lookup(tt.key, data)
			if found != tt.found {
				t.Fatalf("expected found=%v, got %v (value %v)", tt.found, found, value)
			}
			if found && value != tt.value {
				t.Fatalf("expected %v, got %v", tt.value, value)
			}
		})
	}
}

func TestLookupWholeSubtree(t *testing.T) {
	inner := map[string]any{"host": "h"}
	value, ok := Lookup("db", map[string]any{"db": inner})
	if !ok {
		t.Fatalf("expected subtree to be found")
	}
	if got, _ := value.(map[string]any); got["host"] != "h" {
		t.Fatalf("unexpected subtree %v", value)
	}
}

func TestLookupNonMapRoot(t *testing.T) {
	for _, root := range []any{nil, "scalar", 42} {
		if _, ok := Lookup("a", root); ok {
			t.Fatalf("expected %v root to yield absent", root)
		}
	}
}
