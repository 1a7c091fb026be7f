package conf

import (
	"reflect"
	"sort"
	"strings"
)

// FlattenWithProvenance enumerates every leaf path contributed by any
// provider and resolves each one against the chain, returning the effective
// value and its origin sorted by path. Each provider's Data is read once.
// Empty maps and slices count as leaves.
func (c *Chain) FlattenWithProvenance() ([]Provenance, error) {
	if c == nil || len(c.links) == 0 {
		return nil, nil
	}

	snapshots := make([]map[string]any, len(c.links))
	seen := map[string]struct{}{}
	for i, l := range c.links {
		data, err := l.provider.Data()
		if err != nil {
			return nil, l.dataError(i, err)
		}
		snapshots[i] = data
		for _, path := range leafPaths(data, "") {
			seen[path] = struct{}{}
		}
	}

	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	metas := make(map[int]Meta, len(c.links))
	results := make([]Provenance, 0, len(paths))
	for _, path := range paths {
		for i, data := range snapshots {
			value, ok := Lookup(path, data)
			if !ok {
				continue
			}
			meta, cached := metas[i]
			if !cached {
				meta = c.links[i].provider.Meta()
				metas[i] = meta
			}
			results = append(results, Provenance{
				Position: i,
				Meta:     meta,
				Path:     path,
				Value:    value,
				Found:    true,
			})
			break
		}
	}
	return results, nil
}

func leafPaths(value any, prefix string) []string {
	rv := reflect.ValueOf(value)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			break
		}
		rv = rv.Elem()
	}

	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.Len() == 0 {
		if prefix == "" {
			return nil
		}
		return []string{prefix}
	}

	var paths []string
	iter := rv.MapRange()
	for iter.Next() {
		paths = append(paths, leafPaths(iter.Value().Interface(), joinPath(prefix, iter.Key().String()))...)
	}
	return paths
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, PathSeparator)
}
