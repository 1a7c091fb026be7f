package conf

import (
	"reflect"
	"strconv"
	"strings"
)

// PathSeparator splits a dotted key into segments.
const PathSeparator = "."

// Lookup descends data along the dotted key and reports whether a value is
// present at that path. A present nil, false, 0 or "" is returned with
// ok=true. An empty key, a missing segment or an intermediate value that
// cannot be descended into (a scalar, nil) all yield ok=false; lookups never
// fail.
//
// Maps with string keys are traversed by key. Slices and arrays are traversed
// when the segment is a non-negative decimal index.
func Lookup(key string, data any) (any, bool) {
	if key == "" {
		return nil, false
	}
	current := data
	for _, segment := range strings.Split(key, PathSeparator) {
		next, ok := child(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func child(node any, segment string) (any, bool) {
	switch typed := node.(type) {
	case nil:
		return nil, false
	case map[string]any:
		value, ok := typed[segment]
		return value, ok
	case []any:
		index, ok := sliceIndex(segment, len(typed))
		if !ok {
			return nil, false
		}
		return typed[index], true
	}
	return reflectChild(reflect.ValueOf(node), segment)
}

func reflectChild(rv reflect.Value, segment string) (any, bool) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
			return nil, false
		}
		value := rv.MapIndex(reflect.ValueOf(segment).Convert(rv.Type().Key()))
		if !value.IsValid() {
			return nil, false
		}
		return value.Interface(), true
	case reflect.Slice, reflect.Array:
		index, ok := sliceIndex(segment, rv.Len())
		if !ok {
			return nil, false
		}
		return rv.Index(index).Interface(), true
	default:
		return nil, false
	}
}

func sliceIndex(segment string, length int) (int, bool) {
	if segment == "" || strings.TrimLeft(segment, "0123456789") != "" {
		return 0, false
	}
	index, err := strconv.Atoi(segment)
	if err != nil || index >= length {
		return 0, false
	}
	return index, true
}
