package eval

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrInvalidFunctionName indicates a name that cannot be used as an
	// identifier inside expressions.
	ErrInvalidFunctionName = errors.New("eval: invalid function name")
	// ErrFunctionExists indicates a name registered twice.
	ErrFunctionExists = errors.New("eval: function already registered")
	// ErrFunctionNotFound indicates a call to an unknown function.
	ErrFunctionNotFound = errors.New("eval: function not registered")
)

var functionNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// reservedFunctionNames collide with bindings every engine provides.
var reservedFunctionNames = map[string]struct{}{
	"call": {},
	"env":  {},
	"now":  {},
	"vars": {},
}

// Function is a host callback exposed to computed values.
type Function func(args ...any) (any, error)

// FunctionRegistry holds host callbacks keyed by lower-cased name. It is
// cloned when handed to an evaluator, so later registrations do not leak
// into evaluators that already exist.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: map[string]Function{}}
}

// Register adds fn under name. Names are case-insensitive identifiers and
// must not shadow the call, env, now or vars bindings.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if !functionNamePattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidFunctionName, name)
	}
	if _, reserved := reservedFunctionNames[key]; reserved {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidFunctionName, name)
	}
	if fn == nil {
		return fmt.Errorf("eval: function %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = map[string]Function{}
	}
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("%w: %q", ErrFunctionExists, key)
	}
	r.functions[key] = fn
	return nil
}

// Clone returns a registry holding the same functions.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{functions: make(map[string]Function, len(r.functions))}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Call runs the function registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	var fn Function
	if r != nil {
		r.mu.RLock()
		fn = r.functions[strings.ToLower(name)]
		r.mu.RUnlock()
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
	}
	return fn(args...)
}

// Names returns the registered names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
