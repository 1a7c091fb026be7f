package eval

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Engine names accepted by New.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

var (
	// ErrUnknownEngine indicates New received an engine name it does not know.
	ErrUnknownEngine = errors.New("eval: unknown engine")
	// ErrEngineUnavailable indicates the engine exists but was not compiled in
	// (the js engine requires the js_eval build tag).
	ErrEngineUnavailable = errors.New("eval: engine not available in this build")
)

// Context carries the bindings visible to an expression.
type Context struct {
	// Vars are bound both as top-level identifiers and under "vars".
	Vars map[string]any
	// Env is bound under "env".
	Env map[string]string
	// Now is bound under "now"; defaults to time.Now().
	Now *time.Time
}

func (ctx Context) withDefaults() Context {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Vars == nil {
		ctx.Vars = map[string]any{}
	}
	if ctx.Env == nil {
		ctx.Env = map[string]string{}
	}
	return ctx
}

func (ctx Context) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

func (ctx Context) bindings() map[string]any {
	ctx = ctx.withDefaults()
	out := make(map[string]any, len(ctx.Vars)+3)
	for key, value := range ctx.Vars {
		out[key] = value
	}
	out["vars"] = ctx.Vars
	out["env"] = ctx.Env
	out["now"] = *ctx.Now
	return out
}

// Evaluator executes expressions against a Context.
type Evaluator interface {
	Evaluate(ctx Context, expr string) (any, error)
	// Compile prepares expr once. vars names the identifiers the rule will
	// see at evaluation time; engines that check declarations up front (CEL)
	// reject references to anything else here.
	Compile(expr string, vars ...string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx Context) (any, error)
}

// Option configures an evaluator.
type Option func(*config)

type config struct {
	registry *FunctionRegistry
}

// WithFunctionRegistry exposes the registry's functions to expressions, both
// by name and through call(name, args...).
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// New returns the evaluator registered for engine. An empty engine selects
// expr.
func New(engine string, opts ...Option) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(opts...), nil
	case EngineCEL:
		return NewCELEvaluator(opts...), nil
	case EngineJS:
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: %s", ErrEngineUnavailable, EngineJS)
		}
		return NewJSEvaluator(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}
