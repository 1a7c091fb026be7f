package providers

import (
	"errors"
	"fmt"
	"sort"

	"github.com/caarlos0/env/v11"
	conf "github.com/goliatone/go-conf"
	"github.com/goliatone/go-conf/eval"
	"github.com/goliatone/go-conf/layering"
)

// ComputedStore describes a store whose values are expressions evaluated by
// engine ("expr", "cel" or "js"). values maps dotted paths to expressions;
// vars are visible to every expression.
func ComputedStore(name, engine string, values map[string]string, vars map[string]any) conf.Store {
	exprs := make(map[string]any, len(values))
	for path, expression := range values {
		exprs[path] = expression
	}
	settings := map[string]any{"engine": engine, "values": exprs}
	if len(vars) > 0 {
		settings["vars"] = vars
	}
	return conf.Store{Provider: KindComputed, Name: name, Settings: settings}
}

type computedSettings struct {
	Engine string            `json:"engine"`
	Values map[string]string `json:"values"`
}

type computedRule struct {
	path string
	rule eval.CompiledRule
}

type computedProvider struct {
	rules   []computedRule
	vars    map[string]any
	environ func() []string
	meta    conf.Meta
}

// newComputedProvider compiles every expression up front against the declared
// vars, so syntax errors and (for CEL) undeclared references surface when the
// store is added.
func (cfg config) newComputedProvider(store conf.Store) (conf.Provider, error) {
	settings, err := decodeSettings(store, func(s *computedSettings) {
		if s.Engine == "" {
			s.Engine = eval.EngineExpr
		}
	}, []string{"vars"})
	if err != nil {
		return nil, err
	}
	if len(settings.Values) == 0 {
		return nil, errors.New("providers: computed store requires values")
	}

	rawVars, _ := store.Setting("vars")
	vars, err := asMap(rawVars)
	if err != nil {
		return nil, fmt.Errorf("providers: computed vars: %w", err)
	}

	var evalOpts []eval.Option
	if cfg.functions != nil {
		evalOpts = append(evalOpts, eval.WithFunctionRegistry(cfg.functions))
	}
	evaluator, err := eval.New(settings.Engine, evalOpts...)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(settings.Values))
	for path := range settings.Values {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	rules := make([]computedRule, 0, len(paths))
	for _, path := range paths {
		rule, err := evaluator.Compile(settings.Values[path], names...)
		if err != nil {
			return nil, fmt.Errorf("providers: compile %q: %w", path, err)
		}
		rules = append(rules, computedRule{path: path, rule: rule})
	}

	return &computedProvider{
		rules:   rules,
		vars:    layering.Clone(vars),
		environ: cfg.environ,
		meta:    conf.NewMeta(store, settings.Engine),
	}, nil
}

// Data evaluates every expression against the current environment and time.
func (p *computedProvider) Data() (map[string]any, error) {
	ctx := eval.Context{
		Vars: p.vars,
		Env:  env.ToMap(p.environ()),
	}
	flat := make(map[string]any, len(p.rules))
	for _, entry := range p.rules {
		value, err := entry.rule.Evaluate(ctx)
		if err != nil {
			return nil, fmt.Errorf("providers: evaluate %q: %w", entry.path, err)
		}
		flat[entry.path] = value
	}
	return layering.Expand(flat, conf.PathSeparator), nil
}

func (p *computedProvider) Meta() conf.Meta {
	return p.meta
}
