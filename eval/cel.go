package eval

import (
	"reflect"
	"sort"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// celEvaluator executes expressions using github.com/google/cel-go. CEL
// requires every identifier to be declared before checking: Compile declares
// the names it is given and Evaluate declares the names present in the
// evaluation context.
type celEvaluator struct {
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...Option) Evaluator {
	cfg := applyOptions(opts)
	return &celEvaluator{registry: cfg.registry}
}

func (e *celEvaluator) Evaluate(ctx Context, expression string) (any, error) {
	ctx = ctx.withDefaults()
	names := make([]string, 0, len(ctx.Vars))
	for name := range ctx.Vars {
		names = append(names, name)
	}
	program, err := e.compile(expression, names)
	if err != nil {
		return nil, err
	}
	return runCEL(program, expression, ctx)
}

// Compile type-checks expression against the built-in bindings plus vars and
// keeps the resulting program, so undeclared references fail here rather
// than on evaluation.
func (e *celEvaluator) Compile(expression string, vars ...string) (CompiledRule, error) {
	program, err := e.compile(expression, vars)
	if err != nil {
		return nil, err
	}
	return &celCompiledRule{
		program:    program,
		expression: expression,
	}, nil
}

func (e *celEvaluator) compile(expression string, vars []string) (celgo.Program, error) {
	if expression == "" {
		return nil, wrapEvaluationError(EngineCEL, expression, errEmptyExpression)
	}
	env, err := e.buildEnv(vars)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, err)
	}
	return program, nil
}

func runCEL(program celgo.Program, expression string, ctx Context) (any, error) {
	out, _, err := program.Eval(ctx.bindings())
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) buildEnv(vars []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("env", celgo.MapType(celgo.StringType, celgo.StringType)),
		celgo.Variable("vars", celgo.MapType(celgo.StringType, celgo.DynType)),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(e.callBinding),
			),
		))
	}
	seen := map[string]struct{}{"now": {}, "env": {}, "vars": {}}
	names := make([]string, 0, len(vars))
	for _, name := range vars {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) callBinding(nameVal, argsVal ref.Val) ref.Val {
	name, ok := nameVal.Value().(string)
	if !ok {
		return types.NewErr("eval: call name must be string")
	}
	native, err := argsVal.ConvertToNative(reflect.TypeOf([]any{}))
	if err != nil {
		return types.NewErr("eval: call arguments: %v", err)
	}
	args, _ := native.([]any)
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celCompiledRule struct {
	program    celgo.Program
	expression string
}

func (r *celCompiledRule) Evaluate(ctx Context) (any, error) {
	return runCEL(r.program, r.expression, ctx.withDefaults())
}
