// Package providers contains the store variants understood by a conf
// Registry: in-memory literals, the process environment, command-line
// arguments, configuration files, SQLite key/value tables and computed
// expressions.
package providers

import (
	"errors"
	"os"

	conf "github.com/goliatone/go-conf"
	"github.com/goliatone/go-conf/eval"
	"github.com/goliatone/go-conf/internal/hydrate"
)

// Provider kinds registered by Register.
const (
	KindMemory   = "memory"
	KindLiteral  = "literal"
	KindDefaults = "defaults"
	KindEnv      = "env"
	KindArgv     = "argv"
	KindFile     = "file"
	KindSQLite   = "sqlite"
	KindComputed = "computed"
)

// Option configures the factories installed by Register.
type Option func(*config)

type config struct {
	environ   func() []string
	args      func() []string
	functions *eval.FunctionRegistry
}

func defaultConfig() config {
	return config{
		environ: os.Environ,
		args: func() []string {
			if len(os.Args) < 2 {
				return nil
			}
			return append([]string(nil), os.Args[1:]...)
		},
	}
}

// WithEnviron overrides the environment source used by env and computed
// providers. It is consulted on every Data call.
func WithEnviron(environ func() []string) Option {
	return func(cfg *config) {
		if environ != nil {
			cfg.environ = environ
		}
	}
}

// WithArgs overrides the argument list used by argv providers whose store
// carries no args setting.
func WithArgs(args func() []string) Option {
	return func(cfg *config) {
		if args != nil {
			cfg.args = args
		}
	}
}

// WithFunctionRegistry exposes custom functions to computed providers.
func WithFunctionRegistry(registry *eval.FunctionRegistry) Option {
	return func(cfg *config) {
		cfg.functions = registry
	}
}

// Register installs every provider variant into registry.
func Register(registry *conf.Registry, opts ...Option) error {
	if registry == nil {
		return errors.New("providers: registry is nil")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	factories := []struct {
		kind    string
		factory conf.Factory
	}{
		{KindMemory, newMemoryProvider},
		{KindLiteral, newMemoryProvider},
		{KindDefaults, newMemoryProvider},
		{KindEnv, cfg.newEnvProvider},
		{KindArgv, cfg.newArgvProvider},
		{KindFile, newFileProvider},
		{KindSQLite, newSQLiteProvider},
		{KindComputed, cfg.newComputedProvider},
	}

	var errs []error
	for _, entry := range factories {
		if err := registry.Register(entry.kind, entry.factory); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// decodeSettings decodes the scalar settings of store into T, rejecting keys
// T does not declare. Keys listed in raw are left out of decoding because
// they carry arbitrary values that the caller reads directly.
func decodeSettings[T any](store conf.Store, defaults func(*T), raw []string, extra ...hydrate.DecoderOption[T]) (T, error) {
	settings := make(map[string]any, len(store.Settings))
	for key, value := range store.Settings {
		settings[key] = value
	}
	for _, key := range raw {
		delete(settings, key)
	}

	opts := append([]hydrate.DecoderOption[T]{hydrate.WithDisallowUnknownFields[T]()}, extra...)
	if defaults != nil {
		opts = append(opts, hydrate.WithPostHook[T](func(_ hydrate.Context, value *T) error {
			defaults(value)
			return nil
		}))
	}
	ctx := hydrate.Context{Kind: conf.NormalizeKind(store.Provider), Name: store.Name}
	return hydrate.NewDecoder(opts...).Decode(ctx, settings)
}
