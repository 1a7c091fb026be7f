package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	conf "github.com/goliatone/go-conf"
	"github.com/goliatone/go-conf/providers"
	"github.com/urfave/cli/v2"
)

const (
	outputText = "text"
	outputJSON = "json"
)

const (
	flagSet         = "set"
	flagEnvPrefix   = "env-prefix"
	flagFile        = "file"
	flagDefaults    = "defaults"
	flagSQLite      = "sqlite"
	flagSQLiteTable = "sqlite-table"
)

// sqliteScopePriority sits between the configuration files and the defaults.
const sqliteScopePriority = conf.ScopePriorityDefaults + 50

func newApp(stdout, stderr io.Writer, environ func() []string) *cli.App {
	return &cli.App{
		Name:      "confchain",
		Usage:     "resolve configuration keys across layered stores",
		Writer:    stdout,
		ErrWriter: stderr,
		// Exit codes are handled by main so the app can run inside tests.
		ExitErrHandler:            func(*cli.Context, error) {},
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: flagSet, Aliases: []string{"s"}, Usage: "assign `KEY=VALUE` in the strongest store"},
			&cli.StringFlag{Name: flagEnvPrefix, Usage: "read environment variables starting with `PREFIX`"},
			&cli.StringSliceFlag{Name: flagFile, Aliases: []string{"f"}, Usage: "load a configuration `PATH`; the first file wins"},
			&cli.StringFlag{Name: flagDefaults, Usage: "load defaults from `PATH`"},
			&cli.StringFlag{Name: flagSQLite, Usage: "read key/value rows from the SQLite database at `DSN`"},
			&cli.StringFlag{Name: flagSQLiteTable, Value: "settings", Usage: "SQLite `TABLE` holding the rows"},
		},
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "print the effective value of a key and the store that supplied it",
				ArgsUsage: "KEY",
				Action: func(c *cli.Context) error {
					return run(c, stderr, environ, getCommand)
				},
			},
			{
				Name:      "trace",
				Usage:     "show how every store answers a key",
				ArgsUsage: "KEY",
				Action: func(c *cli.Context) error {
					return run(c, stderr, environ, traceCommand)
				},
			},
			{
				Name:  "list",
				Usage: "print every effective key with its origin",
				Action: func(c *cli.Context) error {
					return run(c, stderr, environ, listCommand)
				},
			},
		},
	}
}

type command func(c *cli.Context, chain *conf.Chain, cfg settings) error

func run(c *cli.Context, stderr io.Writer, environ func() []string, cmd command) error {
	cfg, err := loadSettings(environ())
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	logger, err := cfg.logger(stderr)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	registry := conf.NewRegistry()
	if err := providers.Register(registry, providers.WithEnviron(environ), providers.WithArgs(func() []string { return nil })); err != nil {
		return err
	}

	layers, err := layersFromFlags(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	stack, err := conf.NewStack(layers...)
	if err != nil {
		return err
	}
	chain, err := stack.Build(registry, conf.WithResolutionLogger(conf.SlogLogger(logger)))
	if err != nil {
		logger.Error("confchain: build chain", "error", err)
		return cli.Exit(err.Error(), 1)
	}
	logger.Debug("confchain: chain ready", "stores", chain.Len())
	return cmd(c, chain, cfg)
}

func layersFromFlags(c *cli.Context) ([]conf.Layer, error) {
	var layers []conf.Layer

	if assignments := c.StringSlice(flagSet); len(assignments) > 0 {
		args := make([]string, 0, len(assignments))
		for _, assignment := range assignments {
			key, value, ok := strings.Cut(assignment, "=")
			if !ok || strings.TrimSpace(key) == "" {
				return nil, fmt.Errorf("invalid --%s %q: expected KEY=VALUE", flagSet, assignment)
			}
			args = append(args, fmt.Sprintf("--%s=%s", strings.TrimSpace(key), value))
		}
		layers = append(layers, conf.NewLayer(
			conf.NewScope("argv", conf.ScopePriorityArgv, conf.WithScopeLabel("Command Line")),
			providers.ArgvStore("", args),
		))
	}

	if prefix := c.String(flagEnvPrefix); prefix != "" {
		layers = append(layers, conf.NewLayer(
			conf.NewScope("env", conf.ScopePriorityEnv, conf.WithScopeLabel("Environment")),
			providers.EnvStore("", prefix),
		))
	}

	files := c.StringSlice(flagFile)
	if len(files) >= conf.ScopePriorityEnv-conf.ScopePriorityFile {
		return nil, fmt.Errorf("too many --%s values: %d", flagFile, len(files))
	}
	for i, path := range files {
		name := fmt.Sprintf("file:%s", path)
		layers = append(layers, conf.NewLayer(
			conf.NewScope(name, conf.ScopePriorityFile+len(files)-i, conf.WithScopeLabel("Configuration File")),
			providers.FileStore(path, path),
		))
	}

	if dsn := c.String(flagSQLite); dsn != "" {
		layers = append(layers, conf.NewLayer(
			conf.NewScope("sqlite", sqliteScopePriority, conf.WithScopeLabel("SQLite")),
			providers.SQLiteStore("", dsn, c.String(flagSQLiteTable)),
		))
	}

	if path := c.String(flagDefaults); path != "" {
		store := providers.FileStore("", path)
		layers = append(layers, conf.NewLayer(
			conf.NewScope("defaults", conf.ScopePriorityDefaults, conf.WithScopeLabel("Defaults")),
			store,
		))
	}

	return layers, nil
}

func requireKey(c *cli.Context) (string, error) {
	key := strings.TrimSpace(c.Args().First())
	if key == "" {
		return "", cli.Exit("missing KEY argument", 2)
	}
	return key, nil
}

func getCommand(c *cli.Context, chain *conf.Chain, cfg settings) error {
	key, err := requireKey(c)
	if err != nil {
		return err
	}
	resolved, err := chain.GetWithMeta(key)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if !resolved.Found {
		return cli.Exit(fmt.Sprintf("key %q not found", key), 1)
	}
	if cfg.Output == outputJSON {
		return writeJSON(c.App.Writer, map[string]any{
			"key":      key,
			"value":    resolved.Value,
			"position": resolved.Position,
			"meta":     resolved.Meta,
		})
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s = %s\t# %s\n", key, formatValue(resolved.Value), origin(resolved.Meta))
	return err
}

func traceCommand(c *cli.Context, chain *conf.Chain, cfg settings) error {
	key, err := requireKey(c)
	if err != nil {
		return err
	}
	trace, err := chain.ResolveWithTrace(key)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if cfg.Output == outputJSON {
		payload, err := trace.ToJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.App.Writer, string(payload))
		return err
	}
	for _, layer := range trace.Layers {
		marker := " "
		if winner, ok := trace.Winner(); ok && winner.Position == layer.Position {
			marker = "*"
		}
		value := "<absent>"
		if layer.Found {
			value = formatValue(layer.Value)
		}
		if _, err := fmt.Fprintf(c.App.Writer, "%s %d %s = %s\n", marker, layer.Position, origin(layer.Meta), value); err != nil {
			return err
		}
	}
	return nil
}

func listCommand(c *cli.Context, chain *conf.Chain, cfg settings) error {
	entries, err := chain.FlattenWithProvenance()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if cfg.Output == outputJSON {
		if entries == nil {
			entries = []conf.Provenance{}
		}
		return writeJSON(c.App.Writer, entries)
	}
	for _, entry := range entries {
		if _, err := fmt.Fprintf(c.App.Writer, "%s = %s\t# %s\n", entry.Path, formatValue(entry.Value), origin(entry.Meta)); err != nil {
			return err
		}
	}
	return nil
}

// origin prefixes the provider description with its scope label.
func origin(meta conf.Meta) string {
	if label := meta.ScopeLabel(); label != "" {
		return label + ": " + meta.String()
	}
	return meta.String()
}

func formatValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(payload)
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
