package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// settings are the process-level knobs read from the environment.
type settings struct {
	LogLevel  string `env:"CONFCHAIN_LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"CONFCHAIN_LOG_FORMAT" envDefault:"text"`
	Output    string `env:"CONFCHAIN_OUTPUT" envDefault:"text"`
}

func loadSettings(environ []string) (settings, error) {
	var cfg settings
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return settings{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	if cfg.Output != outputText && cfg.Output != outputJSON {
		return settings{}, fmt.Errorf("unsupported output %q", cfg.Output)
	}
	return cfg, nil
}

func (s settings) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", s.LogLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(s.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", s.LogFormat)
	}
}
