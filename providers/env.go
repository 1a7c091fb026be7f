package providers

import (
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	conf "github.com/goliatone/go-conf"
	"github.com/goliatone/go-conf/internal/hydrate"
	"github.com/goliatone/go-conf/layering"
)

// DefaultEnvSeparator splits variable names into nested path segments.
const DefaultEnvSeparator = "__"

// EnvStore describes a store reading variables that start with prefix.
// APP_DB__HOST becomes db.host for prefix "APP_".
func EnvStore(name, prefix string) conf.Store {
	return conf.Store{
		Provider: KindEnv,
		Name:     name,
		Settings: map[string]any{"prefix": prefix},
	}
}

type envSettings struct {
	Prefix    string   `json:"prefix"`
	Separator string   `json:"separator"`
	Lowercase *bool    `json:"lowercase"`
	Whitelist []string `json:"whitelist"`
}

type envProvider struct {
	settings envSettings
	environ  func() []string
	meta     conf.Meta
}

func (cfg config) newEnvProvider(store conf.Store) (conf.Provider, error) {
	settings, err := decodeSettings(store, func(s *envSettings) {
		if s.Separator == "" {
			s.Separator = DefaultEnvSeparator
		}
		if s.Lowercase == nil {
			lower := true
			s.Lowercase = &lower
		}
		if *s.Lowercase {
			for i, name := range s.Whitelist {
				s.Whitelist[i] = strings.ToLower(name)
			}
		}
	}, nil, hydrate.WithPreHook[envSettings](splitWhitelist))
	if err != nil {
		return nil, err
	}
	return &envProvider{
		settings: settings,
		environ:  cfg.environ,
		meta:     conf.NewMeta(store, settings.Prefix),
	}, nil
}

// splitWhitelist accepts the whitelist as a comma separated string, the form
// it takes when it comes from a flag or another environment variable.
func splitWhitelist(_ hydrate.Context, settings map[string]any) (map[string]any, error) {
	list, ok := settings["whitelist"].(string)
	if !ok {
		return settings, nil
	}
	items := []string{}
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	settings["whitelist"] = items
	return settings, nil
}

// Data reads the environment on every call so later changes are visible.
func (p *envProvider) Data() (map[string]any, error) {
	vars := env.ToMap(p.environ())
	flat := make(map[string]any, len(vars))
	for name, value := range vars {
		path, ok := p.path(name)
		if !ok {
			continue
		}
		flat[path] = value
	}
	return layering.Expand(flat, conf.PathSeparator), nil
}

func (p *envProvider) Meta() conf.Meta {
	return p.meta
}

func (p *envProvider) path(name string) (string, bool) {
	if !strings.HasPrefix(name, p.settings.Prefix) {
		return "", false
	}
	trimmed := strings.TrimPrefix(name, p.settings.Prefix)
	if trimmed == "" {
		return "", false
	}
	if *p.settings.Lowercase {
		trimmed = strings.ToLower(trimmed)
	}
	segments := strings.Split(trimmed, p.settings.Separator)
	if slices.Contains(segments, "") {
		return "", false
	}
	path := strings.Join(segments, conf.PathSeparator)
	if len(p.settings.Whitelist) > 0 && !slices.Contains(p.settings.Whitelist, path) {
		return "", false
	}
	return path, true
}
