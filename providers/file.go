package providers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	conf "github.com/goliatone/go-conf"
	"github.com/goliatone/go-conf/layering"
	"gopkg.in/yaml.v3"
)

// Supported file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// ErrUnsupportedFormat is returned for files whose format cannot be inferred
// or is not one of json, yaml or toml.
var ErrUnsupportedFormat = errors.New("providers: unsupported file format")

// FileStore describes a store loaded from the file at path. The format is
// inferred from the extension.
func FileStore(name, path string) conf.Store {
	return conf.Store{
		Provider: KindFile,
		Name:     name,
		Settings: map[string]any{"path": path},
	}
}

type fileSettings struct {
	Path      string `json:"path"`
	Format    string `json:"format"`
	DropInDir string `json:"dropin_dir"`
	Optional  bool   `json:"optional"`
}

type fileProvider struct {
	data map[string]any
	meta conf.Meta
}

// newFileProvider loads the main file and its drop-ins once. A missing main
// file is an error unless the store is optional; a missing drop-in directory
// is ignored.
func newFileProvider(store conf.Store) (conf.Provider, error) {
	settings, err := decodeSettings[fileSettings](store, nil, nil)
	if err != nil {
		return nil, err
	}
	if settings.Path == "" && settings.DropInDir == "" {
		return nil, errors.New("providers: file store requires a path or dropin_dir")
	}

	var layers []map[string]any

	dropins, err := findDropIns(settings.DropInDir)
	if err != nil {
		return nil, err
	}
	for i := len(dropins) - 1; i >= 0; i-- {
		data, err := loadFile(dropins[i], "")
		if err != nil {
			return nil, err
		}
		layers = append(layers, data)
	}

	if settings.Path != "" {
		data, err := loadFile(settings.Path, settings.Format)
		switch {
		case err == nil:
			layers = append(layers, data)
		case errors.Is(err, fs.ErrNotExist) && settings.Optional:
		default:
			return nil, err
		}
	}

	merged := layering.MergeLayers(layers...)
	if merged == nil {
		merged = map[string]any{}
	}

	meta := conf.NewMeta(store, settings.Path)
	if len(dropins) > 0 {
		meta.Extra = map[string]any{"dropins": dropins}
	}
	return &fileProvider{data: merged, meta: meta}, nil
}

func (p *fileProvider) Data() (map[string]any, error) {
	return p.data, nil
}

func (p *fileProvider) Meta() conf.Meta {
	return p.meta
}

// DecodeFile parses payload in the given format into a nested map.
func DecodeFile(payload []byte, format string) (map[string]any, error) {
	out := map[string]any{}
	if len(bytes.TrimSpace(payload)) == 0 {
		return out, nil
	}
	switch strings.ToLower(format) {
	case FormatJSON:
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, err
		}
	case FormatYAML, "yml":
		if err := yaml.Unmarshal(payload, &out); err != nil {
			return nil, err
		}
	case FormatTOML:
		if err := toml.Unmarshal(payload, &out); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func loadFile(path, format string) (map[string]any, error) {
	if format == "" {
		format = formatFromPath(path)
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("providers: read %s: %w", path, err)
	}
	data, err := DecodeFile(payload, format)
	if err != nil {
		return nil, fmt.Errorf("providers: parse %s: %w", path, err)
	}
	return data, nil
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return ""
	}
}

// findDropIns returns the supported files in dir sorted lexicographically.
func findDropIns(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("providers: read drop-in directory %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || formatFromPath(entry.Name()) == "" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
