package providers

import (
	"regexp"
	"strconv"
	"strings"

	conf "github.com/goliatone/go-conf"
	"github.com/goliatone/go-conf/layering"
)

// PositionalKey holds the arguments that are not flags.
const PositionalKey = "_"

// ArgvStore describes a store parsing args. A nil args slice makes the
// provider read the process arguments.
func ArgvStore(name string, args []string) conf.Store {
	store := conf.Store{Provider: KindArgv, Name: name}
	if args != nil {
		items := make([]any, len(args))
		for i, arg := range args {
			items[i] = arg
		}
		store.Settings = map[string]any{"args": items}
	}
	return store
}

type argvSettings struct {
	Args []string `json:"args"`
}

type argvProvider struct {
	data map[string]any
	meta conf.Meta
}

func (cfg config) newArgvProvider(store conf.Store) (conf.Provider, error) {
	settings, err := decodeSettings[argvSettings](store, nil, nil)
	if err != nil {
		return nil, err
	}
	args := settings.Args
	if _, ok := store.Setting("args"); !ok {
		args = cfg.args()
	}
	return &argvProvider{
		data: ParseArgs(args),
		meta: conf.NewMeta(store, strings.Join(args, " ")),
	}, nil
}

func (p *argvProvider) Data() (map[string]any, error) {
	return p.data, nil
}

func (p *argvProvider) Meta() conf.Meta {
	return p.meta
}

// ParseArgs turns command-line arguments into nested data.
//
//	--db.host=local   db.host = "local"
//	--db.port 5432    db.port = 5432
//	--verbose         verbose = true
//	--no-color        color = false
//
// A flag given more than once collects its values in a list. Arguments that
// do not start with "--", and everything after a bare "--", are collected
// under PositionalKey.
func ParseArgs(args []string) map[string]any {
	out := map[string]any{}
	var positional []any

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			for _, rest := range args[i+1:] {
				positional = append(positional, rest)
			}
			break
		}
		if !strings.HasPrefix(arg, "--") || len(arg) == 2 {
			positional = append(positional, arg)
			continue
		}

		name := arg[2:]
		var value any
		if key, raw, ok := strings.Cut(name, "="); ok {
			name, value = key, coerce(raw)
		} else if strings.HasPrefix(name, "no-") {
			name, value = strings.TrimPrefix(name, "no-"), false
		} else if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			value = coerce(args[i+1])
			i++
		} else {
			value = true
		}
		if name == "" {
			continue
		}
		setArg(out, strings.Split(name, conf.PathSeparator), value)
	}

	if len(positional) > 0 {
		out[PositionalKey] = positional
	}
	return out
}

func setArg(out map[string]any, segments []string, value any) {
	existing, ok := conf.Lookup(strings.Join(segments, conf.PathSeparator), out)
	if ok {
		if _, nested := existing.(map[string]any); !nested {
			if list, isList := existing.([]any); isList {
				value = append(list, value)
			} else {
				value = []any{existing, value}
			}
		}
	}
	layering.SetPath(out, segments, value)
}

var numberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// coerce converts boolean and plain decimal literals. Anything else, including
// numbers with leading zeros, stays a string.
func coerce(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if !numberPattern.MatchString(raw) {
		return raw
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
