package providers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	conf "github.com/goliatone/go-conf"
	"github.com/goliatone/go-conf/layering"
	_ "modernc.org/sqlite"
)

const (
	defaultSQLiteTable       = "settings"
	defaultSQLiteKeyColumn   = "key"
	defaultSQLiteValueColumn = "value"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteStore describes a store reading key/value rows from table in the
// database at dsn. An empty table uses "settings".
func SQLiteStore(name, dsn, table string) conf.Store {
	settings := map[string]any{"dsn": dsn}
	if table != "" {
		settings["table"] = table
	}
	return conf.Store{Provider: KindSQLite, Name: name, Settings: settings}
}

type sqliteSettings struct {
	DSN         string `json:"dsn"`
	Table       string `json:"table"`
	KeyColumn   string `json:"key_column"`
	ValueColumn string `json:"value_column"`
	JSONValues  bool   `json:"json_values"`
}

func (s *sqliteSettings) applyDefaults() {
	if s.Table == "" {
		s.Table = defaultSQLiteTable
	}
	if s.KeyColumn == "" {
		s.KeyColumn = defaultSQLiteKeyColumn
	}
	if s.ValueColumn == "" {
		s.ValueColumn = defaultSQLiteValueColumn
	}
}

func (s sqliteSettings) validate() error {
	if s.DSN == "" {
		return errors.New("providers: sqlite store requires a dsn")
	}
	for _, ident := range []string{s.Table, s.KeyColumn, s.ValueColumn} {
		if !identifierPattern.MatchString(ident) {
			return fmt.Errorf("providers: invalid sqlite identifier %q", ident)
		}
	}
	return nil
}

type sqliteProvider struct {
	data map[string]any
	meta conf.Meta
}

// newSQLiteProvider reads every row once and closes the database. Dotted
// keys expand into nested maps.
func newSQLiteProvider(store conf.Store) (conf.Provider, error) {
	settings, err := decodeSettings(store, (*sqliteSettings).applyDefaults, nil)
	if err != nil {
		return nil, err
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}

	flat, err := loadSQLiteRows(context.Background(), settings)
	if err != nil {
		return nil, err
	}

	meta := conf.NewMeta(store, settings.DSN)
	meta.Extra = map[string]any{"table": settings.Table}
	return &sqliteProvider{
		data: layering.Expand(flat, conf.PathSeparator),
		meta: meta,
	}, nil
}

func (p *sqliteProvider) Data() (map[string]any, error) {
	return p.data, nil
}

func (p *sqliteProvider) Meta() conf.Meta {
	return p.meta
}

func loadSQLiteRows(ctx context.Context, settings sqliteSettings) (map[string]any, error) {
	db, err := sql.Open("sqlite", settings.DSN)
	if err != nil {
		return nil, fmt.Errorf("providers: open sqlite %s: %w", settings.DSN, err)
	}
	defer db.Close()

	query := fmt.Sprintf("SELECT %s, %s FROM %s", settings.KeyColumn, settings.ValueColumn, settings.Table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("providers: query sqlite table %s: %w", settings.Table, err)
	}
	defer rows.Close()

	out := map[string]any{}
	for rows.Next() {
		var (
			key   string
			value any
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("providers: scan sqlite row: %w", err)
		}
		if raw, ok := value.([]byte); ok {
			value = string(raw)
		}
		if settings.JSONValues {
			if text, ok := value.(string); ok {
				var decoded any
				if err := json.Unmarshal([]byte(text), &decoded); err != nil {
					return nil, fmt.Errorf("providers: decode sqlite value for %q: %w", key, err)
				}
				value = decoded
			}
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("providers: iterate sqlite rows: %w", err)
	}
	return out, nil
}
