package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/okian/kpiboard/internal/domain/settings"
	"github.com/okian/kpiboard/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps settings as JSON values in a single SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger logger.Logger
}

// NewSQLiteStore opens (or creates) the database at path. Use ":memory:" for
// a throwaway store.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create settings directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open settings database: %w", err)
	}
	// one connection: SQLite serializes writers and ":memory:" is per connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping settings database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize settings schema: %w", err)
	}

	s := &SQLiteStore{db: db, path: path, logger: logger.Get()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load implements SettingsStore.
func (s *SQLiteStore) Load(ctx context.Context) (settings.Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("query settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	values := make(map[string][]byte)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return settings.Settings{}, fmt.Errorf("scan settings: %w", err)
		}
		values[key] = []byte(value)
	}
	if err := rows.Err(); err != nil {
		return settings.Settings{}, fmt.Errorf("read settings: %w", err)
	}

	loaded, err := decode(values)
	if err != nil {
		return settings.Settings{}, err
	}
	s.logger.Debug(ctx, "settings loaded", logger.String("path", s.path), logger.Int("stored_keys", len(values)))
	return loaded, nil
}

// SaveBenchmarks implements SettingsStore.
func (s *SQLiteStore) SaveBenchmarks(ctx context.Context, b settings.Benchmarks) error {
	return s.put(ctx, KeyBenchmarks, b)
}

// SaveRoles implements SettingsStore.
func (s *SQLiteStore) SaveRoles(ctx context.Context, r settings.Roles) error {
	return s.put(ctx, KeyRoles, r)
}

// SaveAliases implements SettingsStore.
func (s *SQLiteStore) SaveAliases(ctx context.Context, a settings.Aliases) error {
	return s.put(ctx, KeyAliases, a)
}

func (s *SQLiteStore) put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, string(raw))
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	s.logger.Info(ctx, "settings saved", logger.String("key", key))
	return nil
}

// Close implements SettingsStore.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
