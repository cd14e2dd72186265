// internal/store/sqlite/store.go
package sqlite

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/shrimpsizemoose/haksa/internal/store"
)

type SQLiteStore struct {
	store.BaseStore
}

func NewSQLiteStore(config *store.DBConfig) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	// the account list is read in one go, a single connection keeps
	// :memory: databases consistent across queries
	db.SetMaxOpenConns(1)

	return &SQLiteStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			return query
		},
	}}, nil
}

func (s *SQLiteStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, translateToSQLite)
}

// translateToSQLite converts Postgres SQL to SQLite dialect
func translateToSQLite(sql string) string {
	replacements := []struct{ from, to string }{
		{"VARCHAR(6)", "TEXT"},
		{"VARCHAR(4)", "TEXT"},
		{",\n    CHECK (birth ~ '^[0-9]*$')", ""},
		{",\n    CHECK (phone_last4 ~ '^[0-9]*$')", ""},
		{"::text", ""},
	}
	result := sql
	for _, r := range replacements {
		result = strings.ReplaceAll(result, r.from, r.to)
	}
	return result
}
