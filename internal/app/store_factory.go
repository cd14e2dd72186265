package app

import (
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/haksa/internal/store"
	"github.com/shrimpsizemoose/haksa/internal/store/memory"
	"github.com/shrimpsizemoose/haksa/internal/store/postgres"
	"github.com/shrimpsizemoose/haksa/internal/store/sqlite"
)

type migrator interface {
	ApplyMigrations(dir string) error
}

// NewStore opens the account source named by the config. SQL stores get
// their migrations applied before the first lookup.
func NewStore(config *Config) (store.AccountStore, error) {
	dsn := config.Database.DSN

	var (
		s   store.AccountStore
		err error
	)
	switch dbType := store.DetectType(dsn); dbType {
	case store.DBTypeMemory:
		return memory.NewMemoryStore(config.Accounts)
	case store.DBTypePostgres:
		s, err = postgres.NewPostgresStore(dsn)
	case store.DBTypeSQLite:
		s, err = sqlite.NewSQLiteStore(&store.DBConfig{DSN: dsn, Type: dbType})
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
	if err != nil {
		return nil, err
	}

	if m, ok := s.(migrator); ok {
		if err := m.ApplyMigrations(config.Database.MigrationsDir); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}
	if len(config.Accounts) > 0 {
		logger.Info.Printf("Ignoring %d configured accounts, reading them from the database", len(config.Accounts))
	}

	return s, nil
}
