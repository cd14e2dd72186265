package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/haksa/internal/models"
)

// AccountStore is a read-only source of account records. ListAccounts
// returns records in list order; matching relies on that order.
type AccountStore interface {
	Close() error
	ListAccounts(ctx context.Context) ([]models.Account, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory in file name
// order, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		logger.Info.Printf("Applying migration: %s", file.Name())
		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	query := s.Converter(`
		SELECT
			student_no,
			name,
			birth,
			phone_last4,
			google_id
		FROM accounts
		ORDER BY position ASC
	`)

	if err := s.DB.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	// the table is edited by hand, hold rows to the same rules as config seeds
	for i := range accounts {
		if err := accounts[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid account row %d (%s): %w", i+1, accounts[i].StudentNo, err)
		}
	}

	return accounts, nil
}
