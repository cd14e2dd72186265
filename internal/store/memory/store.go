package memory

import (
	"context"
	"fmt"

	"github.com/shrimpsizemoose/haksa/internal/models"
)

// MemoryStore serves a fixed account list handed over at construction.
type MemoryStore struct {
	accounts []models.Account
}

// NewMemoryStore validates and copies the given records. Later changes to
// the caller's slice do not leak into the store.
func NewMemoryStore(accounts []models.Account) (*MemoryStore, error) {
	list := make([]models.Account, len(accounts))
	for i := range accounts {
		if err := accounts[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid account #%d (%s): %w", i+1, accounts[i].StudentNo, err)
		}
		list[i] = accounts[i]
	}
	return &MemoryStore{accounts: list}, nil
}

func (s *MemoryStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.Account, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
