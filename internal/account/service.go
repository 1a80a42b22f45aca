package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rheinbank/rheinbank/internal/ledger"
)

// ErrOwnerRequired occurs when account creation is requested without an owner
// name.
var ErrOwnerRequired = errors.New("owner name must not be blank")

// Service provisions and looks up accounts. Accounts are read-only after
// creation; only the ledger affects their derived balance.
type Service struct {
	store   ledger.Store
	numbers *NumberGenerator
}

// NewService builds an account service.
func NewService(store ledger.Store, numbers *NumberGenerator) *Service {
	return &Service{store: store, numbers: numbers}
}

// Create provisions an account with a freshly generated unique number.
func (s *Service) Create(ctx context.Context, ownerName string) (ledger.Account, error) {
	owner := strings.TrimSpace(ownerName)
	if owner == "" {
		return ledger.Account{}, ErrOwnerRequired
	}

	number, err := s.numbers.Generate(ctx)
	if err != nil {
		return ledger.Account{}, err
	}

	account := ledger.Account{
		ID:        uuid.NewString(),
		OwnerName: owner,
		Number:    number,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return ledger.Account{}, err
	}
	return account, nil
}

// Get fetches an account by id.
func (s *Service) Get(ctx context.Context, id string) (ledger.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// List returns all accounts ordered by owner name.
func (s *Service) List(ctx context.Context) ([]ledger.Account, error) {
	return s.store.ListAccounts(ctx)
}
