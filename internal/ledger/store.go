package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store is the persistence boundary for accounts and ledger entries.
type Store interface {
	// CreateAccount inserts a new account. Fails with ErrNumberTaken when the
	// account number is already in use.
	CreateAccount(ctx context.Context, account Account) error

	// GetAccount fetches an account by id. Fails with ErrAccountNotFound.
	GetAccount(ctx context.Context, id string) (Account, error)

	// NumberExists reports whether an account number is already assigned.
	NumberExists(ctx context.Context, number string) (bool, error)

	// ListAccounts returns all accounts ordered by owner name ascending.
	ListAccounts(ctx context.Context) ([]Account, error)

	// Balance sums the signed amounts of all committed entries for the
	// account; zero when no entries exist. Fails with ErrAccountNotFound for
	// an unknown id.
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)

	// EntriesByAccount returns the committed entries for the account, newest
	// first, with the counter account resolved on transfer entries. It never
	// observes one half of a transfer without the other.
	EntriesByAccount(ctx context.Context, accountID string) ([]Entry, error)

	// Begin opens a unit of work for a balance-check-then-append sequence.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a unit of work. Exclusive row holds acquired through LockAccount are
// released exactly when the Tx ends; entries appended inside the Tx become
// visible to readers only after Commit, all together or not at all.
type Tx interface {
	// LockAccount acquires the exclusive hold on the account row and returns
	// the account. Fails with ErrAccountNotFound for an unknown id and with
	// ErrLockTimeout when the hold cannot be acquired within the configured
	// bound.
	LockAccount(ctx context.Context, id string) (Account, error)

	// Balance sums the account's entries as seen by this unit of work,
	// including entries it has already appended.
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)

	// AppendEntry stages an entry for commit.
	AppendEntry(ctx context.Context, entry Entry) error

	Commit(ctx context.Context) error

	// Rollback discards staged entries and releases holds. Calling it after
	// Commit is a no-op, so it is safe to defer.
	Rollback(ctx context.Context) error
}
