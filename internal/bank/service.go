package bank

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rheinbank/rheinbank/internal/events"
	"github.com/rheinbank/rheinbank/internal/ledger"
	"github.com/rheinbank/rheinbank/internal/money"
	"github.com/rheinbank/rheinbank/internal/notification"
)

// Service is the transaction engine. Every mutating operation runs as one
// unit of work: acquire the account hold(s), check the derived balance where
// a debit is involved, append the entries, commit. Aborting at any earlier
// point leaves the ledger untouched.
type Service struct {
	store     ledger.Store
	publisher events.Publisher
	notifier  notification.Notifier
}

// NewService constructs the transaction engine.
func NewService(store ledger.Store, publisher events.Publisher, notifier notification.Notifier) *Service {
	return &Service{store: store, publisher: publisher, notifier: notifier}
}

// Deposit records a positive entry on the account. Deposits only increase the
// balance, so no balance check is needed.
func (s *Service) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (ledger.Entry, error) {
	if !amount.IsPositive() {
		return ledger.Entry{}, ledger.ErrInvalidAmount
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return ledger.Entry{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.LockAccount(ctx, accountID); err != nil {
		return ledger.Entry{}, err
	}

	entry := ledger.Entry{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Kind:        ledger.KindDeposit,
		Amount:      money.Round(amount),
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := tx.AppendEntry(ctx, entry); err != nil {
		return ledger.Entry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.Entry{}, fmt.Errorf("commit deposit: %w", err)
	}

	s.publish(ctx, events.TransactionRecorded{
		Kind:       string(ledger.KindDeposit),
		AccountID:  accountID,
		Amount:     entry.Amount,
		EntryIDs:   []string{entry.ID},
		OccurredAt: entry.CreatedAt,
	})
	return entry, nil
}

// Withdraw records a negative entry on the account after verifying, under the
// exclusive hold, that the current balance covers the amount.
func (s *Service) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description string) (ledger.Entry, error) {
	if !amount.IsPositive() {
		return ledger.Entry{}, ledger.ErrInvalidAmount
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return ledger.Entry{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.LockAccount(ctx, accountID); err != nil {
		return ledger.Entry{}, err
	}

	requested := money.Round(amount)
	balance, err := tx.Balance(ctx, accountID)
	if err != nil {
		return ledger.Entry{}, err
	}
	if balance.Cmp(requested) < 0 {
		return ledger.Entry{}, &ledger.InsufficientFundsError{Balance: balance, Requested: requested}
	}

	entry := ledger.Entry{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Kind:        ledger.KindWithdrawal,
		Amount:      requested.Neg(),
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := tx.AppendEntry(ctx, entry); err != nil {
		return ledger.Entry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.Entry{}, fmt.Errorf("commit withdrawal: %w", err)
	}

	s.publish(ctx, events.TransactionRecorded{
		Kind:       string(ledger.KindWithdrawal),
		AccountID:  accountID,
		Amount:     entry.Amount,
		EntryIDs:   []string{entry.ID},
		OccurredAt: entry.CreatedAt,
	})
	return entry, nil
}

// Transfer moves the amount between two accounts as a single atomic unit:
// a debit entry on the source and a credit entry on the target, each carrying
// the other side as counter account. Both entries commit together or not at
// all.
func (s *Service) Transfer(ctx context.Context, sourceID, targetID string, amount decimal.Decimal, description string) (ledger.Entry, ledger.Entry, error) {
	if !amount.IsPositive() {
		return ledger.Entry{}, ledger.Entry{}, ledger.ErrInvalidAmount
	}
	if sourceID == targetID {
		return ledger.Entry{}, ledger.Entry{}, ledger.ErrInvalidArgument
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return ledger.Entry{}, ledger.Entry{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	source, target, err := lockBoth(ctx, tx, sourceID, targetID)
	if err != nil {
		return ledger.Entry{}, ledger.Entry{}, err
	}

	requested := money.Round(amount)
	balance, err := tx.Balance(ctx, source.ID)
	if err != nil {
		return ledger.Entry{}, ledger.Entry{}, err
	}
	if balance.Cmp(requested) < 0 {
		return ledger.Entry{}, ledger.Entry{}, &ledger.InsufficientFundsError{Balance: balance, Requested: requested}
	}

	now := time.Now().UTC()
	debit := ledger.Entry{
		ID:          uuid.NewString(),
		AccountID:   source.ID,
		Counter:     &ledger.CounterAccount{ID: target.ID, Number: target.Number, OwnerName: target.OwnerName},
		Kind:        ledger.KindTransfer,
		Amount:      requested.Neg(),
		Description: description,
		CreatedAt:   now,
	}
	credit := ledger.Entry{
		ID:          uuid.NewString(),
		AccountID:   target.ID,
		Counter:     &ledger.CounterAccount{ID: source.ID, Number: source.Number, OwnerName: source.OwnerName},
		Kind:        ledger.KindTransfer,
		Amount:      requested,
		Description: description,
		CreatedAt:   now,
	}
	if err := tx.AppendEntry(ctx, debit); err != nil {
		return ledger.Entry{}, ledger.Entry{}, err
	}
	if err := tx.AppendEntry(ctx, credit); err != nil {
		return ledger.Entry{}, ledger.Entry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.Entry{}, ledger.Entry{}, fmt.Errorf("commit transfer: %w", err)
	}

	s.publish(ctx, events.TransactionRecorded{
		Kind:             string(ledger.KindTransfer),
		AccountID:        source.ID,
		CounterAccountID: target.ID,
		Amount:           requested,
		EntryIDs:         []string{debit.ID, credit.ID},
		OccurredAt:       now,
	})
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: target.Number,
			Body:        fmt.Sprintf("You received %s from account %s", money.String(requested), source.Number),
		})
	}
	return debit, credit, nil
}

// Balance returns the account's derived balance.
func (s *Service) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return s.store.Balance(ctx, accountID)
}

// History returns the account's entries, newest first, with counter accounts
// resolved.
func (s *Service) History(ctx context.Context, accountID string) ([]ledger.Entry, error) {
	return s.store.EntriesByAccount(ctx, accountID)
}

func (s *Service) publish(ctx context.Context, event events.TransactionRecorded) {
	if s.publisher == nil {
		return
	}
	// Best effort; the ledger is already committed.
	_ = s.publisher.Publish(ctx, event)
}
