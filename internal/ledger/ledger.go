package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rheinbank/rheinbank/internal/money"
)

var (
	// ErrInvalidAmount occurs when an operation is requested with a
	// non-positive amount. Rejected before any lock is taken.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidArgument occurs when the source and target of a transfer are
	// the same account.
	ErrInvalidArgument = errors.New("source and target accounts must differ")

	// ErrAccountNotFound indicates an unknown account id was passed to a
	// locking or lookup operation.
	ErrAccountNotFound = errors.New("account not found")

	// ErrLockTimeout indicates an exclusive account hold could not be
	// acquired within the configured bound.
	ErrLockTimeout = errors.New("timed out acquiring account lock")

	// ErrNumberTaken indicates the generated account number collided with an
	// existing one at insert time.
	ErrNumberTaken = errors.New("account number already in use")

	// ErrInsufficientFunds is the sentinel matched by errors.Is for
	// *InsufficientFundsError values.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// InsufficientFundsError reports a rejected debit together with the balance
// observed under the account hold, so callers can surface both values.
type InsufficientFundsError struct {
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance is %s, requested %s",
		money.String(e.Balance), money.String(e.Requested))
}

// Is makes errors.Is(err, ErrInsufficientFunds) match.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// Kind classifies a ledger entry.
type Kind string

const (
	KindDeposit    Kind = "DEPOSIT"
	KindWithdrawal Kind = "WITHDRAWAL"
	KindTransfer   Kind = "TRANSFER"
)

// Account is a customer account. Immutable after creation; its balance is
// never stored here, it is always derived from the entries.
type Account struct {
	ID        string
	OwnerName string
	Number    string
	CreatedAt time.Time
}

// CounterAccount identifies the other party of a transfer entry.
type CounterAccount struct {
	ID        string
	Number    string
	OwnerName string
}

// Entry is one immutable signed-amount record in the ledger. Entries are
// append-only: they are never updated or deleted once recorded. Counter is
// set exactly when Kind is KindTransfer. An empty Description means none was
// provided.
type Entry struct {
	ID          string
	AccountID   string
	Counter     *CounterAccount
	Kind        Kind
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}
