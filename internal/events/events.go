package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecorded is emitted after a unit of work commits ledger entries.
// For transfers the amount is the transferred magnitude and both entry ids are
// listed; CounterAccountID is empty for deposits and withdrawals.
type TransactionRecorded struct {
	Kind             string          `json:"kind"`
	AccountID        string          `json:"account_id"`
	CounterAccountID string          `json:"counter_account_id,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	EntryIDs         []string        `json:"entry_ids"`
	OccurredAt       time.Time       `json:"occurred_at"`
}

// Publisher delivers domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event TransactionRecorded) error
}

// LogPublisher writes events to the structured logger. Used when no broker is
// configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs a logging publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(_ context.Context, event TransactionRecorded) error {
	if p == nil || p.logger == nil {
		return nil
	}
	p.logger.Info("transaction recorded",
		"kind", event.Kind,
		"account_id", event.AccountID,
		"counter_account_id", event.CounterAccountID,
		"amount", event.Amount.String(),
		"entry_ids", event.EntryIDs,
	)
	return nil
}
