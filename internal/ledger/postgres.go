package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rheinbank/rheinbank/internal/money"
)

const (
	pgUniqueViolation  = "23505"
	pgLockNotAvailable = "55P03"
)

// PostgresStore persists accounts and entries in PostgreSQL. Row holds are
// `SELECT ... FOR UPDATE` locks inside a pgx transaction, bounded by a
// per-transaction lock_timeout.
type PostgresStore struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

// NewPostgresStore constructs a Postgres-backed store. A non-positive
// lockTimeout falls back to DefaultLockTimeout.
func NewPostgresStore(db *pgxpool.Pool, lockTimeout time.Duration) *PostgresStore {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &PostgresStore{db: db, lockTimeout: lockTimeout}
}

// CreateAccount inserts an account record.
func (s *PostgresStore) CreateAccount(ctx context.Context, account Account) error {
	id, err := uuid.Parse(account.ID)
	if err != nil {
		return fmt.Errorf("parse account id: %w", err)
	}
	_, err = s.db.Exec(ctx, `INSERT INTO accounts (id, owner_name, account_number, created_at)
        VALUES ($1, $2, $3, $4)`, id, account.OwnerName, account.Number, account.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrNumberTaken
		}
		return err
	}
	return nil
}

// GetAccount fetches an account by id.
func (s *PostgresStore) GetAccount(ctx context.Context, id string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrAccountNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT id, owner_name, account_number, created_at
        FROM accounts WHERE id = $1`, accountID)
	return scanAccount(row)
}

// NumberExists reports whether the account number is already assigned.
func (s *PostgresStore) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)`, number).Scan(&exists)
	return exists, err
}

// ListAccounts returns all accounts ordered by owner name.
func (s *PostgresStore) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.db.Query(ctx, `SELECT id, owner_name, account_number, created_at
        FROM accounts ORDER BY owner_name ASC, account_number ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// Balance sums the committed signed entry amounts for the account.
func (s *PostgresStore) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return decimal.Zero, ErrAccountNotFound
	}
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return decimal.Zero, err
	}
	return sumEntries(ctx, s.db, id)
}

// EntriesByAccount returns the account's entries newest first, with the
// counter account resolved on transfer entries.
func (s *PostgresStore) EntriesByAccount(ctx context.Context, accountID string) ([]Entry, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, ErrAccountNotFound
	}
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	const query = `
        SELECT e.id, e.account_id, e.kind, e.amount::text, COALESCE(e.description, ''), e.created_at,
               c.id, c.account_number, c.owner_name
        FROM entries e
        LEFT JOIN accounts c ON c.id = e.counter_account_id
        WHERE e.account_id = $1
        ORDER BY e.created_at DESC, e.id DESC`
	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e            Entry
			entryID      uuid.UUID
			entryAccount uuid.UUID
			amount       string
			createdAt    time.Time
			counterID    *uuid.UUID
			counterNum   *string
			counterOwner *string
		)
		if err := rows.Scan(&entryID, &entryAccount, &e.Kind, &amount, &e.Description, &createdAt,
			&counterID, &counterNum, &counterOwner); err != nil {
			return nil, err
		}
		e.ID = entryID.String()
		e.AccountID = entryAccount.String()
		e.CreatedAt = createdAt.UTC()
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse entry amount: %w", err)
		}
		if counterID != nil {
			e.Counter = &CounterAccount{ID: counterID.String(), Number: *counterNum, OwnerName: *counterOwner}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Begin opens a database transaction with the configured lock_timeout applied.
func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockAccount(ctx context.Context, id string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrAccountNotFound
	}
	row := t.tx.QueryRow(ctx, `SELECT id, owner_name, account_number, created_at
        FROM accounts WHERE id = $1 FOR UPDATE`, accountID)
	account, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
			return Account{}, ErrLockTimeout
		}
		return Account{}, err
	}
	return account, nil
}

func (t *pgTx) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return decimal.Zero, ErrAccountNotFound
	}
	return sumEntries(ctx, t.tx, id)
}

func (t *pgTx) AppendEntry(ctx context.Context, entry Entry) error {
	entryID, err := uuid.Parse(entry.ID)
	if err != nil {
		return fmt.Errorf("parse entry id: %w", err)
	}
	accountID, err := uuid.Parse(entry.AccountID)
	if err != nil {
		return ErrAccountNotFound
	}

	var counterID *uuid.UUID
	if entry.Counter != nil {
		id, err := uuid.Parse(entry.Counter.ID)
		if err != nil {
			return ErrAccountNotFound
		}
		counterID = &id
	}
	var description *string
	if entry.Description != "" {
		description = &entry.Description
	}

	_, err = t.tx.Exec(ctx, `INSERT INTO entries (id, account_id, counter_account_id, kind, amount, description, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entryID, accountID, counterID, string(entry.Kind), money.String(entry.Amount), description, entry.CreatedAt.UTC())
	return err
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (Account, error) {
	var (
		id        uuid.UUID
		account   Account
		createdAt time.Time
	)
	if err := row.Scan(&id, &account.OwnerName, &account.Number, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	account.ID = id.String()
	account.CreatedAt = createdAt.UTC()
	return account, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func sumEntries(ctx context.Context, q querier, accountID uuid.UUID) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(amount), 0)::text FROM entries WHERE account_id = $1`
	var total string
	if err := q.QueryRow(ctx, query, accountID).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return decimal.NewFromString(total)
}
