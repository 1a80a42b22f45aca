package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newAccount(owner, number string) Account {
	return Account{ID: uuid.NewString(), OwnerName: owner, Number: number, CreatedAt: time.Now().UTC()}
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func TestMemoryStoreCreateAccount(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	account := newAccount("Ada Lovelace", "DE2501011234")
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create account: %v", err)
	}

	fetched, err := store.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if fetched.OwnerName != "Ada Lovelace" || fetched.Number != account.Number {
		t.Fatalf("unexpected account: %+v", fetched)
	}

	dup := newAccount("Impostor", "DE2501011234")
	if err := store.CreateAccount(ctx, dup); err != ErrNumberTaken {
		t.Fatalf("expected ErrNumberTaken, got %v", err)
	}

	exists, err := store.NumberExists(ctx, account.Number)
	if err != nil || !exists {
		t.Fatalf("expected number to exist, got %v %v", exists, err)
	}
}

func TestMemoryStoreListAccountsOrderedByOwner(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	for _, a := range []Account{
		newAccount("Charlie", "DE2501010003"),
		newAccount("Alice", "DE2501010001"),
		newAccount("Bob", "DE2501010002"),
	} {
		if err := store.CreateAccount(ctx, a); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	accounts, err := store.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(accounts))
	}
	for i, want := range []string{"Alice", "Bob", "Charlie"} {
		if accounts[i].OwnerName != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, accounts[i].OwnerName)
		}
	}
}

func TestMemoryStoreBalanceUnknownAccount(t *testing.T) {
	store := NewMemoryStore(0)
	if _, err := store.Balance(context.Background(), uuid.NewString()); err != ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestMemoryStoreStagedEntriesInvisibleUntilCommit(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	account := newAccount("Ada", "DE2501019001")
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create: %v", err)
	}

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.LockAccount(ctx, account.ID); err != nil {
		t.Fatalf("lock: %v", err)
	}
	entry := Entry{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Kind:      KindDeposit,
		Amount:    mustDecimal(t, "10.0000"),
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.AppendEntry(ctx, entry); err != nil {
		t.Fatalf("append: %v", err)
	}

	// The staged entry is visible inside the unit of work but not outside it.
	inTx, err := tx.Balance(ctx, account.ID)
	if err != nil {
		t.Fatalf("tx balance: %v", err)
	}
	if !inTx.Equal(mustDecimal(t, "10.0000")) {
		t.Fatalf("expected staged balance 10.0000, got %s", inTx)
	}
	outside, err := store.Balance(ctx, account.ID)
	if err != nil {
		t.Fatalf("store balance: %v", err)
	}
	if !outside.IsZero() {
		t.Fatalf("expected zero committed balance, got %s", outside)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	committed, _ := store.Balance(ctx, account.ID)
	if !committed.Equal(mustDecimal(t, "10.0000")) {
		t.Fatalf("expected committed balance 10.0000, got %s", committed)
	}
}

func TestMemoryStoreRollbackDiscardsEntries(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	account := newAccount("Ada", "DE2501019002")
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create: %v", err)
	}

	tx, _ := store.Begin(ctx)
	if _, err := tx.LockAccount(ctx, account.ID); err != nil {
		t.Fatalf("lock: %v", err)
	}
	_ = tx.AppendEntry(ctx, Entry{ID: uuid.NewString(), AccountID: account.ID, Kind: KindDeposit, Amount: mustDecimal(t, "5")})
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	balance, _ := store.Balance(ctx, account.ID)
	if !balance.IsZero() {
		t.Fatalf("expected zero balance after rollback, got %s", balance)
	}
	entries, _ := store.EntriesByAccount(ctx, account.ID)
	if len(entries) != 0 {
		t.Fatalf("expected no entries after rollback, got %d", len(entries))
	}
}

func TestMemoryStoreLockUnknownAccount(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	tx, _ := store.Begin(ctx)
	defer tx.Rollback(ctx)
	if _, err := tx.LockAccount(ctx, uuid.NewString()); err != ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestMemoryStoreLockTimeout(t *testing.T) {
	store := NewMemoryStore(25 * time.Millisecond)
	ctx := context.Background()
	account := newAccount("Ada", "DE2501019003")
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create: %v", err)
	}

	holder, _ := store.Begin(ctx)
	if _, err := holder.LockAccount(ctx, account.ID); err != nil {
		t.Fatalf("first lock: %v", err)
	}

	waiter, _ := store.Begin(ctx)
	defer waiter.Rollback(ctx)
	if _, err := waiter.LockAccount(ctx, account.ID); err != ErrLockTimeout {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}

	// Releasing the hold lets a fresh unit of work through.
	if err := holder.Rollback(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	retry, _ := store.Begin(ctx)
	defer retry.Rollback(ctx)
	if _, err := retry.LockAccount(ctx, account.ID); err != nil {
		t.Fatalf("lock after release: %v", err)
	}
}

func TestMemoryStoreEntriesNewestFirst(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	account := newAccount("Ada", "DE2501019004")
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create: %v", err)
	}

	base := time.Now().UTC()
	for i, amount := range []string{"1", "2", "3"} {
		tx, _ := store.Begin(ctx)
		if _, err := tx.LockAccount(ctx, account.ID); err != nil {
			t.Fatalf("lock: %v", err)
		}
		_ = tx.AppendEntry(ctx, Entry{
			ID:        uuid.NewString(),
			AccountID: account.ID,
			Kind:      KindDeposit,
			Amount:    mustDecimal(t, amount),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	entries, err := store.EntriesByAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"3", "1"} {
		idx := i * 2 // first and last
		if !entries[idx].Amount.Equal(mustDecimal(t, want)) {
			t.Fatalf("entry %d: expected amount %s, got %s", idx, want, entries[idx].Amount)
		}
	}
}
