package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLockTimeout bounds how long a unit of work waits for an account hold
// when no explicit timeout is configured.
const DefaultLockTimeout = 5 * time.Second

// MemoryStore is a concurrency-safe in-memory Store. It backs unit tests and
// the dev mode of the service. Row holds are per-account single-slot channels
// held for the lifetime of a Tx, mirroring the row locks of the Postgres
// backend.
type MemoryStore struct {
	mu          sync.RWMutex
	accounts    map[string]Account
	numbers     map[string]string
	entries     map[string][]Entry
	holds       map[string]chan struct{}
	lockTimeout time.Duration
}

// NewMemoryStore creates an empty in-memory store. A non-positive lockTimeout
// falls back to DefaultLockTimeout.
func NewMemoryStore(lockTimeout time.Duration) *MemoryStore {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &MemoryStore{
		accounts:    make(map[string]Account),
		numbers:     make(map[string]string),
		entries:     make(map[string][]Entry),
		holds:       make(map[string]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

func (s *MemoryStore) CreateAccount(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.ID]; exists {
		return fmt.Errorf("account %s already exists", account.ID)
	}
	if _, exists := s.numbers[account.Number]; exists {
		return ErrNumberTaken
	}
	s.accounts[account.ID] = account
	s.numbers[account.Number] = account.ID
	return nil
}

func (s *MemoryStore) GetAccount(_ context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (s *MemoryStore) NumberExists(_ context.Context, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.numbers[number]
	return exists, nil
}

func (s *MemoryStore) ListAccounts(_ context.Context) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].OwnerName != accounts[j].OwnerName {
			return accounts[i].OwnerName < accounts[j].OwnerName
		}
		return accounts[i].Number < accounts[j].Number
	})
	return accounts, nil
}

func (s *MemoryStore) Balance(_ context.Context, accountID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.accounts[accountID]; !ok {
		return decimal.Zero, ErrAccountNotFound
	}
	return sumAmounts(s.entries[accountID]), nil
}

func (s *MemoryStore) EntriesByAccount(_ context.Context, accountID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.accounts[accountID]; !ok {
		return nil, ErrAccountNotFound
	}
	recorded := s.entries[accountID]
	// Entries are appended in commit order; newest first is the reverse.
	result := make([]Entry, 0, len(recorded))
	for i := len(recorded) - 1; i >= 0; i-- {
		result = append(result, recorded[i])
	}
	return result, nil
}

func (s *MemoryStore) Begin(_ context.Context) (Tx, error) {
	return &memTx{store: s}, nil
}

func (s *MemoryStore) holdChan(id string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.holds[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.holds[id] = ch
	}
	return ch
}

func sumAmounts(entries []Entry) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range entries {
		balance = balance.Add(e.Amount)
	}
	return balance
}

// memTx is a single-goroutine unit of work over the MemoryStore. Staged
// entries become visible atomically on Commit; holds are released when the Tx
// ends either way.
type memTx struct {
	store  *MemoryStore
	held   []string
	staged []Entry
	done   bool
}

func (t *memTx) LockAccount(ctx context.Context, id string) (Account, error) {
	account, err := t.store.GetAccount(ctx, id)
	if err != nil {
		return Account{}, err
	}

	ch := t.store.holdChan(id)
	timer := time.NewTimer(t.store.lockTimeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		t.held = append(t.held, id)
		return account, nil
	case <-timer.C:
		return Account{}, ErrLockTimeout
	case <-ctx.Done():
		return Account{}, ctx.Err()
	}
}

func (t *memTx) Balance(_ context.Context, accountID string) (decimal.Decimal, error) {
	t.store.mu.RLock()
	committed := sumAmounts(t.store.entries[accountID])
	t.store.mu.RUnlock()

	for _, e := range t.staged {
		if e.AccountID == accountID {
			committed = committed.Add(e.Amount)
		}
	}
	return committed, nil
}

func (t *memTx) AppendEntry(_ context.Context, entry Entry) error {
	t.store.mu.RLock()
	_, ok := t.store.accounts[entry.AccountID]
	t.store.mu.RUnlock()
	if !ok {
		return ErrAccountNotFound
	}
	t.staged = append(t.staged, entry)
	return nil
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.store.mu.Lock()
	for _, e := range t.staged {
		t.store.entries[e.AccountID] = append(t.store.entries[e.AccountID], e)
	}
	t.store.mu.Unlock()
	t.finish()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.staged = nil
	t.finish()
	return nil
}

func (t *memTx) finish() {
	for _, id := range t.held {
		<-t.store.holdChan(id)
	}
	t.held = nil
	t.done = true
}
