package account

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/rheinbank/rheinbank/internal/ledger"
)

func TestCreateTrimsOwnerAndAssignsNumber(t *testing.T) {
	store := ledger.NewMemoryStore(0)
	svc := NewService(store, NewNumberGenerator(store, 0))
	ctx := context.Background()

	account, err := svc.Create(ctx, "  Grace Hopper  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if account.OwnerName != "Grace Hopper" {
		t.Fatalf("owner not trimmed: %q", account.OwnerName)
	}
	if matched, _ := regexp.MatchString(`^DE\d{10}$`, account.Number); !matched {
		t.Fatalf("unexpected account number format: %s", account.Number)
	}

	fetched, err := svc.Get(ctx, account.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Number != account.Number {
		t.Fatalf("expected number %s, got %s", account.Number, fetched.Number)
	}
}

func TestCreateRejectsBlankOwner(t *testing.T) {
	store := ledger.NewMemoryStore(0)
	svc := NewService(store, NewNumberGenerator(store, 0))

	if _, err := svc.Create(context.Background(), "   "); !errors.Is(err, ErrOwnerRequired) {
		t.Fatalf("expected ErrOwnerRequired, got %v", err)
	}
}

func TestListOrderedByOwner(t *testing.T) {
	store := ledger.NewMemoryStore(0)
	svc := NewService(store, NewNumberGenerator(store, 0))
	ctx := context.Background()

	for _, owner := range []string{"Zuse", "Ada", "Moore"} {
		if _, err := svc.Create(ctx, owner); err != nil {
			t.Fatalf("create %s: %v", owner, err)
		}
	}

	accounts, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, want := range []string{"Ada", "Moore", "Zuse"} {
		if accounts[i].OwnerName != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, accounts[i].OwnerName)
		}
	}
}
