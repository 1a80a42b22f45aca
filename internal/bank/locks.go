package bank

import (
	"context"

	"github.com/rheinbank/rheinbank/internal/ledger"
)

// lockBoth acquires exclusive holds on two accounts in ascending-id order,
// regardless of which one is the source. Any two concurrent operations on the
// same pair request their holds in the same global order, so no cycle of
// waiters can form. Returns the accounts in the order they were requested.
func lockBoth(ctx context.Context, tx ledger.Tx, firstID, secondID string) (ledger.Account, ledger.Account, error) {
	lowID, highID := firstID, secondID
	if highID < lowID {
		lowID, highID = highID, lowID
	}

	low, err := tx.LockAccount(ctx, lowID)
	if err != nil {
		return ledger.Account{}, ledger.Account{}, err
	}
	high, err := tx.LockAccount(ctx, highID)
	if err != nil {
		return ledger.Account{}, ledger.Account{}, err
	}

	if low.ID == firstID {
		return low, high, nil
	}
	return high, low, nil
}
