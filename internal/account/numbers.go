package account

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rheinbank/rheinbank/internal/ledger"
)

const (
	numberPrefix = "DE"
	dateLayout   = "060102"
	suffixMin    = 1000
	suffixMax    = 9999

	// DefaultMaxAttempts bounds the collision retry loop so a dense number
	// space fails fast instead of spinning.
	DefaultMaxAttempts = 25
)

// ErrGenerationExhausted indicates the collision retry cap was reached
// without finding a free account number.
var ErrGenerationExhausted = errors.New("account number generation exhausted")

// NumberGenerator produces unique external account numbers of the form
// prefix + yymmdd + four random digits, retrying on collision.
type NumberGenerator struct {
	store       ledger.Store
	maxAttempts int
	now         func() time.Time
}

// NewNumberGenerator builds a generator. A non-positive maxAttempts falls
// back to DefaultMaxAttempts.
func NewNumberGenerator(store ledger.Store, maxAttempts int) *NumberGenerator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &NumberGenerator{store: store, maxAttempts: maxAttempts, now: time.Now}
}

// Generate returns a free account number or ErrGenerationExhausted once the
// retry cap is reached.
func (g *NumberGenerator) Generate(ctx context.Context) (string, error) {
	date := g.now().Format(dateLayout)
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate := fmt.Sprintf("%s%s%04d", numberPrefix, date, suffixMin+rand.Intn(suffixMax-suffixMin))
		exists, err := g.store.NumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrGenerationExhausted
}
