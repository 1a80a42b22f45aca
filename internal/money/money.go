package money

import "github.com/shopspring/decimal"

// FractionalDigits is the fixed scale of every ledger amount. All arithmetic
// rounds to this precision before being compared or persisted.
const FractionalDigits = 4

// Round normalizes v to the ledger scale using half-up rounding at the fourth
// fractional digit.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(FractionalDigits)
}

// Parse converts a decimal string into an amount. The value is returned as
// parsed; callers round before persisting.
func Parse(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// String renders v at the fixed ledger scale, e.g. "3.0050".
func String(v decimal.Decimal) string {
	return v.StringFixed(FractionalDigits)
}
