// Package fx resolves exchange rates and applies the platform's two-currency
// routing policy to fee amounts.
package fx

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrRateUnavailable is returned when no usable rate exists for a pair.
	ErrRateUnavailable = errors.New("fx: rate unavailable")
	// ErrRoutingUnsupported is returned for currency pairs outside the
	// national/international policy.
	ErrRoutingUnsupported = errors.New("fx: unsupported currency routing")
)

// BaseCurrency is the code every provider quote is expressed against.
const BaseCurrency = "USD"

// Table maps currency codes to their rate relative to BaseCurrency.
type Table map[string]decimal.Decimal

// Rate returns the rate for code.
func (t Table) Rate(code string) (decimal.Decimal, bool) {
	r, ok := t[code]
	if !ok || !r.IsPositive() {
		return decimal.Zero, false
	}
	return r, true
}

// RateProvider fetches the rate table for a calendar date (YYYY-MM-DD).
type RateProvider interface {
	Historical(ctx context.Context, date string) (Table, error)
}

// DateKey formats t as the UTC calendar date used to key rate tables.
func DateKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
