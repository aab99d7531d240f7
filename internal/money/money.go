package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is immutable reference data describing a supported currency.
type Currency struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

// Money pairs an amount with the ISO code of the currency it is expressed in.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// New builds a Money value normalising the currency code.
func New(amount decimal.Decimal, code string) Money {
	return Money{Amount: amount, Currency: NormalizeCode(code)}
}

// Display renders the amount with the currency symbol and two decimal places.
func Display(symbol string, amount decimal.Decimal) string {
	return symbol + amount.StringFixed(2)
}

// NormalizeCode upper-cases and trims a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Class partitions currencies into the platform's two routing classes.
type Class int

const (
	// ClassUnknown marks a code outside the configured pair.
	ClassUnknown Class = iota
	// ClassNational is the platform's home currency.
	ClassNational
	// ClassInternational covers the single supported foreign currency.
	ClassInternational
)

func (c Class) String() string {
	switch c {
	case ClassNational:
		return "national"
	case ClassInternational:
		return "international"
	default:
		return "unknown"
	}
}
