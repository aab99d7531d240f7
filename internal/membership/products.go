// Package membership answers gold membership questions and describes the
// purchasable membership plans.
package membership

import "github.com/shopspring/decimal"

// Product is a purchasable membership plan. Fees are fixed in FeeCurrency.
type Product struct {
	ID           int64           `json:"id"`
	Fee          decimal.Decimal `json:"fee"`
	FeeCurrency  string          `json:"feeCurrency"`
	PlanName     string          `json:"planName"`
	Title        string          `json:"title"`
	DurationDays int             `json:"duration"`
}

var (
	// MonthlyGold is the one month gold plan.
	MonthlyGold = Product{
		ID:           1,
		Fee:          decimal.NewFromInt(6),
		FeeCurrency:  "USD",
		PlanName:     "Monthly",
		Title:        "Gold Membership",
		DurationDays: 31,
	}
	// AnnualGold is the yearly gold plan.
	AnnualGold = Product{
		ID:           2,
		Fee:          decimal.NewFromInt(60),
		FeeCurrency:  "USD",
		PlanName:     "Annual",
		Title:        "Gold Membership",
		DurationDays: 365,
	}
)

// Products lists every plan in display order.
func Products() []Product {
	return []Product{MonthlyGold, AnnualGold}
}

// Lookup finds a plan by id.
func Lookup(id int64) (Product, bool) {
	for _, p := range Products() {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
