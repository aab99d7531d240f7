package membership

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/festbook-cart/internal/fx"
	"github.com/noah-isme/festbook-cart/internal/money"
)

// Plan is a product priced for a specific payer.
type Plan struct {
	Product
	// PlanDesc is the full plan price, set for plans longer than a month.
	PlanDesc *string `json:"planDesc"`
	// PerMonthFee is the effective monthly price.
	PerMonthFee string `json:"perMonthFee"`
}

// Feature is a benefit advertised with the plans.
type Feature struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Desc   string `json:"desc"`
	Icon   string `json:"icon"`
	IconBg string `json:"iconBg"`
}

// Catalogue is the membership offer shown to a user.
type Catalogue struct {
	ProductList []Plan    `json:"productList"`
	FeatureList []Feature `json:"featureList"`
}

var features = []Feature{
	{
		ID:     1,
		Name:   "Discounts",
		Desc:   "Get 10% to 50% off on submissions for gold festivals",
		Icon:   "https://img.icons8.com/?size=60&id=60661&format=png",
		IconBg: "#32C5FF",
	},
	{
		ID:     2,
		Name:   "Priority Support",
		Desc:   "Support available on phone call 24/7",
		Icon:   "https://img.icons8.com/?size=60&id=60635&format=png",
		IconBg: "#44D7B6",
	},
}

// Quoter prices an amount for a payer.
type Quoter interface {
	Visible(ctx context.Context, amount decimal.Decimal, payer, price money.Currency) (fx.Quote, error)
}

// Plans prices every product in payer's currency.
func Plans(ctx context.Context, quoter Quoter, payer money.Currency) (Catalogue, error) {
	twelve := decimal.NewFromInt(12)
	plans := make([]Plan, 0, len(Products()))
	for _, p := range Products() {
		price := money.Currency{Code: p.FeeCurrency}
		full, err := quoter.Visible(ctx, p.Fee, payer, price)
		if err != nil {
			return Catalogue{}, err
		}
		plan := Plan{Product: p, PerMonthFee: money.Display(payer.Symbol, full.Money.Amount)}
		if p.PlanName == AnnualGold.PlanName {
			monthly, err := quoter.Visible(ctx, p.Fee.Div(twelve), payer, price)
			if err != nil {
				return Catalogue{}, err
			}
			desc := money.Display(payer.Symbol, full.Money.Amount)
			plan.PlanDesc = &desc
			plan.PerMonthFee = money.Display(payer.Symbol, monthly.Money.Amount)
		}
		plans = append(plans, plan)
	}
	return Catalogue{ProductList: plans, FeatureList: features}, nil
}
