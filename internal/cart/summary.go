package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/festbook-cart/internal/membership"
	"github.com/noah-isme/festbook-cart/internal/money"
	"github.com/noah-isme/festbook-cart/internal/pricing"
)

const termDescription = "By clicking 'Pay and Complete Order,' you agree to the FilmFestBook Gold Terms and Conditions. " +
	"Your subscription will automatically renew at the end of each billing period unless canceled. " +
	"You may cancel your membership at any time."

// FilmRef identifies the film of an entry line.
type FilmRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// SummaryItem is one line of the cart view.
type SummaryItem struct {
	ID                    int64               `json:"id"`
	Type                  string              `json:"type"`
	FeeInCurrency         decimal.Decimal     `json:"feeInCurrency"`
	UserCurrencyID        int64               `json:"userCurrencyId"`
	Saving                decimal.Decimal     `json:"saving"`
	FestivalCategoryFeeID int64               `json:"festivalCategoryFeeId,omitempty"`
	Film                  *FilmRef            `json:"film,omitempty"`
	CategoryName          string              `json:"categoryName,omitempty"`
	DeadlineName          string              `json:"deadlineName,omitempty"`
	FestivalCurrencyCode  string              `json:"festivalCurrencyCode,omitempty"`
	Product               *membership.Product `json:"product,omitempty"`
	PlanName              string              `json:"planName,omitempty"`
	Title                 string              `json:"title,omitempty"`
}

// SummaryGroup is a festival, or the subscriptions bucket, with its lines.
type SummaryGroup struct {
	ID      int64           `json:"id,omitempty"`
	Name    string          `json:"name"`
	LogoURL string          `json:"logoUrl,omitempty"`
	Total   decimal.Decimal `json:"total"`
	Items   []SummaryItem   `json:"items"`
}

// PaymentMethods flags the gateways available for the user's currency.
type PaymentMethods struct {
	Paypal   bool `json:"paypal"`
	Razorpay bool `json:"razorpay"`
}

// Summary is the cart view.
type Summary struct {
	CartItems               []SummaryGroup       `json:"cartItems"`
	Currency                money.Currency       `json:"currency"`
	GoldMembershipAdded     bool                 `json:"goldMembershipAdded"`
	GoldSubscriptionSavings decimal.Decimal      `json:"goldSubscriptionSavings"`
	ServiceFee              decimal.Decimal      `json:"serviceFee"`
	SubTotal                decimal.Decimal      `json:"subTotal"`
	Amount                  decimal.Decimal      `json:"amount"`
	Methods                 PaymentMethods       `json:"methods"`
	ChangesReason           []string             `json:"changesReason"`
	TotalItems              int                  `json:"totalItems"`
	TermDescription         string               `json:"termDescription"`
	MembershipData          membership.Catalogue `json:"membershipData"`
}

// Summary reconciles the cart and renders the grouped cart view.
func (s *Service) Summary(ctx context.Context, userID int64) (Summary, error) {
	p, err := s.reconcile(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	catalogue, err := membership.Plans(ctx, s.Engine.Quoter, p.User.Currency)
	if err != nil {
		return Summary{}, s.fail(ctx, p.User.ID, "membership plans", err)
	}

	var entries, products []ReconciledLine
	for _, l := range p.Result.Lines {
		if l.Kind == ProductLine {
			products = append(products, l)
		} else {
			entries = append(entries, l)
		}
	}

	groups := pricing.GroupBy(entries,
		func(l ReconciledLine) int64 { return l.FestivalID },
		func(l ReconciledLine) decimal.Decimal { return l.Fee.Amount })
	cartItems := make([]SummaryGroup, 0, len(groups)+1)
	for _, g := range groups {
		group := SummaryGroup{
			ID:      g.Key,
			Name:    g.Lines[0].FestivalName,
			LogoURL: g.Lines[0].FestivalLogoURL,
			Total:   g.Total,
		}
		for _, l := range g.Lines {
			group.Items = append(group.Items, SummaryItem{
				ID:                    l.CartID,
				Type:                  "film",
				FeeInCurrency:         l.Fee.Amount,
				UserCurrencyID:        l.CurrencyID,
				Saving:                l.Saving,
				FestivalCategoryFeeID: l.FeeScheduleID,
				Film:                  &FilmRef{ID: l.FilmID, Title: l.FilmTitle},
				CategoryName:          l.CategoryName,
				DeadlineName:          l.DeadlineName,
				FestivalCurrencyCode:  l.FestivalCurrency.Code,
			})
		}
		cartItems = append(cartItems, group)
	}
	if len(products) > 0 {
		group := SummaryGroup{Name: "Subscriptions", Total: decimal.Zero}
		for _, l := range products {
			product := l.Product
			group.Total = group.Total.Add(l.Fee.Amount)
			group.Items = append(group.Items, SummaryItem{
				ID:             l.CartID,
				Type:           "product",
				FeeInCurrency:  l.Fee.Amount,
				UserCurrencyID: l.CurrencyID,
				Saving:         decimal.Zero,
				Product:        &product,
				PlanName:       product.PlanName,
				Title:          product.Title,
			})
		}
		cartItems = append(cartItems, group)
	}

	national := s.Policy.Classify(p.User.Currency.Code) == money.ClassNational
	return Summary{
		CartItems:               cartItems,
		Currency:                p.User.Currency,
		GoldMembershipAdded:     p.Result.GoldOnly,
		GoldSubscriptionSavings: p.Totals.GoldSavings,
		ServiceFee:              p.Totals.ServiceFee,
		SubTotal:                p.Totals.Subtotal,
		Amount:                  p.Totals.Amount,
		Methods:                 PaymentMethods{Paypal: !national, Razorpay: national},
		ChangesReason:           Reasons(p.Result.Events),
		TotalItems:              len(entries),
		TermDescription:         termDescription,
		MembershipData:          catalogue,
	}, nil
}
