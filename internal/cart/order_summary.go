package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/festbook-cart/internal/money"
)

// OrderItem is persisted verbatim by order creation; every field is always
// present and nil fields render as JSON null.
type OrderItem struct {
	FilmID                 *int64           `json:"filmId"`
	ProductID              *int64           `json:"productId"`
	Amount                 decimal.Decimal  `json:"amount"`
	FestivalAmount         *decimal.Decimal `json:"festivalAmount"`
	FestivalDateDeadlineID *int64           `json:"festivalDateDeadlineId"`
	ExchRate               decimal.Decimal  `json:"exchRate"`
	FestivalCategoryFeeID  *int64           `json:"festivalCategoryFeeId"`
	FestivalCurrencyID     *int64           `json:"festivalCurrencyId"`
	FestivalCurrencyCode   *string          `json:"festivalCurrencyCode"`
	Saving                 decimal.Decimal  `json:"saving"`
}

// OrderSummary is what payment capture prices an order from.
type OrderSummary struct {
	Amount                  decimal.Decimal `json:"amount"`
	Currency                money.Currency  `json:"currency"`
	OrderItems              []OrderItem     `json:"orderItems"`
	Email                   string          `json:"email"`
	PhoneNo                 string          `json:"phoneNo"`
	Name                    string          `json:"name"`
	GoldSubscriptionSavings decimal.Decimal `json:"goldSubscriptionSavings"`
}

// OrderSummary reconciles the cart and flattens it into order items. Any
// failure means the cart cannot be priced right now and no order may be
// created from it.
func (s *Service) OrderSummary(ctx context.Context, userID int64) (OrderSummary, error) {
	p, err := s.reconcile(ctx, userID)
	if err != nil {
		return OrderSummary{}, err
	}
	items := make([]OrderItem, 0, len(p.Result.Lines))
	for _, l := range p.Result.Lines {
		items = append(items, orderItem(l))
	}
	return OrderSummary{
		Amount:                  p.Totals.Amount,
		Currency:                p.User.Currency,
		OrderItems:              items,
		Email:                   p.User.Email,
		PhoneNo:                 p.User.PhoneNo,
		Name:                    p.User.FirstName,
		GoldSubscriptionSavings: p.Totals.GoldSavings,
	}, nil
}

func orderItem(l ReconciledLine) OrderItem {
	if l.Kind == ProductLine {
		productID := l.Product.ID
		return OrderItem{
			ProductID: &productID,
			Amount:    l.Fee.Amount,
			ExchRate:  l.Rate,
			Saving:    decimal.Zero,
		}
	}
	filmID := l.FilmID
	festivalAmount := l.FestivalAmount
	deadlineID := l.DeadlineID
	feeID := l.FeeScheduleID
	currencyID := l.FestivalCurrency.ID
	currencyCode := l.FestivalCurrency.Code
	return OrderItem{
		FilmID:                 &filmID,
		Amount:                 l.Fee.Amount,
		FestivalAmount:         &festivalAmount,
		FestivalDateDeadlineID: &deadlineID,
		ExchRate:               l.Rate,
		FestivalCategoryFeeID:  &feeID,
		FestivalCurrencyID:     &currencyID,
		FestivalCurrencyCode:   &currencyCode,
		Saving:                 l.Saving,
	}
}
