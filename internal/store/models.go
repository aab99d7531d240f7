package store

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/festbook-cart/internal/money"
)

// User is the subset of the users table the cart needs.
type User struct {
	ID         int64
	FirstName  string
	Email      string
	PhoneNo    string
	CurrencyID int64
	Currency   money.Currency
}

// FeeSchedule is a festival category fee joined with its category, festival
// and deadline.
type FeeSchedule struct {
	ID              int64
	CategoryID      int64
	CategoryName    string
	FestivalID      int64
	FestivalName    string
	FestivalLogoURL string
	StandardFee     decimal.Decimal
	GoldFee         decimal.NullDecimal
	Enabled         bool
	DeadlineID      int64
	DeadlineName    string
	DeadlineDate    time.Time
	SeasonID        int64
}

// Tier returns the gold fee when gold is requested and one is configured,
// otherwise the standard fee.
func (f FeeSchedule) Tier(gold bool) decimal.Decimal {
	return tierFee(f.StandardFee, f.GoldFee, gold)
}

// CartLine is one pending purchase. Festival entries carry FilmID and Fee;
// membership purchases carry ProductID only.
type CartLine struct {
	ID             int64
	UserID         int64
	FilmID         *int64
	FilmTitle      string
	FeeScheduleID  *int64
	ProductID      *int64
	FeeInCurrency  decimal.Decimal
	UserCurrencyID *int64
	ExchRate       decimal.Decimal
	Fee            *FeeSchedule
}

// IsProduct reports whether the line is a membership purchase.
func (l CartLine) IsProduct() bool {
	return l.ProductID != nil
}

// Season is a festival date range priced in a single currency.
type Season struct {
	ID         int64
	CurrencyID int64
	Currency   money.Currency
}

// NextTier is the next priced deadline for a category within a season.
type NextTier struct {
	DeadlineID    int64
	DeadlineName  string
	DeadlineDate  time.Time
	FeeScheduleID int64
	StandardFee   decimal.Decimal
	GoldFee       decimal.NullDecimal
}

// Tier mirrors FeeSchedule.Tier for the rolled-forward schedule.
func (n NextTier) Tier(gold bool) decimal.Decimal {
	return tierFee(n.StandardFee, n.GoldFee, gold)
}

// CartLineUpdate carries the repriced fields persisted for a stale line.
type CartLineUpdate struct {
	ID             int64
	FeeScheduleID  *int64
	FeeInCurrency  decimal.Decimal
	UserCurrencyID int64
	ExchRate       decimal.Decimal
}

// NewCartLine carries the fields of an inserted cart line.
type NewCartLine struct {
	UserID         int64
	FilmID         *int64
	FeeScheduleID  *int64
	ProductID      *int64
	FeeInCurrency  decimal.Decimal
	UserCurrencyID int64
	ExchRate       decimal.Decimal
}

// PricedFeeSchedule is an enabled fee schedule joined with its season currency.
type PricedFeeSchedule struct {
	FeeSchedule
	SeasonCurrency money.Currency
}

// NewDomainEvent describes an event to persist.
type NewDomainEvent struct {
	ID          string
	Topic       string
	AggregateID string
	Payload     []byte
}

// DomainEvent is a persisted event row.
type DomainEvent struct {
	ID          string
	Topic       string
	AggregateID string
	Payload     []byte
	OccurredAt  time.Time
}

func tierFee(standard decimal.Decimal, gold decimal.NullDecimal, wantGold bool) decimal.Decimal {
	if wantGold && gold.Valid {
		return gold.Decimal
	}
	return standard
}
