package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/festbook-cart/internal/deadline"
	"github.com/noah-isme/festbook-cart/internal/fx"
	"github.com/noah-isme/festbook-cart/internal/membership"
	"github.com/noah-isme/festbook-cart/internal/money"
	"github.com/noah-isme/festbook-cart/internal/pricing"
	"github.com/noah-isme/festbook-cart/internal/store"
)

// Querier is every storage call the cart makes. *store.Queries and
// *store.UnitOfWork satisfy it.
type Querier interface {
	deadline.Querier
	membership.Querier

	GetUser(ctx context.Context, userID int64) (store.User, error)
	ListCartLines(ctx context.Context, userID int64) ([]store.CartLine, error)
	GetSeason(ctx context.Context, seasonID int64) (store.Season, error)
	UpdateCartLine(ctx context.Context, arg store.CartLineUpdate) error
	DeleteCartLine(ctx context.Context, id int64) error
	DeleteUserCartLine(ctx context.Context, userID, id int64) (bool, error)
	ClearCart(ctx context.Context, userID int64) (int64, error)
	InsertCartLine(ctx context.Context, arg store.NewCartLine) (int64, error)
	CartHasFilmEntry(ctx context.Context, userID, filmID int64, feeScheduleIDs []int64) (bool, error)
	FindMembershipLine(ctx context.Context, userID int64) (int64, error)
	FilmExists(ctx context.Context, filmID int64) (bool, error)
	ListEnabledFeeSchedules(ctx context.Context, ids []int64) ([]store.PricedFeeSchedule, error)
}

// Quoter prices festival amounts in the payer's currency.
type Quoter interface {
	Visible(ctx context.Context, amount decimal.Decimal, payer, price money.Currency) (fx.Quote, error)
}

// LineKind distinguishes festival entries from membership purchases.
type LineKind int

const (
	EntryLine LineKind = iota + 1
	ProductLine
)

// ReconciledLine is a cart line after a reconciliation pass.
type ReconciledLine struct {
	CartID int64
	Kind   LineKind

	FilmID    int64
	FilmTitle string
	Product   membership.Product

	FeeScheduleID   int64
	DeadlineID      int64
	DeadlineName    string
	CategoryName    string
	FestivalID      int64
	FestivalName    string
	FestivalLogoURL string

	// Fee is what the line charges in the user's currency.
	Fee        money.Money
	CurrencyID int64
	Rate       decimal.Decimal
	// FestivalAmount is the charged tier in the festival's own currency.
	FestivalAmount   decimal.Decimal
	FestivalCurrency money.Currency
	Saving           decimal.Decimal
}

// Pass is the input of one reconciliation.
type Pass struct {
	User  store.User
	Lines []store.CartLine
	Now   time.Time
}

// Result is the outcome of one reconciliation.
type Result struct {
	Lines []ReconciledLine
	// Events are in line order.
	Events []Event
	// Gold reports an active membership; GoldOnly also covers a membership in the cart.
	Gold     bool
	GoldOnly bool
}

// Items projects the lines for the pricing fold.
func (r Result) Items() []pricing.Item {
	items := make([]pricing.Item, 0, len(r.Lines))
	for _, l := range r.Lines {
		items = append(items, pricing.Item{Amount: l.Fee.Amount, Saving: l.Saving})
	}
	return items
}

// Engine re-derives cart line prices from current fee schedules, rates,
// deadlines and membership, repairing stale lines through the querier it is
// handed.
type Engine struct {
	Quoter     Quoter
	Deadlines  deadline.Resolver
	Membership membership.Oracle
	Logger     zerolog.Logger
}

// Reconcile processes pass.Lines sequentially. Every write goes through q;
// the caller owns the transaction and must discard it on error.
func (e Engine) Reconcile(ctx context.Context, q Querier, pass Pass) (Result, error) {
	gold, err := e.Membership.IsGold(ctx, q, pass.User.ID, pass.Now)
	if err != nil {
		return Result{}, err
	}
	res := Result{Gold: gold, GoldOnly: gold || hasMembershipLine(pass.Lines)}

	seasons := make(map[int64]store.Season)
	for _, line := range pass.Lines {
		if line.IsProduct() {
			out, ok, err := e.product(ctx, pass.User, line)
			if err != nil {
				return Result{}, err
			}
			if ok {
				res.Lines = append(res.Lines, out)
			}
			continue
		}

		if line.Fee == nil || line.FilmID == nil {
			return Result{}, fmt.Errorf("cart line %d has no fee schedule", line.ID)
		}
		season, ok := seasons[line.Fee.SeasonID]
		if !ok {
			season, err = q.GetSeason(ctx, line.Fee.SeasonID)
			if err != nil {
				return Result{}, fmt.Errorf("load season %d: %w", line.Fee.SeasonID, err)
			}
			seasons[line.Fee.SeasonID] = season
		}

		var (
			out    ReconciledLine
			events []Event
			kept   bool
		)
		// A disabled schedule is treated like a passed deadline.
		if !line.Fee.Enabled || deadline.Expired(line.Fee.DeadlineDate, pass.Now) {
			out, events, kept, err = e.rollForward(ctx, q, pass.User, line, season, res.GoldOnly)
		} else {
			out, events, err = e.reprice(ctx, q, pass.User, line, season, res.GoldOnly)
			kept = true
		}
		if err != nil {
			return Result{}, err
		}
		res.Events = append(res.Events, events...)
		if kept {
			res.Lines = append(res.Lines, out)
		}
	}
	return res, nil
}

func hasMembershipLine(lines []store.CartLine) bool {
	for _, line := range lines {
		if !line.IsProduct() {
			continue
		}
		if _, ok := membership.Lookup(*line.ProductID); ok {
			return true
		}
	}
	return false
}

// product prices a membership line at the plan's fixed fee. Lines naming an
// unknown plan are skipped.
func (e Engine) product(ctx context.Context, user store.User, line store.CartLine) (ReconciledLine, bool, error) {
	product, ok := membership.Lookup(*line.ProductID)
	if !ok {
		e.Logger.Warn().Int64("cart_id", line.ID).Int64("product_id", *line.ProductID).Msg("cart line references unknown product")
		return ReconciledLine{}, false, nil
	}
	quote, err := e.Quoter.Visible(ctx, product.Fee, user.Currency, money.Currency{Code: product.FeeCurrency})
	if err != nil {
		return ReconciledLine{}, false, fmt.Errorf("price product %d: %w", product.ID, err)
	}
	return ReconciledLine{
		CartID:     line.ID,
		Kind:       ProductLine,
		Product:    product,
		Fee:        quote.Money,
		CurrencyID: quote.CurrencyID,
		Rate:       quote.Rate,
		Saving:     decimal.Zero,
	}, true, nil
}

// rollForward moves an expired or disabled line to the next priced deadline,
// or evicts it when there is none.
func (e Engine) rollForward(ctx context.Context, q Querier, user store.User, line store.CartLine, season store.Season, goldOnly bool) (ReconciledLine, []Event, bool, error) {
	fee := line.Fee
	next, ok, err := e.Deadlines.Next(ctx, q, fee.DeadlineID, fee.CategoryID)
	if err != nil {
		return ReconciledLine{}, nil, false, fmt.Errorf("next deadline for line %d: %w", line.ID, err)
	}
	if !ok {
		if err := q.DeleteCartLine(ctx, line.ID); err != nil {
			return ReconciledLine{}, nil, false, fmt.Errorf("evict line %d: %w", line.ID, err)
		}
		return ReconciledLine{}, []Event{{Kind: LineEvicted, LineID: line.ID, Category: fee.CategoryName}}, false, nil
	}

	charged := next.Tier(goldOnly)
	quote, saving, err := e.quoteWithSaving(ctx, user, season, charged, next.Tier(!goldOnly))
	if err != nil {
		return ReconciledLine{}, nil, false, err
	}
	if err := q.UpdateCartLine(ctx, store.CartLineUpdate{
		ID:             line.ID,
		FeeScheduleID:  &next.FeeScheduleID,
		FeeInCurrency:  quote.Money.Amount,
		UserCurrencyID: user.CurrencyID,
		ExchRate:       quote.Rate,
	}); err != nil {
		return ReconciledLine{}, nil, false, fmt.Errorf("roll line %d: %w", line.ID, err)
	}

	out := entryLine(line, season, quote, charged, saving)
	out.FeeScheduleID = next.FeeScheduleID
	out.DeadlineID = next.DeadlineID
	out.DeadlineName = next.DeadlineName
	ev := Event{
		Kind:         DeadlineRolled,
		LineID:       line.ID,
		Category:     fee.CategoryName,
		FromDeadline: fee.DeadlineName,
		ToDeadline:   next.DeadlineName,
	}
	return out, []Event{ev}, true, nil
}

// reprice prices a live line at its current tier and persists it once when
// any staleness condition holds.
func (e Engine) reprice(ctx context.Context, q Querier, user store.User, line store.CartLine, season store.Season, goldOnly bool) (ReconciledLine, []Event, error) {
	fee := line.Fee
	charged := fee.Tier(goldOnly)
	quote, saving, err := e.quoteWithSaving(ctx, user, season, charged, fee.Tier(!goldOnly))
	if err != nil {
		return ReconciledLine{}, nil, err
	}

	var events []Event
	feeChanged := !line.FeeInCurrency.Equal(quote.Money.Amount)
	if line.UserCurrencyID == nil || *line.UserCurrencyID != user.CurrencyID {
		events = append(events, Event{Kind: CurrencyChanged, LineID: line.ID, Category: fee.CategoryName})
	}
	// The stored amount is compared with the raw standard fee in festival
	// currency: a line priced at standard that no longer matches signals a
	// gold upgrade.
	if feeChanged && line.FeeInCurrency.Equal(fee.StandardFee) {
		events = append(events, Event{Kind: TierChanged, LineID: line.ID, Category: fee.CategoryName})
	}
	if feeChanged && len(events) == 0 {
		kind := FeeUpdated
		if user.CurrencyID != season.CurrencyID {
			kind = RateMoved
		}
		events = append(events, Event{Kind: kind, LineID: line.ID, Category: fee.CategoryName})
	}

	if len(events) > 0 {
		if err := q.UpdateCartLine(ctx, store.CartLineUpdate{
			ID:             line.ID,
			FeeInCurrency:  quote.Money.Amount,
			UserCurrencyID: user.CurrencyID,
			ExchRate:       quote.Rate,
		}); err != nil {
			return ReconciledLine{}, nil, fmt.Errorf("update line %d: %w", line.ID, err)
		}
	}

	out := entryLine(line, season, quote, charged, saving)
	out.FeeScheduleID = fee.ID
	out.DeadlineID = fee.DeadlineID
	out.DeadlineName = fee.DeadlineName
	return out, events, nil
}

// quoteWithSaving prices the charged tier and the opposite tier, returning
// the absolute gap between them as the line's saving.
func (e Engine) quoteWithSaving(ctx context.Context, user store.User, season store.Season, charged, other decimal.Decimal) (fx.Quote, decimal.Decimal, error) {
	quote, err := e.Quoter.Visible(ctx, charged, user.Currency, season.Currency)
	if err != nil {
		return fx.Quote{}, decimal.Zero, fmt.Errorf("price in %s: %w", user.Currency.Code, err)
	}
	counter, err := e.Quoter.Visible(ctx, other, user.Currency, season.Currency)
	if err != nil {
		return fx.Quote{}, decimal.Zero, fmt.Errorf("price opposite tier in %s: %w", user.Currency.Code, err)
	}
	return quote, counter.Money.Amount.Sub(quote.Money.Amount).Abs(), nil
}

func entryLine(line store.CartLine, season store.Season, quote fx.Quote, charged, saving decimal.Decimal) ReconciledLine {
	return ReconciledLine{
		CartID:           line.ID,
		Kind:             EntryLine,
		FilmID:           *line.FilmID,
		FilmTitle:        line.FilmTitle,
		CategoryName:     line.Fee.CategoryName,
		FestivalID:       line.Fee.FestivalID,
		FestivalName:     line.Fee.FestivalName,
		FestivalLogoURL:  line.Fee.FestivalLogoURL,
		Fee:              quote.Money,
		CurrencyID:       quote.CurrencyID,
		Rate:             quote.Rate,
		FestivalAmount:   charged,
		FestivalCurrency: season.Currency,
		Saving:           saving,
	}
}
