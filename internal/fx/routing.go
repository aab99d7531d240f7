package fx

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/festbook-cart/internal/money"
)

// Route is one of the supported (payer, price list) currency pairings.
type Route int

const (
	// Unsupported covers every pairing outside the policy.
	Unsupported Route = iota
	// NationalToNational: national payer, nationally priced festival.
	NationalToNational
	// NationalFromInternational: national payer, foreign priced festival.
	// The price is converted into the national currency.
	NationalFromInternational
	// InternationalToNational: international payer, nationally priced
	// festival. The national price is converted into the payer's currency.
	InternationalToNational
	// InternationalIdentity: payer and festival share the international
	// currency.
	InternationalIdentity
)

func (r Route) String() string {
	switch r {
	case NationalToNational:
		return "national_to_national"
	case NationalFromInternational:
		return "national_from_international"
	case InternationalToNational:
		return "international_to_national"
	case InternationalIdentity:
		return "international_identity"
	default:
		return "unsupported"
	}
}

// Policy names the platform's single national and single international
// currency.
type Policy struct {
	National      string
	International string
}

// NewPolicy validates and normalises the currency pair.
func NewPolicy(national, international string) (Policy, error) {
	p := Policy{National: money.NormalizeCode(national), International: money.NormalizeCode(international)}
	if p.National == "" || p.International == "" {
		return Policy{}, errors.New("fx: national and international currencies are required")
	}
	if p.National == p.International {
		return Policy{}, fmt.Errorf("fx: national and international currency must differ (both %s)", p.National)
	}
	return p, nil
}

// Classify places code in its routing class.
func (p Policy) Classify(code string) money.Class {
	switch money.NormalizeCode(code) {
	case p.National:
		return money.ClassNational
	case p.International:
		return money.ClassInternational
	default:
		return money.ClassUnknown
	}
}

// SelectRoute picks the route for a payer currency and a price list currency.
func (p Policy) SelectRoute(payer, price string) Route {
	type pair struct{ payer, price money.Class }
	switch (pair{p.Classify(payer), p.Classify(price)}) {
	case pair{money.ClassNational, money.ClassNational}:
		return NationalToNational
	case pair{money.ClassNational, money.ClassInternational}:
		return NationalFromInternational
	case pair{money.ClassInternational, money.ClassNational}:
		return InternationalToNational
	case pair{money.ClassInternational, money.ClassInternational}:
		return InternationalIdentity
	default:
		return Unsupported
	}
}

// Quote is a fee as the payer sees it.
type Quote struct {
	Money      money.Money
	CurrencyID int64
	Rate       decimal.Decimal
}

// Router converts festival prices into the payer's currency.
type Router struct {
	Policy    Policy
	Converter Converter
	Ops       zerolog.Logger
}

// Visible returns amount, priced in price, as seen by a payer holding payer.
// The quote is always tagged with the payer's currency.
func (r Router) Visible(ctx context.Context, amount decimal.Decimal, payer, price money.Currency) (Quote, error) {
	route := r.Policy.SelectRoute(payer.Code, price.Code)
	quote := Quote{CurrencyID: payer.ID}

	switch route {
	case NationalToNational, InternationalIdentity:
		quote.Money = money.New(amount, payer.Code)
		quote.Rate = decimal.NewFromInt(1)
		return quote, nil
	case NationalFromInternational, InternationalToNational:
		conv, err := r.Converter.Convert(ctx, amount, price.Code, payer.Code)
		if err != nil {
			r.Ops.Error().Err(err).
				Str("route", route.String()).
				Str("payer_currency", payer.Code).
				Str("price_currency", price.Code).
				Msg("fx conversion failed")
			return Quote{}, err
		}
		quote.Money = money.New(conv.Amount, payer.Code)
		quote.Rate = conv.Rate
		return quote, nil
	default:
		r.Ops.Error().
			Str("payer_currency", payer.Code).
			Str("price_currency", price.Code).
			Msg("fx routing unsupported")
		return Quote{}, fmt.Errorf("%w: %s -> %s", ErrRoutingUnsupported, price.Code, payer.Code)
	}
}
