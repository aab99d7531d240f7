package fx

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/festbook-cart/internal/money"
)

// TableSource yields the rate table to convert with.
type TableSource interface {
	Table(ctx context.Context) (Table, error)
}

// Conversion is a converted amount and the rate applied.
type Conversion struct {
	Amount decimal.Decimal
	Rate   decimal.Decimal
}

// Converter converts amounts between currencies using cross rates.
type Converter struct {
	Rates TableSource
}

// Convert expresses amount (in from) in to. Identical codes short-circuit to
// rate 1 without consulting the rate table.
func (c Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (Conversion, error) {
	from, to = money.NormalizeCode(from), money.NormalizeCode(to)
	if from == to {
		return Conversion{Amount: amount, Rate: decimal.NewFromInt(1)}, nil
	}
	if c.Rates == nil {
		return Conversion{}, ErrRateUnavailable
	}
	table, err := c.Rates.Table(ctx)
	if err != nil {
		return Conversion{}, err
	}
	fromRate, ok := table.Rate(from)
	if !ok {
		return Conversion{}, fmt.Errorf("%w: no rate for %s", ErrRateUnavailable, from)
	}
	toRate, ok := table.Rate(to)
	if !ok {
		return Conversion{}, fmt.Errorf("%w: no rate for %s", ErrRateUnavailable, to)
	}
	rate := toRate.Div(fromRate)
	return Conversion{Amount: amount.Mul(rate), Rate: rate}, nil
}
