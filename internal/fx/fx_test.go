package fx

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/festbook-cart/internal/money"
)

var (
	inr = money.Currency{ID: 1, Code: "INR", Symbol: "₹"}
	usd = money.Currency{ID: 2, Code: "USD", Symbol: "$"}
	eur = money.Currency{ID: 3, Code: "EUR", Symbol: "€"}
)

type stubProvider struct {
	table Table
	err   error
	calls atomic.Int32
	dates []string
}

func (p *stubProvider) Historical(_ context.Context, date string) (Table, error) {
	p.calls.Add(1)
	p.dates = append(p.dates, date)
	if p.err != nil {
		return nil, p.err
	}
	return p.table, nil
}

type staticTable Table

func (s staticTable) Table(context.Context) (Table, error) { return Table(s), nil }

type failingTable struct{}

func (failingTable) Table(context.Context) (Table, error) { return nil, ErrRateUnavailable }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

var errBoom = errors.New("boom")
