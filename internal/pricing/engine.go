// Package pricing folds reconciled cart lines into totals. It performs no I/O.
package pricing

import "github.com/shopspring/decimal"

// Item is one priced line as seen by the fold.
type Item struct {
	// Amount is what the line charges, in the payer's currency.
	Amount decimal.Decimal
	// Saving is the absolute gap between the charged tier and the opposite
	// tier, in the payer's currency.
	Saving decimal.Decimal
}

// Totals aggregates a cart.
type Totals struct {
	// Gross is the cart priced at the standard tier when gold pricing is in
	// effect, otherwise the sum of line amounts.
	Gross       decimal.Decimal
	GoldSavings decimal.Decimal
	Subtotal    decimal.Decimal
	ServiceFee  decimal.Decimal
	Amount      decimal.Decimal
}

// Compute folds items into totals. The subtotal is what the lines charge.
// Savings are always reported; in gold-only mode the lines already charge the
// gold tier, and Gross adds the savings back to show the standard-tier price.
func Compute(items []Item, goldOnly bool, serviceFee decimal.Decimal) Totals {
	charged := decimal.Zero
	savings := decimal.Zero
	for _, it := range items {
		charged = charged.Add(it.Amount)
		savings = savings.Add(it.Saving.Abs())
	}

	gross := charged
	if goldOnly {
		gross = charged.Add(savings)
	}
	return Totals{
		Gross:       gross,
		GoldSavings: savings,
		Subtotal:    charged,
		ServiceFee:  serviceFee,
		Amount:      charged.Add(serviceFee),
	}
}

// Group is a run of lines sharing a key, in first-seen order.
type Group[T any] struct {
	Key   int64
	Lines []T
	Total decimal.Decimal
}

// GroupBy partitions lines by key preserving the order in which keys first
// appear. amount contributes each line to its group's total.
func GroupBy[T any](lines []T, key func(T) int64, amount func(T) decimal.Decimal) []Group[T] {
	index := make(map[int64]int)
	var groups []Group[T]
	for _, line := range lines {
		k := key(line)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[T]{Key: k, Total: decimal.Zero})
		}
		groups[i].Lines = append(groups[i].Lines, line)
		groups[i].Total = groups[i].Total.Add(amount(line))
	}
	return groups
}
