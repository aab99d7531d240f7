// Package deadline finds the pricing tier a festival entry rolls forward to
// once its deadline lapses.
package deadline

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/festbook-cart/internal/store"
)

// Querier is the storage dependency of the resolver.
type Querier interface {
	NextFeeSchedule(ctx context.Context, deadlineID, categoryID int64) (store.NextTier, error)
}

// Resolver looks up successor tiers.
type Resolver struct{}

// Next returns the earliest later deadline in the same season that has an
// enabled fee schedule for categoryID. The boolean is false when every later
// tier is unpriced for the category.
func (Resolver) Next(ctx context.Context, q Querier, deadlineID, categoryID int64) (store.NextTier, bool, error) {
	next, err := q.NextFeeSchedule(ctx, deadlineID, categoryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.NextTier{}, false, nil
		}
		return store.NextTier{}, false, err
	}
	return next, true, nil
}

// Expired reports whether a tier dated deadline no longer accepts entries at now.
func Expired(deadline, now time.Time) bool {
	return now.After(deadline)
}
