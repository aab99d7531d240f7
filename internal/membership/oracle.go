package membership

import (
	"context"
	"fmt"
	"time"
)

// Querier is the storage dependency of the oracle.
type Querier interface {
	HasActiveSubscription(ctx context.Context, userID int64, at time.Time) (bool, error)
}

// Oracle reports gold membership derived from subscription records.
type Oracle struct{}

// IsGold reports whether userID holds an active subscription covering now.
// Storage failures are returned rather than read as "not gold" so a pass
// never silently prices at the wrong tier.
func (Oracle) IsGold(ctx context.Context, q Querier, userID int64, now time.Time) (bool, error) {
	gold, err := q.HasActiveSubscription(ctx, userID, now)
	if err != nil {
		return false, fmt.Errorf("membership: check subscription: %w", err)
	}
	return gold, nil
}
