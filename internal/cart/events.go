package cart

import "fmt"

// EventKind is a reconciliation outcome for a single cart line.
type EventKind int

const (
	// CurrencyChanged: the line was priced in a currency the user no longer holds.
	CurrencyChanged EventKind = iota + 1
	// TierChanged: the line was priced at the standard fee and now prices at gold.
	TierChanged
	// RateMoved: the exchange rate between user and festival currency moved.
	RateMoved
	// FeeUpdated: the organiser changed the fee.
	FeeUpdated
	// DeadlineRolled: the deadline lapsed and the line moved to the next tier.
	DeadlineRolled
	// LineEvicted: every deadline lapsed and the line was removed.
	LineEvicted
)

func (k EventKind) String() string {
	switch k {
	case CurrencyChanged:
		return "currency_changed"
	case TierChanged:
		return "tier_changed"
	case RateMoved:
		return "rate_moved"
	case FeeUpdated:
		return "fee_updated"
	case DeadlineRolled:
		return "deadline_rolled"
	case LineEvicted:
		return "line_evicted"
	default:
		return "unknown"
	}
}

// cartWide kinds are reported once per pass regardless of how many lines hit them.
func (k EventKind) cartWide() bool {
	return k == CurrencyChanged || k == TierChanged
}

// Event records what reconciliation did to a line.
type Event struct {
	Kind         EventKind `json:"kind"`
	LineID       int64     `json:"lineId"`
	Category     string    `json:"category,omitempty"`
	FromDeadline string    `json:"fromDeadline,omitempty"`
	ToDeadline   string    `json:"toDeadline,omitempty"`
}

// Reason renders the event as user-facing text.
func (e Event) Reason() string {
	switch e.Kind {
	case CurrencyChanged:
		return "Currency Change"
	case TierChanged:
		return "Upgraded to gold member"
	case RateMoved:
		return fmt.Sprintf("%s Updated due to currency rate changes", e.Category)
	case FeeUpdated:
		return fmt.Sprintf("%s fee was updated", e.Category)
	case DeadlineRolled:
		return fmt.Sprintf("%s deadline changed from %s to %s", e.Category, e.FromDeadline, e.ToDeadline)
	case LineEvicted:
		return fmt.Sprintf("%s removed as all deadline expired", e.Category)
	default:
		return ""
	}
}

// Reasons renders events in order. Line-level reasons are emitted per line;
// currency and gold upgrade reasons follow once each.
func Reasons(events []Event) []string {
	reasons := make([]string, 0, len(events))
	var currency, gold bool
	for _, ev := range events {
		switch {
		case ev.Kind == CurrencyChanged:
			currency = true
		case ev.Kind == TierChanged:
			gold = true
		case !ev.Kind.cartWide():
			reasons = append(reasons, ev.Reason())
		}
	}
	if currency {
		reasons = append(reasons, Event{Kind: CurrencyChanged}.Reason())
	}
	if gold {
		reasons = append(reasons, Event{Kind: TierChanged}.Reason())
	}
	return reasons
}

// MarshalText renders the kind by name in JSON payloads.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
