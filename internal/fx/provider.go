package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/festbook-cart/internal/resilience"
)

// HTTPProvider reads historical rates from an exchangerate.host style API.
type HTTPProvider struct {
	BaseURL   string
	AccessKey string
	Client    resilience.HTTPClient
}

type historicalResponse struct {
	Success bool                       `json:"success"`
	Quotes  map[string]decimal.Decimal `json:"quotes"`
}

// Historical implements RateProvider.
func (p HTTPProvider) Historical(ctx context.Context, date string) (Table, error) {
	endpoint, err := url.Parse(strings.TrimRight(p.BaseURL, "/") + "/historical")
	if err != nil {
		return nil, fmt.Errorf("fx: provider url: %w", err)
	}
	query := endpoint.Query()
	if p.AccessKey != "" {
		query.Set("access_key", p.AccessKey)
	}
	query.Set("date", date)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	body, err := p.Client.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrRateUnavailable, date, err)
	}
	var payload historicalResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrRateUnavailable, date, err)
	}
	if !payload.Success || len(payload.Quotes) == 0 {
		return nil, fmt.Errorf("%w: provider reported no quotes for %s", ErrRateUnavailable, date)
	}
	return normalizeQuotes(payload.Quotes), nil
}

// normalizeQuotes turns "USDINR"-style cross quotes into a table keyed by the
// quoted currency, with the base currency pinned to one.
func normalizeQuotes(quotes map[string]decimal.Decimal) Table {
	table := make(Table, len(quotes)+1)
	for pair, rate := range quotes {
		code := strings.TrimPrefix(strings.ToUpper(pair), BaseCurrency)
		if code == "" {
			continue
		}
		table[code] = rate
	}
	table[BaseCurrency] = decimal.NewFromInt(1)
	return table
}
