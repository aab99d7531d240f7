package fx

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, rates TableSource, ops zerolog.Logger) Router {
	t.Helper()
	policy, err := NewPolicy("INR", "USD")
	require.NoError(t, err)
	return Router{Policy: policy, Converter: Converter{Rates: rates}, Ops: ops}
}

func TestNewPolicyRejectsSameCurrency(t *testing.T) {
	_, err := NewPolicy("usd", "USD")
	require.Error(t, err)
	_, err = NewPolicy("", "USD")
	require.Error(t, err)
}

func TestSelectRoute(t *testing.T) {
	p, err := NewPolicy("INR", "USD")
	require.NoError(t, err)

	require.Equal(t, NationalToNational, p.SelectRoute("INR", "INR"))
	require.Equal(t, NationalFromInternational, p.SelectRoute("INR", "USD"))
	require.Equal(t, InternationalToNational, p.SelectRoute("USD", "INR"))
	require.Equal(t, InternationalIdentity, p.SelectRoute("usd", "USD"))
	require.Equal(t, Unsupported, p.SelectRoute("EUR", "INR"))
	require.Equal(t, Unsupported, p.SelectRoute("USD", "EUR"))
}

func TestVisibleNationalIdentity(t *testing.T) {
	r := newRouter(t, failingTable{}, zerolog.Nop())
	q, err := r.Visible(context.Background(), dec("20"), inr, inr)
	require.NoError(t, err)
	require.True(t, q.Money.Amount.Equal(dec("20")))
	require.Equal(t, "INR", q.Money.Currency)
	require.Equal(t, inr.ID, q.CurrencyID)
	require.True(t, q.Rate.Equal(dec("1")))
}

func TestVisibleInternationalPayerNationalFestival(t *testing.T) {
	r := newRouter(t, staticTable{"INR": dec("1"), "USD": dec("0.012")}, zerolog.Nop())
	q, err := r.Visible(context.Background(), dec("2000"), usd, inr)
	require.NoError(t, err)
	require.True(t, q.Money.Amount.Equal(dec("24")), q.Money.Amount.String())
	require.True(t, q.Rate.Equal(dec("0.012")))
	require.Equal(t, "USD", q.Money.Currency)
	require.Equal(t, usd.ID, q.CurrencyID)
}

func TestVisibleNationalPayerForeignFestival(t *testing.T) {
	r := newRouter(t, staticTable{"USD": dec("1"), "INR": dec("80")}, zerolog.Nop())
	q, err := r.Visible(context.Background(), dec("25"), inr, usd)
	require.NoError(t, err)
	require.True(t, q.Money.Amount.Equal(dec("2000")))
	require.True(t, q.Rate.Equal(dec("80")))
	require.Equal(t, inr.ID, q.CurrencyID)
}

func TestVisibleUnsupportedLogsOnOpsChannel(t *testing.T) {
	var buf bytes.Buffer
	ops := zerolog.New(&buf).With().Str("channel", "ops").Logger()
	r := newRouter(t, staticTable{"USD": dec("1")}, ops)

	_, err := r.Visible(context.Background(), dec("10"), eur, inr)
	require.ErrorIs(t, err, ErrRoutingUnsupported)
	require.Contains(t, buf.String(), `"channel":"ops"`)
	require.Contains(t, buf.String(), "fx routing unsupported")
}

func TestVisibleConversionFailure(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(t, failingTable{}, zerolog.New(&buf))
	_, err := r.Visible(context.Background(), dec("10"), usd, inr)
	require.ErrorIs(t, err, ErrRateUnavailable)
	require.Contains(t, buf.String(), "fx conversion failed")
}
