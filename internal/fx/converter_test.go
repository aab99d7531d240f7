package fx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertIdentitySkipsRateTable(t *testing.T) {
	conv, err := Converter{Rates: failingTable{}}.Convert(context.Background(), dec("19.99"), "usd", "USD")
	require.NoError(t, err)
	require.True(t, conv.Amount.Equal(dec("19.99")))
	require.True(t, conv.Rate.Equal(dec("1")))
}

func TestConvertUsesCrossRate(t *testing.T) {
	rates := staticTable{"USD": dec("1"), "INR": dec("80"), "EUR": dec("0.8")}
	c := Converter{Rates: rates}

	conv, err := c.Convert(context.Background(), dec("1600"), "INR", "USD")
	require.NoError(t, err)
	require.True(t, conv.Rate.Equal(dec("0.0125")), conv.Rate.String())
	require.True(t, conv.Amount.Equal(dec("20")), conv.Amount.String())

	conv, err = c.Convert(context.Background(), dec("10"), "EUR", "INR")
	require.NoError(t, err)
	require.True(t, conv.Rate.Equal(dec("100")))
	require.True(t, conv.Amount.Equal(dec("1000")))
}

func TestConvertMissingCurrency(t *testing.T) {
	_, err := Converter{Rates: staticTable{"USD": dec("1")}}.Convert(context.Background(), dec("5"), "USD", "JPY")
	require.ErrorIs(t, err, ErrRateUnavailable)

	_, err = Converter{}.Convert(context.Background(), dec("5"), "USD", "INR")
	require.ErrorIs(t, err, ErrRateUnavailable)
}

func TestConvertPropagatesTableFailure(t *testing.T) {
	_, err := Converter{Rates: failingTable{}}.Convert(context.Background(), dec("5"), "USD", "INR")
	require.ErrorIs(t, err, ErrRateUnavailable)
}
