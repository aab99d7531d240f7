package resilience

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	client := HTTPClient{
		Client: srv.Client(),
		Retry:  RetryPolicy{MaxAttempts: 3, Base: time.Millisecond},
		Target: "retry-test",
	}
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	body, err := client.Fetch(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "ok", string(body))
	require.EqualValues(t, 3, calls.Load())
}

func TestHTTPClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	breaker := NewBreaker(BreakerConfig{Target: "client-errors", MinRequests: 1}, zerolog.Nop())
	client := HTTPClient{Client: srv.Client(), Breaker: breaker, Retry: RetryPolicy{MaxAttempts: 3, Base: time.Millisecond}}
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), req)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusUnauthorized, se.Code)
	require.EqualValues(t, 1, calls.Load())
	require.Equal(t, Closed, breaker.State())
}

func TestHTTPClientStopsWhenBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	breaker := NewBreaker(BreakerConfig{Target: "open-stop", MinRequests: 2, FailureRatio: 0.5, OpenFor: time.Hour}, zerolog.Nop())
	client := HTTPClient{Client: srv.Client(), Breaker: breaker, Retry: RetryPolicy{MaxAttempts: 5, Base: time.Millisecond}}
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), req)
	require.ErrorIs(t, err, ErrOpenCircuit)
	require.EqualValues(t, 2, calls.Load())
}
