package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/noah-isme/festbook-cart/internal/common"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func serve(h http.Handler, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/cart/films", nil)
	if userID != 0 {
		req = req.WithContext(common.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareLimitsPerUser(t *testing.T) {
	h := Handler{Limiter: New(memory.NewStore(), 2)}.Middleware(okHandler())

	require.Equal(t, http.StatusOK, serve(h, 1).Code)
	rec := serve(h, 1)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = serve(h, 1)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	require.Equal(t, http.StatusOK, serve(h, 2).Code)
}

func TestByUserFallsBackToAddress(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5123"
	require.Equal(t, "ip:203.0.113.9", ByUser(req))

	req = req.WithContext(common.WithUserID(context.Background(), 5))
	require.Equal(t, "user:5", ByUser(req))
}

func TestRedisLimiterSharesBudget(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	lim, err := NewRedisLimiter(client, "cart-rl", 1)
	require.NoError(t, err)
	first := Handler{Limiter: lim}.Middleware(okHandler())
	second := Handler{Limiter: lim}.Middleware(okHandler())

	require.Equal(t, http.StatusOK, serve(first, 3).Code)
	require.Equal(t, http.StatusTooManyRequests, serve(second, 3).Code)
}
