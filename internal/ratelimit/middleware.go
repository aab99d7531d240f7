package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/festbook-cart/internal/common"
)

// Handler enforces a limiter before delegating to the next handler. Store
// failures let the request through.
type Handler struct {
	Limiter *limiter.Limiter
	Key     func(*http.Request) string
}

// ByUser keys requests by authenticated user, falling back to client address.
func ByUser(r *http.Request) string {
	if id, ok := common.UserID(r.Context()); ok {
		return "user:" + strconv.FormatInt(id, 10)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// Middleware implements chi middleware.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil {
		return next
	}
	key := h.Key
	if key == nil {
		key = ByUser
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lctx, err := h.Limiter.Get(r.Context(), key(r))
		if err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
		if lctx.Reached {
			retry := time.Until(time.Unix(lctx.Reset, 0)).Seconds()
			if retry < 0 {
				retry = 0
			}
			headers.Set("Retry-After", strconv.Itoa(int(retry)))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
