// Package security holds the response hardening applied to every API route.
package security

import (
	"net/http"
	"strconv"

	"github.com/noah-isme/festbook-cart/internal/common"
)

// DefaultMaxBody bounds cart request payloads. The largest is a batch add
// carrying a list of fee ids.
const DefaultMaxBody = 64 << 10

// BodyLimit rejects payloads larger than Max bytes with 413.
type BodyLimit struct {
	Max int64
}

// Middleware implements chi middleware. Bodies without a declared length are
// capped while they are read.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	max := b.Max
	if max <= 0 {
		max = DefaultMaxBody
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, max)
		next.ServeHTTP(w, r)
	})
}

// Headers sets the static response headers for a JSON API.
type Headers struct {
	// HSTSMaxAge in seconds; zero disables Strict-Transport-Security.
	HSTSMaxAge int
}

// Middleware implements chi middleware.
func (h Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("X-Content-Type-Options", "nosniff")
		hdr.Set("X-Frame-Options", "DENY")
		hdr.Set("Referrer-Policy", "no-referrer")
		hdr.Set("Cache-Control", "no-store")
		if h.HSTSMaxAge > 0 && (r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https") {
			hdr.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(h.HSTSMaxAge)+"; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}
