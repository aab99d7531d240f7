package security

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func echoBody() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "too large", http.StatusRequestEntityTooLarge)
			return
		}
		_, _ = w.Write(data)
	})
}

func TestBodyLimitPassesSmallBody(t *testing.T) {
	h := BodyLimit{Max: 16}.Middleware(echoBody())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/cart/films", strings.NewReader(`{"filmId":1}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `{"filmId":1}`, rec.Body.String())
}

func TestBodyLimitRejectsDeclaredLength(t *testing.T) {
	called := false
	h := BodyLimit{Max: 4}.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("oversized")))

	require.False(t, called)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Contains(t, rec.Body.String(), "PAYLOAD_TOO_LARGE")
}

func TestBodyLimitCapsStreamedBody(t *testing.T) {
	h := BodyLimit{Max: 4}.Middleware(echoBody())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("oversized"))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHeadersSetsHSTSOnlyOverTLS(t *testing.T) {
	h := Headers{HSTSMaxAge: 3600}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "https://festbook.test/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "max-age=3600; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}
