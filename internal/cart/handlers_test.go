package cart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/festbook-cart/internal/common"
)

func newTestRouter(f *fixture) http.Handler {
	h := &Handler{Svc: f.svc, Validate: validator.New(), Logger: zerolog.Nop()}
	r := chi.NewRouter()
	r.Route("/v1/cart", h.Routes)
	return r
}

func do(t *testing.T, handler http.Handler, method, path, body string, userID int64) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != 0 {
		req = req.WithContext(common.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error body")
	return e["code"].(string)
}

func TestHandlerRequiresUser(t *testing.T) {
	router := newTestRouter(newFixture(defaultRates()))
	rec, body := do(t, router, http.MethodGet, "/v1/cart/summary", "", 0)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestHandlerAddFilm(t *testing.T) {
	f := newFixture(defaultRates())
	router := newTestRouter(f)

	rec, _ := do(t, router, http.MethodPost, "/v1/cart/films", `{"filmId":50,"festivalCategoryFeeId":301}`, nationalUser)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.db.lines, 1)

	rec, body := do(t, router, http.MethodPost, "/v1/cart/films", `{"filmId":50,"festivalCategoryFeeId":301}`, nationalUser)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "ALREADY_IN_CART", errorCode(t, body))

	rec, body = do(t, router, http.MethodPost, "/v1/cart/films", `{"filmId":77,"festivalCategoryFeeId":301}`, nationalUser)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "FILM_NOT_FOUND", errorCode(t, body))

	rec, body = do(t, router, http.MethodPost, "/v1/cart/films", `{"filmId":50}`, nationalUser)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
}

func TestHandlerBatchAndMembership(t *testing.T) {
	f := newFixture(defaultRates())
	router := newTestRouter(f)

	rec, _ := do(t, router, http.MethodPost, "/v1/cart/films/batch",
		`{"filmId":50,"festivalCategoryFeeIds":[301,303],"includeGoldMembership":true}`, nationalUser)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.db.lines, 3)

	rec, body := do(t, router, http.MethodPost, "/v1/cart/membership", `{"productId":9}`, nationalUser)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "PRODUCT_NOT_FOUND", errorCode(t, body))
	e := body["error"].(map[string]any)
	require.Equal(t, "Product not found!", e["message"])
}

func TestHandlerRemoveItem(t *testing.T) {
	f := newFixture(defaultRates())
	router := newTestRouter(f)
	id := f.db.entry(nationalUser, 50, shortFilmEarly, "2000", inr.ID)

	rec, _ := do(t, router, http.MethodDelete, "/v1/cart/items/"+strconv.FormatInt(id, 10), "", nationalUser)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, body := do(t, router, http.MethodDelete, "/v1/cart/items/"+strconv.FormatInt(id, 10), "", nationalUser)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "ITEM_NOT_FOUND", errorCode(t, body))

	rec, _ = do(t, router, http.MethodDelete, "/v1/cart/items/abc", "", nationalUser)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerSummaryHidesServerErrors(t *testing.T) {
	f := newFixture(downRates{})
	router := newTestRouter(f)
	f.db.entry(internationalUser, 50, shortFilmEarly, "25", usd.ID)

	rec, body := do(t, router, http.MethodGet, "/v1/cart/order-summary", "", internationalUser)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "SERVER_ERROR", errorCode(t, body))
	require.NotContains(t, rec.Body.String(), "rate")
}

func TestHandlerSummary(t *testing.T) {
	f := newFixture(defaultRates())
	router := newTestRouter(f)
	f.db.entry(nationalUser, 50, shortFilmEarly, "2000", inr.ID)

	rec, body := do(t, router, http.MethodGet, "/v1/cart/summary", "", nationalUser)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	require.EqualValues(t, 1, data["totalItems"])
	require.Equal(t, true, data["methods"].(map[string]any)["razorpay"])
}
