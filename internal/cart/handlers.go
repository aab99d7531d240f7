package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/festbook-cart/internal/common"
)

// Handler exposes the cart over HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
	Logger   zerolog.Logger
}

// Routes mounts the cart endpoints. Authentication is applied by the caller.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/films", h.AddFilm)
	r.Post("/films/batch", h.AddFilmToCategories)
	r.Post("/membership", h.AddMembership)
	r.Delete("/items/{id}", h.RemoveItem)
	r.Delete("/", h.Clear)
	r.Get("/summary", h.Summary)
	r.Get("/order-summary", h.OrderSummary)
}

type addFilmRequest struct {
	FilmID        int64 `json:"filmId" validate:"required,gt=0"`
	FeeScheduleID int64 `json:"festivalCategoryFeeId" validate:"required,gt=0"`
}

type addMembershipRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

func (h *Handler) AddFilm(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var req addFilmRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.Svc.AddFilm(r.Context(), userID, req.FilmID, req.FeeScheduleID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) AddFilmToCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var req AddFilmInput
	if !h.decode(w, r, &req) {
		return
	}
	ids, err := h.Svc.AddFilmToCategories(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, map[string][]int64{"ids": ids})
}

func (h *Handler) AddMembership(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var req addMembershipRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.Svc.AddMembership(r.Context(), userID, req.ProductID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	cartID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || cartID <= 0 {
		common.JSONError(w, http.StatusBadRequest, "INVALID_ID", "invalid cart item id", nil)
		return
	}
	if err := h.Svc.RemoveItem(r.Context(), userID, cartID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	n, err := h.Svc.Clear(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]int64{"removed": n})
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	summary, err := h.Svc.Summary(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, summary)
}

func (h *Handler) OrderSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	summary, err := h.Svc.OrderSummary(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, summary)
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return 0, false
	}
	return userID, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(dst); err != nil {
			var fields validator.ValidationErrors
			details := map[string]string{}
			if errors.As(err, &fields) {
				for _, f := range fields {
					details[f.Field()] = f.Tag()
				}
			}
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid input", details)
			return false
		}
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if appErr := common.WriteError(w, toAppError(err)); appErr.Status >= http.StatusInternalServerError {
		h.Logger.Error().Err(err).Msg("cart request failed")
	}
}

func toAppError(err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return common.NewAppError(http.StatusNotFound, "USER_NOT_FOUND", "User not found", err)
	case errors.Is(err, ErrFilmNotFound):
		return common.NewAppError(http.StatusNotFound, "FILM_NOT_FOUND", "Film not found", err)
	case errors.Is(err, ErrAlreadyInCart):
		return common.NewAppError(http.StatusConflict, "ALREADY_IN_CART", "Film is already in your cart for this category", err)
	case errors.Is(err, ErrInvalidInput):
		return common.NewAppError(http.StatusBadRequest, "INVALID_INPUT", "Invalid input", err)
	case errors.Is(err, ErrProductNotFound):
		return common.NewAppError(http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found!", err)
	case errors.Is(err, ErrItemNotInCart):
		return common.NewAppError(http.StatusNotFound, "ITEM_NOT_FOUND", "Item not found in cart", err)
	default:
		return common.Internal(err)
	}
}
