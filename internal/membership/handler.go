package membership

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/festbook-cart/internal/common"
	"github.com/noah-isme/festbook-cart/internal/store"
)

// UserLookup loads the payer profile.
type UserLookup interface {
	GetUser(ctx context.Context, userID int64) (store.User, error)
}

// Handler exposes the membership catalogue over HTTP.
type Handler struct {
	Users  UserLookup
	Quoter Quoter
	Logger zerolog.Logger
}

// Plans renders the plans priced in the authenticated user's currency.
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	user, err := h.Users.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
			return
		}
		h.Logger.Error().Err(err).Int64("user_id", userID).Msg("membership plans: load user")
		common.WriteError(w, err)
		return
	}
	catalogue, err := Plans(r.Context(), h.Quoter, user.Currency)
	if err != nil {
		h.Logger.Error().Err(err).Int64("user_id", userID).Msg("membership plans: price")
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, catalogue)
}
