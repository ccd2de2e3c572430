package rest

import (
	"errors"
	"net/http"

	"github.com/huertohogar/storefront/internal/checkout"
	"github.com/huertohogar/storefront/pkg/web"
)

// Checkout turns the session's cart into an order. Requires login; the
// order record carries the user relation.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, user, ok := h.requireUser(w, r, mLogger)
	if !ok {
		return
	}
	var req checkout.Request
	if !h.decodeValid(w, r, mLogger, &req) {
		return
	}

	order, err := h.checkout.Submit(r.Context(), sess.Token(), user.ID, sess.Cart, req)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			web.RespondError(w, mLogger, http.StatusBadRequest, "Cart is empty")
		case errors.Is(err, checkout.ErrMissingAddress):
			web.RespondError(w, mLogger, http.StatusBadRequest, "Shipping address is required")
		case errors.Is(err, checkout.ErrInvalidCard):
			web.RespondError(w, mLogger, http.StatusBadRequest, "Card details are invalid")
		default:
			mLogger.ErrorContext(r.Context(), "Error submitting order", "user_id", user.ID, "error", err)
			web.RespondError(w, mLogger, http.StatusInternalServerError, "Order submission failed")
		}
		return
	}
	web.RespondJSON(w, mLogger, http.StatusCreated, order)
}
