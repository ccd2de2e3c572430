package rest

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/huertohogar/storefront/internal/cart"
	"github.com/huertohogar/storefront/internal/catalog"
	"github.com/huertohogar/storefront/pkg/money"
	"github.com/huertohogar/storefront/pkg/web"
)

// cartResponse is the cart as rendered to the client: the line items plus
// the derived badge and total values.
type cartResponse struct {
	Items          []cart.Item `json:"items"`
	Count          int         `json:"count"`
	DisplayCount   string      `json:"displayCount"`
	Total          int64       `json:"total"`
	FormattedTotal string      `json:"formattedTotal"`
}

type addCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Qty       int    `json:"qty" validate:"omitempty,min=1"`
}

type updateCartItemRequest struct {
	Qty int `json:"qty"`
}

// GetCart returns the session's cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.currentSession(w, r, mLogger)
	if !ok {
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, renderCart(sess.Cart))
}

// AddCartItem adds a product to the cart. The local cart is updated
// synchronously; the response never waits on remote reconciliation.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.currentSession(w, r, mLogger)
	if !ok {
		return
	}
	var req addCartItemRequest
	if !h.decodeValid(w, r, mLogger, &req) {
		return
	}
	qty := req.Qty
	if qty == 0 {
		qty = 1
	}

	product, err := h.catalog.FindByID(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, "Product not found")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error fetching product", "product_id", req.ProductID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch product")
		return
	}

	sess.Cart.Add(cart.Item{
		ProductID: product.ID,
		Title:     product.Title,
		Price:     product.Price,
		Image:     product.Image,
		Unit:      product.Unit,
		Code:      product.Code,
		Stock:     product.Stock,
	}, qty)

	web.RespondJSON(w, mLogger, http.StatusOK, renderCart(sess.Cart))
}

// UpdateCartItem sets the absolute quantity of a cart line. A quantity of
// zero or less removes the line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.currentSession(w, r, mLogger)
	if !ok {
		return
	}
	var req updateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess.Cart.UpdateQuantity(chi.URLParam(r, "productId"), req.Qty)
	web.RespondJSON(w, mLogger, http.StatusOK, renderCart(sess.Cart))
}

// RemoveCartItem deletes a cart line.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.currentSession(w, r, mLogger)
	if !ok {
		return
	}
	sess.Cart.Remove(chi.URLParam(r, "productId"))
	web.RespondJSON(w, mLogger, http.StatusOK, renderCart(sess.Cart))
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.currentSession(w, r, mLogger)
	if !ok {
		return
	}
	sess.Cart.Clear()
	web.RespondJSON(w, mLogger, http.StatusOK, renderCart(sess.Cart))
}

func renderCart(c *cart.Synchronizer) cartResponse {
	items := c.Items()
	total := c.Total()
	return cartResponse{
		Items:          items,
		Count:          c.Count(),
		DisplayCount:   c.DisplayCount(),
		Total:          total,
		FormattedTotal: money.FormatCLP(total),
	}
}
