package rest

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/huertohogar/storefront/internal/catalog"
	"github.com/huertohogar/storefront/pkg/web"
)

// productResponse adds the resolved image URL to the canonical product.
type productResponse struct {
	catalog.Product
	ImageURL string `json:"imageUrl"`
}

type productListResponse struct {
	Items      []productResponse `json:"items"`
	TotalItems int               `json:"totalItems"`
}

// ListProducts returns a page of products. Supports q (title search),
// category, sort, page and perPage query parameters.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	page, ok := web.ParseOptionalGt(r, w, mLogger, "page", 1, 0)
	if !ok {
		return
	}
	perPage, ok := web.ParseOptionalGt(r, w, mLogger, "perPage", 30, 0)
	if !ok {
		return
	}

	query := catalog.SearchQuery{
		Term:     r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
		Sort:     r.URL.Query().Get("sort"),
		Page:     page,
		PerPage:  perPage,
	}
	products, total, err := h.catalog.List(r.Context(), query)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error listing products", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	items := make([]productResponse, 0, len(products))
	for idx := range products {
		items = append(items, productResponse{
			Product:  products[idx],
			ImageURL: h.catalog.ImageURL(&products[idx]),
		})
	}
	web.RespondJSON(w, mLogger, http.StatusOK, productListResponse{Items: items, TotalItems: total})
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")

	product, err := h.catalog.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			web.RespondError(w, mLogger, http.StatusNotFound, "Product not found")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error fetching product", "product_id", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch product")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, productResponse{
		Product:  *product,
		ImageURL: h.catalog.ImageURL(product),
	})
}
