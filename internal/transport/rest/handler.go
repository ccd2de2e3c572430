// Package rest provides the storefront's HTTP handlers.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/huertohogar/storefront/internal/admin"
	"github.com/huertohogar/storefront/internal/auth"
	"github.com/huertohogar/storefront/internal/blog"
	"github.com/huertohogar/storefront/internal/catalog"
	"github.com/huertohogar/storefront/internal/checkout"
	"github.com/huertohogar/storefront/internal/contact"
	"github.com/huertohogar/storefront/internal/review"
	"github.com/huertohogar/storefront/internal/session"
	"github.com/huertohogar/storefront/pkg/web"
)

type Handler struct {
	sessions *session.Manager
	catalog  *catalog.Service
	auth     *auth.Service
	checkout *checkout.Service
	blog     *blog.Service
	reviews  *review.Service
	contacts *contact.Service
	admin    *admin.Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates the storefront API handler.
func NewHandler(
	sessions *session.Manager,
	catalogSvc *catalog.Service,
	authSvc *auth.Service,
	checkoutSvc *checkout.Service,
	blogSvc *blog.Service,
	reviewSvc *review.Service,
	contactSvc *contact.Service,
	adminSvc *admin.Service,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		sessions: sessions,
		catalog:  catalogSvc,
		auth:     authSvc,
		checkout: checkoutSvc,
		blog:     blogSvc,
		reviews:  reviewSvc,
		contacts: contactSvc,
		admin:    adminSvc,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the storefront.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.sessions.Middleware)
		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/products", h.ListProducts)
			r.Route("/products/{id}", func(r chi.Router) {
				r.Get("/", h.GetProduct)
				r.Get("/reviews", h.ListReviews)
				r.Post("/reviews", h.CreateReview)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddCartItem)
				r.Patch("/items/{productId}", h.UpdateCartItem)
				r.Delete("/items/{productId}", h.RemoveCartItem)
			})

			r.Post("/checkout", h.Checkout)

			r.Post("/auth/login", h.Login)
			r.Post("/auth/logout", h.Logout)
			r.Post("/auth/register", h.Register)
			r.Get("/profile", h.Profile)
			r.Patch("/profile", h.UpdateProfile)

			r.Get("/posts", h.ListPosts)
			r.Get("/posts/{id}", h.GetPost)
			r.Post("/posts", h.CreatePost)
			r.Post("/contact", h.CreateContact)

			r.Get("/admin/summary", h.AdminSummary)
		})
	})
	r.Get("/healthz", h.HealthCheck)
}

// HealthCheck responds with a simple status object.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// loggerWithReqID returns a logger carrying the request's id.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}

// currentSession retrieves the session injected by the session middleware.
func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		web.RespondError(w, logger, http.StatusInternalServerError, "No session on request")
		return nil, false
	}
	return sess, true
}

// requireUser resolves the session and rejects unauthenticated requests.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*session.Session, *auth.User, bool) {
	sess, ok := h.currentSession(w, r, logger)
	if !ok {
		return nil, nil, false
	}
	user := sess.User()
	if user == nil {
		web.RespondError(w, logger, http.StatusUnauthorized, "Login required")
		return nil, nil, false
	}
	return sess, user, true
}

// decodeValid decodes a JSON body into dst and runs struct validation,
// responding with field-level errors on failure.
func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		logger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, logger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		web.RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
