// Package app contains the application setup for the storefront service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/huertohogar/storefront/internal/admin"
	"github.com/huertohogar/storefront/internal/auth"
	"github.com/huertohogar/storefront/internal/blog"
	"github.com/huertohogar/storefront/internal/cart"
	"github.com/huertohogar/storefront/internal/catalog"
	"github.com/huertohogar/storefront/internal/checkout"
	"github.com/huertohogar/storefront/internal/config"
	"github.com/huertohogar/storefront/internal/contact"
	"github.com/huertohogar/storefront/internal/review"
	"github.com/huertohogar/storefront/internal/session"
	"github.com/huertohogar/storefront/internal/transport/rest"
	"github.com/huertohogar/storefront/pkg/messaging"
	"github.com/huertohogar/storefront/pkg/pocketbase"
	"github.com/huertohogar/storefront/pkg/server"
)

type Dependencies struct {
	Sessions *session.Manager
	Catalog  *catalog.Service
	Auth     *auth.Service
	Checkout *checkout.Service
	Blog     *blog.Service
	Reviews  *review.Service
	Contacts *contact.Service
	Admin    *admin.Service
	Logger   *slog.Logger

	// Metrics serves the Prometheus scrape endpoint; nil leaves /metrics
	// unregistered.
	Metrics http.Handler
}

// SetupDependencies wires the domain services around the PocketBase client
// and the order event publisher.
func SetupDependencies(pb *pocketbase.Client, publisher messaging.Publisher, cfg *config.Config, logger *slog.Logger) *Dependencies {
	catalogSvc := catalog.NewService(pb, logger)
	authSvc := auth.NewService(pb, logger)

	mirror := cart.NewRemoteMirror(pb, logger)
	newCart := func(sessionID string) *cart.Synchronizer {
		return cart.NewSynchronizer(sessionID, mirror, logger)
	}
	sessions := session.NewManager(cfg.Session.CookieName, cfg.Session.TTL, newCart, logger)

	return &Dependencies{
		Sessions: sessions,
		Catalog:  catalogSvc,
		Auth:     authSvc,
		Checkout: checkout.NewService(pb, catalogSvc, authSvc, publisher, cfg.Checkout.TaxRate, logger),
		Blog:     blog.NewService(pb, logger),
		Reviews:  review.NewService(pb, logger),
		Contacts: contact.NewService(pb, logger),
		Admin:    admin.NewService(pb, logger),
		Logger:   logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the storefront.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the storefront application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(
		deps.Sessions,
		deps.Catalog,
		deps.Auth,
		deps.Checkout,
		deps.Blog,
		deps.Reviews,
		deps.Contacts,
		deps.Admin,
		deps.Logger,
	)
	handler.RegisterRoutes(mux)

	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics)
	}
}

// SetupHttpServer creates and configures an HTTP server for the storefront application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
