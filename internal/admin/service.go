// Package admin aggregates the figures shown on the admin dashboard.
package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/huertohogar/storefront/internal/auth"
	"github.com/huertohogar/storefront/internal/catalog"
	"github.com/huertohogar/storefront/internal/checkout"
	"github.com/huertohogar/storefront/pkg/pocketbase"
)

// lowStockThreshold marks products that need restocking on the dashboard.
const lowStockThreshold = 5

// summaryPageSize is the page size used when walking a whole collection.
const summaryPageSize = 500

// Summary is the dashboard aggregate.
type Summary struct {
	OrderCount    int   `json:"orderCount"`
	Revenue       int64 `json:"revenue"`
	ProductCount  int   `json:"productCount"`
	UserCount     int   `json:"userCount"`
	LowStockCount int   `json:"lowStockCount"`
}

// Service computes dashboard summaries from the remote collections.
type Service struct {
	pb     *pocketbase.Client
	logger *slog.Logger
}

func NewService(pb *pocketbase.Client, logger *slog.Logger) *Service {
	return &Service{pb: pb, logger: logger.With("component", "admin")}
}

// Summarize reads orders, products and users and aggregates the dashboard
// numbers. Requires an admin bearer token.
func (s *Service) Summarize(ctx context.Context, token string) (*Summary, error) {
	summary := &Summary{}

	orderCount, err := s.forEachRecord(ctx, token, checkout.Collection, func(rec pocketbase.Record) {
		summary.Revenue += int64(rec.GetFloat("total"))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	summary.OrderCount = orderCount

	productCount, err := s.forEachRecord(ctx, token, catalog.Collection, func(rec pocketbase.Record) {
		p := catalog.FromRecord(rec)
		if p.Stock != nil && *p.Stock <= lowStockThreshold {
			summary.LowStockCount++
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	summary.ProductCount = productCount

	users, err := s.pb.List(ctx, token, auth.Collection, pocketbase.Query{PerPage: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	summary.UserCount = users.TotalItems

	return summary, nil
}

// forEachRecord walks every page of a collection, invoking fn per record,
// and returns the collection's total record count.
func (s *Service) forEachRecord(ctx context.Context, token, collection string, fn func(pocketbase.Record)) (int, error) {
	total := 0
	for page := 1; ; page++ {
		result, err := s.pb.List(ctx, token, collection, pocketbase.Query{Page: page, PerPage: summaryPageSize})
		if err != nil {
			return 0, err
		}
		total = result.TotalItems
		for _, rec := range result.Items {
			fn(rec)
		}
		if page >= result.TotalPages || len(result.Items) == 0 {
			return total, nil
		}
	}
}
