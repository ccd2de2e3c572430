// Package catalog reads products from the record-storage service and owns
// the best-effort stock accounting used by checkout.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/huertohogar/storefront/pkg/pocketbase"
	"golang.org/x/sync/singleflight"
)

// Collection is the products collection name.
const Collection = "products"

var ErrProductNotFound = errors.New("product not found")

// SearchQuery narrows a product listing. Term matches against the title,
// Category filters exactly, Sort uses PocketBase sort syntax.
type SearchQuery struct {
	Term     string
	Category string
	Sort     string
	Page     int
	PerPage  int
}

// Service reads the products collection.
type Service struct {
	pb     *pocketbase.Client
	logger *slog.Logger
	sfg    singleflight.Group // collapses concurrent lookups of one product
}

// NewService creates a catalog service backed by the given PocketBase client.
func NewService(pb *pocketbase.Client, logger *slog.Logger) *Service {
	return &Service{
		pb:     pb,
		logger: logger.With("component", "catalog"),
	}
}

// List returns a page of products matching the query plus the total number
// of matching records.
func (s *Service) List(ctx context.Context, q SearchQuery) ([]Product, int, error) {
	var filters []string
	if q.Term != "" {
		filters = append(filters, fmt.Sprintf(`title ~ "%s"`, pocketbase.EscapeFilterValue(q.Term)))
	}
	if q.Category != "" {
		filters = append(filters, fmt.Sprintf(`category = "%s"`, pocketbase.EscapeFilterValue(q.Category)))
	}
	sort := q.Sort
	if sort == "" {
		sort = "-created"
	}

	result, err := s.pb.List(ctx, "", Collection, pocketbase.Query{
		Filter:  strings.Join(filters, " && "),
		Sort:    sort,
		Page:    q.Page,
		PerPage: q.PerPage,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]Product, 0, len(result.Items))
	for _, rec := range result.Items {
		products = append(products, FromRecord(rec))
	}
	return products, result.TotalItems, nil
}

// FindByID fetches one product. Concurrent lookups for the same id share a
// single request.
func (s *Service) FindByID(ctx context.Context, id string) (*Product, error) {
	v, err, _ := s.sfg.Do(id, func() (any, error) {
		rec, err := s.pb.Get(ctx, "", Collection, id)
		if err != nil {
			if pocketbase.IsNotFound(err) {
				return nil, ErrProductNotFound
			}
			return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
		}
		product := FromRecord(rec)
		return &product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Product), nil
}

// ImageURL resolves a product's image to a public URL. Absolute URLs stored
// in the image field pass through unchanged.
func (s *Service) ImageURL(p *Product) string {
	return s.pb.FileURL(Collection, p.ID, p.Image)
}

// DecrementStock reduces a product's stock count after a purchase by
// reading the current value and writing back the difference, floored at
// zero. There is no compare-and-swap on the record, so concurrent
// purchases can drift; callers treat failures as log-only.
func (s *Service) DecrementStock(ctx context.Context, token, productID string, qty int) error {
	rec, err := s.pb.Get(ctx, token, Collection, productID)
	if err != nil {
		return fmt.Errorf("failed to read stock for product %s: %w", productID, err)
	}
	stock := normalizeStock(rec)
	if stock == nil {
		// uncapped product, nothing to account
		return nil
	}
	remaining := *stock - qty
	if remaining < 0 {
		remaining = 0
	}
	if _, err := s.pb.Update(ctx, token, Collection, productID, map[string]any{"stock": remaining}); err != nil {
		return fmt.Errorf("failed to write stock for product %s: %w", productID, err)
	}
	return nil
}
