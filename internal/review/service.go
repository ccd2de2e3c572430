// Package review reads and writes per-product review records.
package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/huertohogar/storefront/pkg/pocketbase"
)

// Collection is the reviews collection name.
const Collection = "reviews"

// Review is one product review.
type Review struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	UserID    string `json:"userId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	Created   string `json:"created"`
}

// CreateRequest carries a new review.
type CreateRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

// Service talks to the reviews collection.
type Service struct {
	pb     *pocketbase.Client
	logger *slog.Logger
}

func NewService(pb *pocketbase.Client, logger *slog.Logger) *Service {
	return &Service{pb: pb, logger: logger.With("component", "review")}
}

// ListByProduct returns a product's reviews, newest first.
func (s *Service) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	result, err := s.pb.List(ctx, "", Collection, pocketbase.Query{
		Filter: fmt.Sprintf(`productId="%s"`, productID),
		Sort:   "-created",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	reviews := make([]Review, 0, len(result.Items))
	for _, rec := range result.Items {
		reviews = append(reviews, fromRecord(rec))
	}
	return reviews, nil
}

// Create inserts a review for the product by the given user.
func (s *Service) Create(ctx context.Context, token, productID, userID string, req CreateRequest) (*Review, error) {
	rec, err := s.pb.Create(ctx, token, Collection, map[string]any{
		"productId": productID,
		"userId":    userID,
		"rating":    req.Rating,
		"comment":   req.Comment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	review := fromRecord(rec)
	return &review, nil
}

func fromRecord(rec pocketbase.Record) Review {
	return Review{
		ID:        rec.ID(),
		ProductID: rec.GetString("productId"),
		UserID:    rec.GetString("userId"),
		Rating:    rec.GetInt("rating"),
		Comment:   rec.GetString("comment"),
		Created:   rec.GetString("created"),
	}
}
