// Package contact writes contact-form submissions to the contacts
// collection.
package contact

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/huertohogar/storefront/pkg/pocketbase"
)

// Collection is the contacts collection name.
const Collection = "contacts"

// Message is one contact-form submission.
type Message struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// CreateRequest carries a new contact message.
type CreateRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

// Service talks to the contacts collection.
type Service struct {
	pb     *pocketbase.Client
	logger *slog.Logger
}

func NewService(pb *pocketbase.Client, logger *slog.Logger) *Service {
	return &Service{pb: pb, logger: logger.With("component", "contact")}
}

// Create stores the message.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Message, error) {
	rec, err := s.pb.Create(ctx, "", Collection, map[string]any{
		"name":    req.Name,
		"email":   req.Email,
		"message": req.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create contact message: %w", err)
	}
	return &Message{
		ID:      rec.ID(),
		Name:    rec.GetString("name"),
		Email:   rec.GetString("email"),
		Message: rec.GetString("message"),
	}, nil
}
