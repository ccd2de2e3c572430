// Package checkout turns a session's cart into an order record: fixed-rate
// tax over the subtotal, one order submission with a single multipart
// retry, then best-effort stock accounting and cart cleanup.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/huertohogar/storefront/internal/auth"
	"github.com/huertohogar/storefront/internal/cart"
	"github.com/huertohogar/storefront/internal/catalog"
	"github.com/huertohogar/storefront/pkg/messaging"
	"github.com/huertohogar/storefront/pkg/messaging/events"
	"github.com/huertohogar/storefront/pkg/pocketbase"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Collection is the orders collection name.
const Collection = "orders"

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrMissingAddress = errors.New("shipping address is required")
	ErrInvalidCard    = errors.New("card details are invalid")
)

var (
	cardNumberPattern = regexp.MustCompile(`^\d{12}$`)
	cardExpiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cardCVCPattern    = regexp.MustCompile(`^\d{3}$`)
)

// Card holds the payment card fields collected at checkout. Numbers are
// digits only.
type Card struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVC    string `json:"cvc"`
}

// Request is a checkout submission.
type Request struct {
	Address       string `json:"address"`
	SaveAddress   bool   `json:"saveAddress"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=card transfer"`
	Card          *Card  `json:"card"`
}

// Order is the confirmed result of a checkout.
type Order struct {
	ID       string `json:"id"`
	Subtotal int64  `json:"subtotal"`
	Tax      int64  `json:"iva"`
	Total    int64  `json:"total"`
	Status   string `json:"status"`
}

// Service submits orders against the record-storage service.
type Service struct {
	pb            *pocketbase.Client
	catalog       *catalog.Service
	users         *auth.Service
	publisher     messaging.Publisher
	taxRate       float64
	ordersCounter metric.Int64Counter
	logger        *slog.Logger
}

// NewService creates a checkout service. taxRate is the fixed IVA rate
// applied over the subtotal, e.g. 0.19.
func NewService(pb *pocketbase.Client, catalogSvc *catalog.Service, users *auth.Service, publisher messaging.Publisher, taxRate float64, logger *slog.Logger) *Service {
	meter := otel.Meter("storefront")
	ordersCounter, err := meter.Int64Counter("orders_created", metric.WithDescription("Total number of created orders"))
	if err != nil {
		panic(fmt.Sprintf("failed to create orders_created counter: %v", err))
	}
	return &Service{
		pb:            pb,
		catalog:       catalogSvc,
		users:         users,
		publisher:     publisher,
		taxRate:       taxRate,
		ordersCounter: ordersCounter,
		logger:        logger.With("component", "checkout"),
	}
}

// Totals computes the tax and grand total for a subtotal.
func (s *Service) Totals(subtotal int64) (tax, total int64) {
	tax = int64(math.Round(float64(subtotal) * s.taxRate))
	return tax, subtotal + tax
}

// Submit validates the request, creates the order record and, on success,
// clears the cart and performs the best-effort follow-ups (stock
// decrement, address save, order event). Follow-up failures are logged and
// never block order completion.
func (s *Service) Submit(ctx context.Context, token, userID string, crt *cart.Synchronizer, req Request) (*Order, error) {
	items := crt.Items()
	if err := validate(items, req); err != nil {
		return nil, err
	}

	subtotal := crt.Total()
	tax, total := s.Totals(subtotal)

	rec, err := s.createOrder(ctx, token, userID, items, req, subtotal, tax, total)
	if err != nil {
		return nil, err
	}

	order := &Order{
		ID:       rec.ID(),
		Subtotal: subtotal,
		Tax:      tax,
		Total:    total,
		Status:   rec.GetString("status"),
	}

	crt.Clear()
	s.decrementStock(ctx, token, items)
	if req.SaveAddress && userID != "" {
		if _, err := s.users.UpdateProfile(ctx, token, userID, map[string]string{"address": req.Address}, nil); err != nil {
			s.logger.Warn("could not save address to profile", "user_id", userID, "error", err)
		}
	}
	s.publish(ctx, order, userID)
	s.ordersCounter.Add(ctx, 1)

	return order, nil
}

// createOrder submits the order as JSON and retries once as multipart with
// a representative product image when the plain submission is rejected.
func (s *Service) createOrder(ctx context.Context, token, userID string, items []cart.Item, req Request, subtotal, tax, total int64) (pocketbase.Record, error) {
	itemsJSON, err := marshalItems(items)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		// the user relation field must carry the related record id
		"user":          userID,
		"items":         itemsJSON,
		"subtotal":      subtotal,
		"iva":           tax,
		"total":         total,
		"address":       req.Address,
		"paymentMethod": req.PaymentMethod,
		"status":        "paid",
	}
	rec, jsonErr := s.pb.Create(ctx, token, Collection, body)
	if jsonErr == nil {
		return rec, nil
	}
	s.logger.Warn("order create failed, retrying as multipart", "error", jsonErr)

	fields := map[string]string{
		"user":          userID,
		"items":         itemsJSON,
		"subtotal":      strconv.FormatInt(subtotal, 10),
		"iva":           strconv.FormatInt(tax, 10),
		"total":         strconv.FormatInt(total, 10),
		"address":       req.Address,
		"paymentMethod": req.PaymentMethod,
		"status":        "paid",
	}
	rec, err = s.pb.CreateMultipart(ctx, token, Collection, fields, s.representativeImage(ctx, items)...)
	if err != nil {
		return nil, fmt.Errorf("order submission failed: %w", err)
	}
	return rec, nil
}

// representativeImage fetches the first resolvable product image so the
// multipart retry can satisfy a mandatory image field.
func (s *Service) representativeImage(ctx context.Context, items []cart.Item) []pocketbase.File {
	for _, it := range items {
		if it.Image == "" {
			continue
		}
		url := s.pb.FileURL(catalog.Collection, it.ProductID, it.Image)
		data, name, contentType, err := s.pb.DownloadFile(ctx, url)
		if err != nil {
			s.logger.Warn("could not fetch representative image", "product_id", it.ProductID, "error", err)
			continue
		}
		return []pocketbase.File{{Field: "image", Name: name, ContentType: contentType, Data: data}}
	}
	return nil
}

// decrementStock reduces each purchased product's stock. There is no
// compare-and-swap; failures are logged only.
func (s *Service) decrementStock(ctx context.Context, token string, items []cart.Item) {
	for _, it := range items {
		if err := s.catalog.DecrementStock(ctx, token, it.ProductID, it.Qty); err != nil {
			s.logger.Warn("stock decrement failed", "product_id", it.ProductID, "error", err)
		}
	}
}

func (s *Service) publish(ctx context.Context, order *Order, userID string) {
	event := events.OrderCreatedEvent{
		OrderID:    order.ID,
		UserID:     userID,
		Subtotal:   order.Subtotal,
		Tax:        order.Tax,
		TotalPrice: order.Total,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish OrderCreatedEvent", "order_id", order.ID, "error", err)
	}
}

func validate(items []cart.Item, req Request) error {
	if len(items) == 0 {
		return ErrEmptyCart
	}
	if strings.TrimSpace(req.Address) == "" {
		return ErrMissingAddress
	}
	if req.PaymentMethod == "card" {
		card := req.Card
		if card == nil ||
			!cardNumberPattern.MatchString(card.Number) ||
			!cardExpiryPattern.MatchString(card.Expiry) ||
			!cardCVCPattern.MatchString(card.CVC) {
			return ErrInvalidCard
		}
	}
	return nil
}

// marshalItems serializes the purchased line items into the order record's
// snapshot field.
func marshalItems(items []cart.Item) (string, error) {
	type line struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Price int64  `json:"price"`
		Qty   int    `json:"qty"`
	}
	lines := make([]line, 0, len(items))
	for _, it := range items {
		lines = append(lines, line{ID: it.ProductID, Title: it.Title, Price: it.Price, Qty: it.Qty})
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("failed to serialize order items: %w", err)
	}
	return string(data), nil
}
