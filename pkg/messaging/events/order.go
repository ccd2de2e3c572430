package events

import (
	"encoding/json"
	"time"

	"github.com/huertohogar/storefront/pkg/messaging"
)

// OrderCreatedEvent is published after a checkout completes. IDs are
// PocketBase record identifiers.
type OrderCreatedEvent struct {
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Subtotal   int64     `json:"subtotal"`
	Tax        int64     `json:"tax"`
	TotalPrice int64     `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

func (o OrderCreatedEvent) Subject() string {
	return messaging.OrdersCreatedSubject
}

func (o OrderCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}
