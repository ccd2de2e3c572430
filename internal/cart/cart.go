// Package cart implements the session-scoped shopping cart: a local list
// that is immediately consistent for callers, mirrored best-effort to a
// remote per-session record set. Local mutations are synchronous and never
// blocked or rolled back by the remote side; reconciliation runs through a
// per-product outbox where a later intent supersedes an earlier one.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/huertohogar/storefront/pkg/money"
)

// displayCountCap is the largest count rendered verbatim on the cart
// badge; anything above shows as "9+".
const displayCountCap = 9

// syncTimeout bounds a single remote reconciliation attempt.
const syncTimeout = 15 * time.Second

// clearKey is the outbox key used for whole-cart clears.
const clearKey = "\x00clear"

// Mirror is the remote side of the cart. Upsert creates or overwrites the
// remote record for the item's product with the item's absolute quantity
// and returns the remote record id.
type Mirror interface {
	Load(ctx context.Context, sessionID string) ([]Item, error)
	Upsert(ctx context.Context, sessionID string, item Item) (string, error)
	Delete(ctx context.Context, sessionID string, item Item) error
	Clear(ctx context.Context, sessionID string) error
}

// Synchronizer owns the cart of one visitor session.
type Synchronizer struct {
	sessionID string
	mirror    Mirror
	logger    *slog.Logger
	outbox    *outbox

	mu    sync.Mutex
	items []Item
}

// NewSynchronizer creates an empty cart for the given session.
func NewSynchronizer(sessionID string, mirror Mirror, logger *slog.Logger) *Synchronizer {
	s := &Synchronizer{
		sessionID: sessionID,
		mirror:    mirror,
		logger:    logger.With("component", "cart", "session_id", sessionID),
	}
	s.outbox = newOutbox(s.reconcile)
	return s
}

// Load replaces the local list with the remote records for this session.
// Invoked once when the session is created; on failure whatever is already
// present locally is kept.
func (s *Synchronizer) Load(ctx context.Context) {
	items, err := s.mirror.Load(ctx, s.sessionID)
	if err != nil {
		s.logger.Warn("could not load cart from remote", "error", err)
		return
	}
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

// Add inserts qty units of the product snapshot, merging with an existing
// line for the same product. Quantities are clamped to the stock cap when
// one is known; a cap of zero means the line cannot exist, so nothing is
// inserted and any existing line is removed. The local mutation is
// synchronous; the remote mirror is reconciled in the background.
func (s *Synchronizer) Add(item Item, qty int) {
	if qty < 1 {
		qty = 1
	}

	s.mu.Lock()
	var updated Item
	if existing := s.find(item.ProductID); existing != nil {
		// the incoming snapshot is freshly fetched, so its cap supersedes
		// the one recorded at the original add
		existing.Stock = item.Stock
		next := existing.capQty(existing.Qty + qty)
		if next < 1 {
			s.mu.Unlock()
			s.Remove(item.ProductID)
			return
		}
		existing.Qty = next
		updated = *existing
	} else {
		item.Qty = item.capQty(qty)
		if item.Qty < 1 {
			s.mu.Unlock()
			return
		}
		s.items = append(s.items, item)
		updated = item
	}
	s.mu.Unlock()

	s.outbox.enqueue(updated.ProductID, intent{kind: intentUpsert, item: updated})
}

// UpdateQuantity sets the absolute quantity of a product's line. A
// non-positive quantity removes the line, as does a stock cap that has
// dropped to zero.
func (s *Synchronizer) UpdateQuantity(productID string, qty int) {
	if qty <= 0 {
		s.Remove(productID)
		return
	}

	s.mu.Lock()
	existing := s.find(productID)
	if existing == nil {
		s.mu.Unlock()
		return
	}
	next := existing.capQty(qty)
	if next < 1 {
		s.mu.Unlock()
		s.Remove(productID)
		return
	}
	existing.Qty = next
	updated := *existing
	s.mu.Unlock()

	s.outbox.enqueue(productID, intent{kind: intentUpsert, item: updated})
}

// Remove deletes the product's line. No-op when the product is not in the
// cart.
func (s *Synchronizer) Remove(productID string) {
	s.mu.Lock()
	var removed *Item
	for idx, it := range s.items {
		if it.ProductID == productID {
			removed = &it
			s.items = append(s.items[:idx], s.items[idx+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if removed == nil {
		return
	}
	s.outbox.enqueue(productID, intent{kind: intentDelete, item: *removed})
}

// Clear empties the local list immediately. Remote records are deleted in
// the background; a remote failure leaves the local list empty (local
// state wins for every mutation, clears included).
func (s *Synchronizer) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	s.outbox.dropPending()
	s.outbox.enqueue(clearKey, intent{kind: intentClear})
}

// Items returns a copy of the current cart lines in insertion order.
func (s *Synchronizer) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Count is the total number of units across all lines.
func (s *Synchronizer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, it := range s.items {
		total += it.Qty
	}
	return total
}

// DisplayCount renders the badge count, capping at "9+".
func (s *Synchronizer) DisplayCount() string {
	count := s.Count()
	if count > displayCountCap {
		return fmt.Sprintf("%d+", displayCountCap)
	}
	return fmt.Sprintf("%d", count)
}

// Total is the cart subtotal in pesos.
func (s *Synchronizer) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, it := range s.items {
		total += it.Price * int64(it.Qty)
	}
	return total
}

// FormatTotal renders the subtotal in the storefront's currency.
func (s *Synchronizer) FormatTotal() string {
	return money.FormatCLP(s.Total())
}

// Wait blocks until background reconciliation has drained. Used by tests
// and graceful shutdown.
func (s *Synchronizer) Wait() {
	s.outbox.wait()
}

// reconcile executes one outbox intent against the mirror. Failures are
// logged and dropped; the next full load resynchronizes.
func (s *Synchronizer) reconcile(it intent) {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	switch it.kind {
	case intentUpsert:
		serverID, err := s.mirror.Upsert(ctx, s.sessionID, it.item)
		if err != nil {
			s.logger.Warn("failed to sync cart item to remote", "product_id", it.item.ProductID, "error", err)
			return
		}
		s.rememberServerID(it.item.ProductID, serverID)
	case intentDelete:
		if err := s.mirror.Delete(ctx, s.sessionID, it.item); err != nil {
			s.logger.Warn("failed to delete cart item from remote", "product_id", it.item.ProductID, "error", err)
		}
	case intentClear:
		if err := s.mirror.Clear(ctx, s.sessionID); err != nil {
			s.logger.Warn("failed to clear cart on remote", "error", err)
		}
	}
}

// rememberServerID records the remote record id on the local line, if the
// line still exists.
func (s *Synchronizer) rememberServerID(productID, serverID string) {
	if serverID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.find(productID); existing != nil {
		existing.ServerID = serverID
	}
}

// find returns a pointer into the items slice; callers hold s.mu.
func (s *Synchronizer) find(productID string) *Item {
	for idx := range s.items {
		if s.items[idx].ProductID == productID {
			return &s.items[idx]
		}
	}
	return nil
}
