package cart

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/huertohogar/storefront/internal/catalog"
	"github.com/huertohogar/storefront/pkg/pocketbase"
)

// Collection is the session-scoped remote cart collection.
const Collection = "cart_items"

// RemoteMirror keeps the cart_items collection loosely in sync with local
// carts. Records are keyed by (productId, sessionId).
type RemoteMirror struct {
	pb     *pocketbase.Client
	logger *slog.Logger
}

// NewRemoteMirror creates a mirror backed by the given PocketBase client.
func NewRemoteMirror(pb *pocketbase.Client, logger *slog.Logger) *RemoteMirror {
	return &RemoteMirror{
		pb:     pb,
		logger: logger.With("component", "cart_mirror"),
	}
}

// Load fetches every remote record for the session.
func (m *RemoteMirror) Load(ctx context.Context, sessionID string) ([]Item, error) {
	result, err := m.pb.List(ctx, "", Collection, pocketbase.Query{
		Filter: sessionFilter(sessionID),
	})
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(result.Items))
	for _, rec := range result.Items {
		items = append(items, Item{
			ProductID: rec.GetString("productId"),
			Title:     rec.GetString("title"),
			Price:     int64(rec.GetFloat("price")),
			Qty:       rec.GetInt("qty"),
			Image:     rec.GetString("image"),
			Unit:      rec.GetString("unit"),
			Code:      rec.GetString("code"),
			ServerID:  rec.ID(),
		})
	}
	return items, nil
}

// Upsert writes the item's absolute quantity to the remote record,
// creating the record when none exists. Creation prefers a multipart
// submission carrying a copy of the product image, then falls back to a
// plain JSON submission, then to a JSON submission with an external
// imageUrl field when the collection insists on a mandatory image.
func (m *RemoteMirror) Upsert(ctx context.Context, sessionID string, item Item) (string, error) {
	if item.ServerID != "" {
		if _, err := m.pb.Update(ctx, "", Collection, item.ServerID, map[string]any{"qty": item.Qty}); err != nil {
			return "", fmt.Errorf("qty update failed: %w", err)
		}
		return item.ServerID, nil
	}

	existing, err := m.findRecord(ctx, sessionID, item.ProductID)
	if err != nil {
		return "", err
	}
	if existing != "" {
		if _, err := m.pb.Update(ctx, "", Collection, existing, map[string]any{"qty": item.Qty}); err != nil {
			return "", fmt.Errorf("qty update failed: %w", err)
		}
		return existing, nil
	}

	return m.create(ctx, sessionID, item)
}

// Delete removes the remote record, locating it by the remembered id or by
// a (productId, sessionId) lookup. A record that is already gone is not an
// error.
func (m *RemoteMirror) Delete(ctx context.Context, sessionID string, item Item) error {
	id := item.ServerID
	if id == "" {
		found, err := m.findRecord(ctx, sessionID, item.ProductID)
		if err != nil {
			return err
		}
		if found == "" {
			return nil
		}
		id = found
	}
	if err := m.pb.Delete(ctx, "", Collection, id); err != nil && !pocketbase.IsNotFound(err) {
		return err
	}
	return nil
}

// Clear deletes every remote record for the session in parallel,
// tolerating individual deletion failures.
func (m *RemoteMirror) Clear(ctx context.Context, sessionID string) error {
	result, err := m.pb.List(ctx, "", Collection, pocketbase.Query{
		Filter: sessionFilter(sessionID),
	})
	if err != nil {
		return fmt.Errorf("failed to list session cart records: %w", err)
	}

	var wg sync.WaitGroup
	for _, rec := range result.Items {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := m.pb.Delete(ctx, "", Collection, id); err != nil {
				m.logger.Warn("failed to delete cart record", "record_id", id, "error", err)
			}
		}(rec.ID())
	}
	wg.Wait()
	return nil
}

// create runs the three-step creation chain and returns the new record id.
func (m *RemoteMirror) create(ctx context.Context, sessionID string, item Item) (string, error) {
	fields := map[string]string{
		"productId": item.ProductID,
		"title":     item.Title,
		"price":     strconv.FormatInt(item.Price, 10),
		"qty":       strconv.Itoa(item.Qty),
		"sessionId": sessionID,
		"unit":      item.Unit,
		"code":      item.Code,
	}

	imgURL := ""
	if item.Image != "" {
		imgURL = m.pb.FileURL(catalog.Collection, item.ProductID, item.Image)
	}

	var files []pocketbase.File
	if imgURL != "" {
		data, name, contentType, err := m.pb.DownloadFile(ctx, imgURL)
		if err != nil {
			m.logger.Warn("could not fetch product image for cart record", "product_id", item.ProductID, "error", err)
		} else {
			files = append(files, pocketbase.File{Field: "image", Name: name, ContentType: contentType, Data: data})
		}
	}

	rec, err := m.pb.CreateMultipart(ctx, "", Collection, fields, files...)
	if err == nil {
		return rec.ID(), nil
	}
	m.logger.Warn("multipart cart record create failed, retrying as JSON", "product_id", item.ProductID, "error", err)

	body := map[string]any{
		"productId": item.ProductID,
		"title":     item.Title,
		"price":     item.Price,
		"qty":       item.Qty,
		"sessionId": sessionID,
		"unit":      item.Unit,
		"code":      item.Code,
	}
	rec, jsonErr := m.pb.Create(ctx, "", Collection, body)
	if jsonErr == nil {
		return rec.ID(), nil
	}

	if pocketbase.IsFieldRequired(jsonErr, "image") && imgURL != "" {
		body["imageUrl"] = imgURL
		rec, urlErr := m.pb.Create(ctx, "", Collection, body)
		if urlErr == nil {
			return rec.ID(), nil
		}
		return "", fmt.Errorf("cart record create failed with imageUrl fallback: %w", urlErr)
	}

	return "", fmt.Errorf("cart record create failed: %w", jsonErr)
}

// findRecord returns the remote record id for (productId, sessionId), or
// "" when none exists.
func (m *RemoteMirror) findRecord(ctx context.Context, sessionID, productID string) (string, error) {
	result, err := m.pb.List(ctx, "", Collection, pocketbase.Query{
		Filter: fmt.Sprintf(`productId="%s" && sessionId="%s"`,
			pocketbase.EscapeFilterValue(productID), pocketbase.EscapeFilterValue(sessionID)),
	})
	if err != nil {
		return "", fmt.Errorf("cart record lookup failed: %w", err)
	}
	if len(result.Items) == 0 {
		return "", nil
	}
	return result.Items[0].ID(), nil
}

func sessionFilter(sessionID string) string {
	return fmt.Sprintf(`sessionId="%s"`, pocketbase.EscapeFilterValue(sessionID))
}
