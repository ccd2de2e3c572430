package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/huertohogar/storefront/internal/auth"
	"github.com/huertohogar/storefront/internal/cart"
	"github.com/huertohogar/storefront/internal/catalog"
	"github.com/huertohogar/storefront/pkg/messaging"
	"github.com/huertohogar/storefront/pkg/pocketbase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopMirror satisfies cart.Mirror for carts used in checkout tests.
type noopMirror struct{}

func (noopMirror) Load(context.Context, string) ([]cart.Item, error) { return nil, nil }
func (noopMirror) Upsert(context.Context, string, cart.Item) (string, error) { return "", nil }
func (noopMirror) Delete(context.Context, string, cart.Item) error { return nil }
func (noopMirror) Clear(context.Context, string) error { return nil }

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func newServiceForServer(t *testing.T, srv *httptest.Server, publisher messaging.Publisher) *Service {
	t.Helper()
	logger := slog.Default()
	pb := pocketbase.NewClient(srv.URL, 5*time.Second, logger)
	catalogSvc := catalog.NewService(pb, logger)
	users := auth.NewService(pb, logger)
	return NewService(pb, catalogSvc, users, publisher, 0.19, logger)
}

func cartWith(items ...cart.Item) *cart.Synchronizer {
	crt := cart.NewSynchronizer("s1", noopMirror{}, slog.Default())
	for _, it := range items {
		crt.Add(it, it.Qty)
	}
	crt.Wait()
	return crt
}

func TestService_Totals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	svc := newServiceForServer(t, srv, &recordingPublisher{})

	tests := []struct {
		subtotal  int64
		wantTax   int64
		wantTotal int64
	}{
		{0, 0, 0},
		{1000, 190, 1190},
		{13970, 2654, 16624}, // 13970 * 0.19 = 2654.3, rounds down
		{999, 190, 1189},     // 999 * 0.19 = 189.81, rounds up
	}

	for _, tc := range tests {
		tax, total := svc.Totals(tc.subtotal)
		assert.Equal(t, tc.wantTax, tax, "subtotal=%d", tc.subtotal)
		assert.Equal(t, tc.wantTotal, total, "subtotal=%d", tc.subtotal)
	}
}

func TestService_SubmitValidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should reach the server on validation failure")
	}))
	defer srv.Close()
	svc := newServiceForServer(t, srv, &recordingPublisher{})

	validItem := cart.Item{ProductID: "p1", Title: "Manzana", Price: 1000, Qty: 1}

	tests := []struct {
		name    string
		items   []cart.Item
		req     Request
		wantErr error
	}{
		{
			name:    "empty cart",
			req:     Request{Address: "Calle 1", PaymentMethod: "transfer"},
			wantErr: ErrEmptyCart,
		},
		{
			name:    "missing address",
			items:   []cart.Item{validItem},
			req:     Request{Address: "   ", PaymentMethod: "transfer"},
			wantErr: ErrMissingAddress,
		},
		{
			name:    "card payment without card",
			items:   []cart.Item{validItem},
			req:     Request{Address: "Calle 1", PaymentMethod: "card"},
			wantErr: ErrInvalidCard,
		},
		{
			name:  "card number must be twelve digits",
			items: []cart.Item{validItem},
			req: Request{Address: "Calle 1", PaymentMethod: "card",
				Card: &Card{Number: "12345678901", Expiry: "05/27", CVC: "123"}},
			wantErr: ErrInvalidCard,
		},
		{
			name:  "expiry month must be 01-12",
			items: []cart.Item{validItem},
			req: Request{Address: "Calle 1", PaymentMethod: "card",
				Card: &Card{Number: "123456789012", Expiry: "13/27", CVC: "123"}},
			wantErr: ErrInvalidCard,
		},
		{
			name:  "cvc must be three digits",
			items: []cart.Item{validItem},
			req: Request{Address: "Calle 1", PaymentMethod: "card",
				Card: &Card{Number: "123456789012", Expiry: "05/27", CVC: "1234"}},
			wantErr: ErrInvalidCard,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), "", "u1", cartWith(tc.items...), tc.req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestService_Submit(t *testing.T) {
	var mu sync.Mutex
	var orderBody map[string]any
	stockWrites := make(map[string]float64)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/collections/orders/records":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&orderBody))
			_, _ = fmt.Fprint(w, `{"id": "ord1", "status": "paid"}`)

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/collections/products/records/"):
			_, _ = fmt.Fprint(w, `{"id":"p1","stock":10}`)

		case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/api/collections/products/records/"):
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			id := strings.TrimPrefix(r.URL.Path, "/api/collections/products/records/")
			stockWrites[id] = body["stock"].(float64)
			_, _ = fmt.Fprint(w, `{"id":"p1"}`)

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	publisher := &recordingPublisher{}
	svc := newServiceForServer(t, srv, publisher)

	crt := cartWith(
		cart.Item{ProductID: "p1", Title: "Manzana Fuji", Price: 1990, Qty: 2},
		cart.Item{ProductID: "p2", Title: "Miel Organica", Price: 9990, Qty: 1},
	)

	order, err := svc.Submit(context.Background(), "jwt-token", "u1", crt, Request{
		Address:       "Av. Siempre Viva 742",
		PaymentMethod: "card",
		Card:          &Card{Name: "María Rojas", Number: "123456789012", Expiry: "05/27", CVC: "123"},
	})
	require.NoError(t, err)
	crt.Wait()

	assert.Equal(t, "ord1", order.ID)
	assert.Equal(t, int64(13970), order.Subtotal)
	assert.Equal(t, int64(2654), order.Tax)
	assert.Equal(t, int64(16624), order.Total)
	assert.Equal(t, "paid", order.Status)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "u1", orderBody["user"])
	assert.Equal(t, "paid", orderBody["status"])
	assert.Equal(t, "card", orderBody["paymentMethod"])
	assert.Equal(t, float64(2654), orderBody["iva"])

	// the items field is a JSON snapshot of the purchased lines
	var lines []map[string]any
	require.NoError(t, json.Unmarshal([]byte(orderBody["items"].(string)), &lines))
	require.Len(t, lines, 2)
	assert.Equal(t, "Manzana Fuji", lines[0]["title"])
	assert.Equal(t, float64(2), lines[0]["qty"])

	// the card never reaches the order record
	assert.NotContains(t, orderBody, "card")

	// cart cleared, stock decremented, event published
	assert.Empty(t, crt.Items())
	assert.Equal(t, float64(8), stockWrites["p1"])
	assert.Equal(t, float64(9), stockWrites["p2"])
	require.Len(t, publisher.events, 1)
	assert.Equal(t, messaging.OrdersCreatedSubject, publisher.events[0].Subject())
}

func TestService_SubmitRetriesAsMultipart(t *testing.T) {
	var mu sync.Mutex
	var attempts []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/collections/orders/records":
			if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				attempts = append(attempts, "multipart")
				require.NoError(t, r.ParseMultipartForm(1<<20))
				assert.Equal(t, "u1", r.FormValue("user"))
				_, _ = fmt.Fprint(w, `{"id": "ord2", "status": "paid"}`)
				return
			}
			attempts = append(attempts, "json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprint(w, `{"status":400,"message":"Failed to create record.","data":{}}`)

		case strings.HasPrefix(r.URL.Path, "/api/collections/products/records/"):
			_, _ = fmt.Fprint(w, `{"id":"p1"}`)

		case strings.HasPrefix(r.URL.Path, "/api/files/"):
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png-bytes"))
		}
	}))
	defer srv.Close()

	svc := newServiceForServer(t, srv, &recordingPublisher{})
	crt := cartWith(cart.Item{ProductID: "p1", Title: "Manzana", Price: 1000, Qty: 1, Image: "manzana.png"})

	order, err := svc.Submit(context.Background(), "jwt-token", "u1", crt, Request{
		Address:       "Av. Siempre Viva 742",
		PaymentMethod: "transfer",
	})
	require.NoError(t, err)
	assert.Equal(t, "ord2", order.ID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"json", "multipart"}, attempts)
}

func TestService_SubmitSavesAddress(t *testing.T) {
	var mu sync.Mutex
	var savedAddress string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/collections/orders/records":
			_, _ = fmt.Fprint(w, `{"id": "ord3", "status": "paid"}`)
		case r.Method == http.MethodPatch && r.URL.Path == "/api/collections/users/records/u1":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			savedAddress = r.FormValue("address")
			_, _ = fmt.Fprint(w, `{"id": "u1"}`)
		case strings.HasPrefix(r.URL.Path, "/api/collections/products/records/"):
			_, _ = fmt.Fprint(w, `{"id":"p1"}`)
		}
	}))
	defer srv.Close()

	svc := newServiceForServer(t, srv, &recordingPublisher{})
	crt := cartWith(cart.Item{ProductID: "p1", Title: "Manzana", Price: 1000, Qty: 1})

	_, err := svc.Submit(context.Background(), "jwt-token", "u1", crt, Request{
		Address:       "Av. Siempre Viva 742",
		SaveAddress:   true,
		PaymentMethod: "transfer",
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Av. Siempre Viva 742", savedAddress)
}
