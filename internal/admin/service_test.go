package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/huertohogar/storefront/pkg/pocketbase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Summarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/api/collections/orders/records":
			if r.URL.Query().Get("page") == "2" {
				_, _ = fmt.Fprint(w, `{"page":2,"perPage":500,"totalItems":3,"totalPages":2,"items":[
					{"id":"o3","total":4000}
				]}`)
				return
			}
			_, _ = fmt.Fprint(w, `{"page":1,"perPage":500,"totalItems":3,"totalPages":2,"items":[
				{"id":"o1","total":1000},
				{"id":"o2","total":2000}
			]}`)

		case "/api/collections/products/records":
			_, _ = fmt.Fprint(w, `{"page":1,"perPage":500,"totalItems":2,"totalPages":1,"items":[
				{"id":"p1","stock":3},
				{"id":"p2","stock":50}
			]}`)

		case "/api/collections/users/records":
			_, _ = fmt.Fprint(w, `{"page":1,"perPage":1,"totalItems":42,"totalPages":42,"items":[{"id":"u1"}]}`)

		default:
			t.Errorf("unexpected request path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	pb := pocketbase.NewClient(srv.URL, 5*time.Second, slog.Default())
	svc := NewService(pb, slog.Default())

	summary, err := svc.Summarize(context.Background(), "admin-token")
	require.NoError(t, err)

	// revenue covers every order page, not just the first
	assert.Equal(t, 3, summary.OrderCount)
	assert.Equal(t, int64(7000), summary.Revenue)
	assert.Equal(t, 2, summary.ProductCount)
	assert.Equal(t, 1, summary.LowStockCount)
	assert.Equal(t, 42, summary.UserCount)
}

func TestService_SummarizeListFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = fmt.Fprint(w, `{"status":403,"message":"Only admins can perform this action.","data":{}}`)
	}))
	defer srv.Close()

	pb := pocketbase.NewClient(srv.URL, 5*time.Second, slog.Default())
	svc := NewService(pb, slog.Default())

	_, err := svc.Summarize(context.Background(), "user-token")
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to list orders")
}
