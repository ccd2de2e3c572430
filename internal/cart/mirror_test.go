package cart

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

	"github.com/huertohogar/storefront/pkg/pocketbase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartRecordsPath = "/api/collections/cart_items/records"

func newMirrorForServer(t *testing.T, srv *httptest.Server) *RemoteMirror {
	t.Helper()
	pb := pocketbase.NewClient(srv.URL, 5*time.Second, slog.Default())
	return NewRemoteMirror(pb, slog.Default())
}

func TestRemoteMirror_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, cartRecordsPath, r.URL.Path)
		assert.Equal(t, `sessionId="s1"`, r.URL.Query().Get("filter"))

		_, _ = fmt.Fprint(w, `{
			"page": 1, "perPage": 30, "totalItems": 2, "totalPages": 1,
			"items": [
				{"id": "r1", "productId": "p1", "title": "Manzana Fuji", "price": 1200, "qty": 2, "sessionId": "s1"},
				{"id": "r2", "productId": "p2", "title": "Miel Organica", "price": 9990, "qty": 1, "sessionId": "s1"}
			]
		}`)
	}))
	defer srv.Close()

	mirror := newMirrorForServer(t, srv)
	items, err := mirror.Load(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "r1", items[0].ServerID)
	assert.Equal(t, int64(1200), items[0].Price)
	assert.Equal(t, 2, items[0].Qty)
}

func TestRemoteMirror_UpsertWithServerIDPatchesDirectly(t *testing.T) {
	var patched bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, cartRecordsPath+"/r1", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(4), body["qty"])
		patched = true
		_, _ = fmt.Fprint(w, `{"id": "r1", "qty": 4}`)
	}))
	defer srv.Close()

	mirror := newMirrorForServer(t, srv)
	id, err := mirror.Upsert(context.Background(), "s1", Item{ProductID: "p1", Qty: 4, ServerID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "r1", id)
	assert.True(t, patched)
}

func TestRemoteMirror_UpsertFindsExistingRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, `productId="p1" && sessionId="s1"`, r.URL.Query().Get("filter"))
			_, _ = fmt.Fprint(w, `{"page":1,"perPage":30,"totalItems":1,"totalPages":1,"items":[{"id":"r9","productId":"p1"}]}`)
		case http.MethodPatch:
			require.Equal(t, cartRecordsPath+"/r9", r.URL.Path)
			_, _ = fmt.Fprint(w, `{"id": "r9", "qty": 3}`)
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	mirror := newMirrorForServer(t, srv)
	id, err := mirror.Upsert(context.Background(), "s1", Item{ProductID: "p1", Qty: 3})
	require.NoError(t, err)
	assert.Equal(t, "r9", id)
}

func TestRemoteMirror_LookupEscapesFilterValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, `productId="p\"1" && sessionId="s\"1"`, r.URL.Query().Get("filter"))
		_, _ = fmt.Fprint(w, `{"page":1,"perPage":30,"totalItems":0,"totalPages":0,"items":[]}`)
	}))
	defer srv.Close()

	mirror := newMirrorForServer(t, srv)
	id, err := mirror.findRecord(context.Background(), `s"1`, `p"1`)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestRemoteMirror_CreateFallbackChain(t *testing.T) {
	// The collection rejects multipart, rejects plain JSON with a required
	// image field, and finally accepts JSON with an imageUrl.
	var creates []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/files/products/p1/manzana.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png-bytes"))

		case r.Method == http.MethodGet && r.URL.Path == cartRecordsPath:
			// record lookup finds nothing
			_, _ = fmt.Fprint(w, `{"page":1,"perPage":30,"totalItems":0,"totalPages":0,"items":[]}`)

		case r.Method == http.MethodPost && strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"):
			creates = append(creates, "multipart")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprint(w, `{"status":400,"message":"Failed to create record.","data":{}}`)

		case r.Method == http.MethodPost:
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if _, hasURL := body["imageUrl"]; hasURL {
				creates = append(creates, "json+imageUrl")
				assert.Equal(t, "p1", body["productId"])
				_, _ = fmt.Fprint(w, `{"id": "r77", "productId": "p1"}`)
				return
			}
			creates = append(creates, "json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprint(w, `{"status":400,"message":"Failed to create record.","data":{"image":{"code":"validation_required","message":"Missing required value."}}}`)

		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	mirror := newMirrorForServer(t, srv)
	id, err := mirror.Upsert(context.Background(), "s1", Item{
		ProductID: "p1",
		Title:     "Manzana Fuji",
		Price:     1200,
		Qty:       2,
		Image:     "manzana.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "r77", id)
	assert.Equal(t, []string{"multipart", "json", "json+imageUrl"}, creates)
}

func TestRemoteMirror_CreateProceedsWhenImageFetchFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/files/"):
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodGet:
			_, _ = fmt.Fprint(w, `{"page":1,"perPage":30,"totalItems":0,"totalPages":0,"items":[]}`)
		case r.Method == http.MethodPost:
			// fileless multipart create succeeds
			require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
			_, _ = fmt.Fprint(w, `{"id": "r5", "productId": "p1"}`)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	mirror := newMirrorForServer(t, srv)
	id, err := mirror.Upsert(context.Background(), "s1", Item{ProductID: "p1", Qty: 1, Image: "gone.png"})
	require.NoError(t, err)
	assert.Equal(t, "r5", id)
}

func TestRemoteMirror_Delete(t *testing.T) {
	t.Run("looks up the record when no server id is known", func(t *testing.T) {
		var deleted string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				_, _ = fmt.Fprint(w, `{"page":1,"perPage":30,"totalItems":1,"totalPages":1,"items":[{"id":"r3","productId":"p1"}]}`)
			case http.MethodDelete:
				deleted = strings.TrimPrefix(r.URL.Path, cartRecordsPath+"/")
				w.WriteHeader(http.StatusNoContent)
			}
		}))
		defer srv.Close()

		mirror := newMirrorForServer(t, srv)
		require.NoError(t, mirror.Delete(context.Background(), "s1", Item{ProductID: "p1"}))
		assert.Equal(t, "r3", deleted)
	})

	t.Run("absent record is not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, `{"page":1,"perPage":30,"totalItems":0,"totalPages":0,"items":[]}`)
		}))
		defer srv.Close()

		mirror := newMirrorForServer(t, srv)
		require.NoError(t, mirror.Delete(context.Background(), "s1", Item{ProductID: "ghost"}))
	})

	t.Run("tolerates a racing 404", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprint(w, `{"status":404,"message":"The requested resource wasn't found.","data":{}}`)
		}))
		defer srv.Close()

		mirror := newMirrorForServer(t, srv)
		require.NoError(t, mirror.Delete(context.Background(), "s1", Item{ProductID: "p1", ServerID: "r1"}))
	})
}

func TestRemoteMirror_ClearDeletesEveryRecord(t *testing.T) {
	var mu sync.Mutex
	deleted := make(map[string]bool)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = fmt.Fprint(w, `{"page":1,"perPage":30,"totalItems":3,"totalPages":1,"items":[{"id":"r1"},{"id":"r2"},{"id":"r3"}]}`)
		case http.MethodDelete:
			mu.Lock()
			deleted[strings.TrimPrefix(r.URL.Path, cartRecordsPath+"/")] = true
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	mirror := newMirrorForServer(t, srv)
	require.NoError(t, mirror.Clear(context.Background(), "s1"))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, deleted, 3)
}
