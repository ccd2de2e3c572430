package pocketbase

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(srv.URL, 5*time.Second, logger), srv
}

func Test_Client_List(t *testing.T) {
	var gotPath, gotFilter, gotSort, gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFilter = r.URL.Query().Get("filter")
		gotSort = r.URL.Query().Get("sort")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(ListResult{
			Page:       1,
			TotalItems: 1,
			Items:      []Record{{"id": "rec1", "title": "Manzana Fuji", "qty": float64(2)}},
		})
	})

	// when
	result, err := client.List(context.Background(), "tok123", "cart_items", Query{
		Filter: `sessionId="abc"`,
		Sort:   "-created",
	})

	// then
	require.NoError(t, err)
	assert.Equal(t, "/api/collections/cart_items/records", gotPath)
	assert.Equal(t, `sessionId="abc"`, gotFilter)
	assert.Equal(t, "-created", gotSort)
	assert.Equal(t, "Bearer tok123", gotAuth)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "rec1", result.Items[0].ID())
	assert.Equal(t, 2, result.Items[0].GetInt("qty"))
}

func Test_Client_CreateMultipart(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "p1", r.FormValue("productId"))
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "manzana.png", header.Filename)
		assert.Equal(t, []byte{1, 2, 3}, data)
		_ = json.NewEncoder(w).Encode(Record{"id": "cart1"})
	})

	rec, err := client.CreateMultipart(context.Background(), "", "cart_items",
		map[string]string{"productId": "p1"},
		File{Field: "image", Name: "manzana.png", Data: []byte{1, 2, 3}},
	)

	require.NoError(t, err)
	assert.Equal(t, "cart1", rec.ID())
}

func Test_Client_Delete_EmptyBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.Delete(context.Background(), "", "cart_items", "rec1")

	require.NoError(t, err)
}

func Test_Client_APIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":400,"message":"Failed to create record.","data":{"image":{"code":"validation_required","message":"Missing required value."}}}`))
	})

	_, err := client.Create(context.Background(), "", "cart_items", map[string]any{"productId": "p1"})

	require.Error(t, err)
	assert.True(t, IsFieldRequired(err, "image"))
	assert.False(t, IsFieldRequired(err, "title"))
	assert.False(t, IsNotFound(err))
}

func Test_Client_AuthWithPassword(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/collections/users/auth-with-password", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@example.com", body["identity"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":  "tok456",
			"record": map[string]any{"id": "u1", "email": "ana@example.com", "role": true},
		})
	})

	resp, err := client.AuthWithPassword(context.Background(), "ana@example.com", "secret123")

	require.NoError(t, err)
	assert.Equal(t, "tok456", resp.Token)
	assert.Equal(t, "u1", resp.Record.ID())
	assert.True(t, resp.Record.GetBool("role"))
}

func Test_FileURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient("http://127.0.0.1:8090", time.Second, logger)

	testCases := []struct {
		name     string
		filename string
		expected string
	}{
		{
			name:     "stored filename",
			filename: "manzana.png",
			expected: "http://127.0.0.1:8090/api/files/products/p1/manzana.png",
		},
		{
			name:     "absolute url passes through",
			filename: "https://cdn.example.com/manzana.png",
			expected: "https://cdn.example.com/manzana.png",
		},
		{
			name:     "empty filename",
			filename: "",
			expected: "",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, client.FileURL("products", "p1", tc.filename))
		})
	}
}

func Test_Record_Accessors(t *testing.T) {
	rec := Record{
		"price": "2990",
		"qty":   float64(3),
		"role":  "true",
		"stock": float64(12),
	}

	assert.Equal(t, float64(2990), rec.GetFloat("price"))
	assert.Equal(t, 3, rec.GetInt("qty"))
	assert.True(t, rec.GetBool("role"))
	assert.True(t, rec.Has("stock"))
	assert.False(t, rec.Has("imageUrl"))
}

func Test_EscapeFilterValue(t *testing.T) {
	testCases := []struct {
		name     string
		value    string
		expected string
	}{
		{
			name:     "plain value untouched",
			value:    "miel-organica",
			expected: "miel-organica",
		},
		{
			name:     "double quotes escaped",
			value:    `miel "organica"`,
			expected: `miel \"organica\"`,
		},
		{
			name:     "backslash escaped before quotes",
			value:    `a\"b`,
			expected: `a\\\"b`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, EscapeFilterValue(tc.value))
		})
	}
}
