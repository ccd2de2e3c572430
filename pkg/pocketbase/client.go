// Package pocketbase is a thin REST client for the PocketBase record
// storage and auth service. It only covers the endpoints the storefront
// consumes: collection record CRUD (JSON and multipart bodies), file URLs
// and password authentication.
package pocketbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client talks to a single PocketBase instance. The bearer token is passed
// per call rather than stored on the client, so one client instance serves
// every session.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Client for the given base URL, e.g. "http://127.0.0.1:8090".
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "pocketbase"),
	}
}

// BaseURL returns the configured PocketBase base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs a request against the PocketBase API and decodes the JSON
// response into a Record. DELETE responses have empty bodies and decode to
// an empty record.
func (c *Client) do(ctx context.Context, token, method, path string, contentType string, body io.Reader) (Record, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp.StatusCode, data)
	}

	if len(data) == 0 {
		return Record{}, nil
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return rec, nil
}

// doJSON marshals body as JSON and performs the request.
func (c *Client) doJSON(ctx context.Context, token, method, path string, body any) (Record, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	return c.do(ctx, token, method, path, "application/json", reader)
}
