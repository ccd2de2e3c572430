package pocketbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Query describes a record list request. Filter and Sort use PocketBase
// expression syntax, e.g. `sessionId="abc"` and "-created".
type Query struct {
	Filter  string
	Sort    string
	Page    int
	PerPage int
}

// EscapeFilterValue keeps a value from breaking out of a double-quoted
// filter expression.
func EscapeFilterValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}

func (q Query) encode() string {
	values := url.Values{}
	if q.Filter != "" {
		values.Set("filter", q.Filter)
	}
	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		values.Set("perPage", strconv.Itoa(q.PerPage))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// File is a single file attached to a multipart create/update.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// List queries records in a collection.
func (c *Client) List(ctx context.Context, token, collection string, q Query) (*ListResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/collections/%s/records%s", c.baseURL, collection, q.encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s failed: %w", collection, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return decodeList(resp)
}

// Get fetches a single record by collection and id.
func (c *Client) Get(ctx context.Context, token, collection, id string) (Record, error) {
	return c.do(ctx, token, http.MethodGet, recordPath(collection, id), "", nil)
}

// Create inserts a record from a JSON body.
func (c *Client) Create(ctx context.Context, token, collection string, body any) (Record, error) {
	return c.doJSON(ctx, token, http.MethodPost, collectionPath(collection), body)
}

// CreateMultipart inserts a record from form fields plus optional file
// attachments. Required whenever a file field is part of the payload.
func (c *Client) CreateMultipart(ctx context.Context, token, collection string, fields map[string]string, files ...File) (Record, error) {
	contentType, body, err := encodeMultipart(fields, files)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, token, http.MethodPost, collectionPath(collection), contentType, body)
}

// Update patches a record with a JSON body.
func (c *Client) Update(ctx context.Context, token, collection, id string, body any) (Record, error) {
	return c.doJSON(ctx, token, http.MethodPatch, recordPath(collection, id), body)
}

// UpdateMultipart patches a record with form fields plus optional file
// attachments.
func (c *Client) UpdateMultipart(ctx context.Context, token, collection, id string, fields map[string]string, files ...File) (Record, error) {
	contentType, body, err := encodeMultipart(fields, files)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, token, http.MethodPatch, recordPath(collection, id), contentType, body)
}

// Delete removes a record by collection and id.
func (c *Client) Delete(ctx context.Context, token, collection, id string) error {
	_, err := c.do(ctx, token, http.MethodDelete, recordPath(collection, id), "", nil)
	return err
}

func collectionPath(collection string) string {
	return fmt.Sprintf("/api/collections/%s/records", collection)
}

func recordPath(collection, id string) string {
	return fmt.Sprintf("/api/collections/%s/records/%s", collection, id)
}

func encodeMultipart(fields map[string]string, files []File) (string, *bytes.Buffer, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return "", nil, fmt.Errorf("failed to write form field %s: %w", key, err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return "", nil, fmt.Errorf("failed to create form file %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return "", nil, fmt.Errorf("failed to write form file %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return w.FormDataContentType(), &buf, nil
}

func decodeList(resp *http.Response) (*ListResult, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp.StatusCode, data)
	}
	var result ListResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode list response: %w", err)
	}
	return &result, nil
}
