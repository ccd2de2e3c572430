package pocketbase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// FileURL builds the public URL for a stored file. Filenames that are
// already absolute URLs pass through unchanged, since some product records
// store external image links instead of uploaded files.
func (c *Client) FileURL(collection, recordID, filename string) string {
	if filename == "" {
		return ""
	}
	if strings.HasPrefix(filename, "http://") || strings.HasPrefix(filename, "https://") {
		return filename
	}
	return fmt.Sprintf("%s/api/files/%s/%s/%s", c.baseURL, collection, recordID, filename)
}

// DownloadFile fetches a file by URL and returns its bytes, the filename
// derived from the URL path and the reported content type. The cart mirror
// uses this to re-upload product images into cart records.
func (c *Client) DownloadFile(ctx context.Context, fileURL string) ([]byte, string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to build file request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", "", fmt.Errorf("file download failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, "", "", fmt.Errorf("file download failed: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to read file body: %w", err)
	}

	name := fileURL
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		name = "image"
	}
	return data, name, resp.Header.Get("Content-Type"), nil
}
