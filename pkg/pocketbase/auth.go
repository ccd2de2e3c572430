package pocketbase

import (
	"context"
	"fmt"
	"net/http"
)

// AuthResponse is the result of a successful password authentication:
// a bearer token plus the authenticated user's record.
type AuthResponse struct {
	Token  string
	Record Record
}

// AuthWithPassword exchanges an identity (email or username) and password
// for a bearer token and the user record. The token is not stored on the
// client; callers attach it to the session they own.
func (c *Client) AuthWithPassword(ctx context.Context, identity, password string) (*AuthResponse, error) {
	body := map[string]string{
		"identity": identity,
		"password": password,
	}
	rec, err := c.doJSON(ctx, "", http.MethodPost, "/api/collections/users/auth-with-password", body)
	if err != nil {
		return nil, err
	}
	token := rec.GetString("token")
	if token == "" {
		return nil, fmt.Errorf("auth response missing token")
	}

	resp := &AuthResponse{Token: token}
	if raw, ok := rec["record"].(map[string]any); ok {
		resp.Record = Record(raw)
	}
	return resp, nil
}
