package pocketbase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Record is a raw PocketBase record. PocketBase collections are loosely
// typed, so accessor helpers normalize the common ambiguous shapes (numbers
// arriving as float64, booleans arriving as strings) instead of letting
// callers type-assert everywhere.
type Record map[string]any

// ID returns the record identifier.
func (r Record) ID() string {
	return r.GetString("id")
}

// Has reports whether the record carries the given field at all. An absent
// field is different from a zero value (e.g. products without a stock field
// are uncapped).
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// GetString returns the field as a string. Numeric values are rendered,
// everything else collapses to "".
func (r Record) GetString(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// GetFloat returns the field as a float64. String-encoded numbers are
// parsed, which happens for fields submitted through multipart forms.
func (r Record) GetFloat(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// GetInt returns the field as an int, truncating floats.
func (r Record) GetInt(key string) int {
	return int(r.GetFloat(key))
}

// GetBool returns the field as a bool. PocketBase booleans occasionally
// arrive as the strings "true"/"false".
func (r Record) GetBool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

// ListResult is the envelope PocketBase returns for record list queries.
type ListResult struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalItems int      `json:"totalItems"`
	TotalPages int      `json:"totalPages"`
	Items      []Record `json:"items"`
}

// FieldError is a single per-field validation error in an APIError.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from PocketBase, including the per-field
// validation data for 400s.
type APIError struct {
	Status  int                   `json:"status"`
	Message string                `json:"message"`
	Data    map[string]FieldError `json:"data"`
}

func (e *APIError) Error() string {
	if len(e.Data) == 0 {
		return fmt.Sprintf("pocketbase: %d %s", e.Status, e.Message)
	}
	fields := make([]string, 0, len(e.Data))
	for field, fe := range e.Data {
		fields = append(fields, fmt.Sprintf("%s=%s", field, fe.Code))
	}
	return fmt.Sprintf("pocketbase: %d %s (%s)", e.Status, e.Message, strings.Join(fields, ", "))
}

// IsNotFound reports whether the error is a PocketBase 404.
func IsNotFound(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Status == 404
}

// IsFieldRequired reports whether the error is a validation failure caused
// by the named field being mandatory. The cart mirror uses this to detect
// collections with a required image field.
func IsFieldRequired(err error, field string) bool {
	apiErr, ok := asAPIError(err)
	if !ok {
		return false
	}
	fe, ok := apiErr.Data[field]
	return ok && fe.Code == "validation_required"
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := err != nil && errors.As(err, &apiErr)
	return apiErr, ok
}

// parseAPIError decodes an error payload, falling back to the raw body when
// it is not the usual JSON envelope.
func parseAPIError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	apiErr.Status = status
	return apiErr
}
