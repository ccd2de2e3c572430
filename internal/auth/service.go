// Package auth wraps the record-storage service's user collection:
// password login, registration and profile updates. There is no protocol
// logic here; authentication itself is owned by the external service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/huertohogar/storefront/pkg/pocketbase"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidUserData    = errors.New("invalid user data")
)

// Service talks to the users collection.
type Service struct {
	pb     *pocketbase.Client
	logger *slog.Logger
}

// NewService creates an auth service backed by the given PocketBase client.
func NewService(pb *pocketbase.Client, logger *slog.Logger) *Service {
	return &Service{
		pb:     pb,
		logger: logger.With("component", "auth"),
	}
}

// RegisterRequest carries the fields of a new user record. Names follow
// the storefront's split first/middle/last/second-last convention.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	FirstName       string `json:"firstName" validate:"required"`
	MiddleName      string `json:"middleName"`
	LastName        string `json:"lastName" validate:"required"`
	SecondLastName  string `json:"secondLastName"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
}

// Login exchanges credentials for a bearer token plus the canonical user.
func (s *Service) Login(ctx context.Context, identity, password string) (string, *User, error) {
	resp, err := s.pb.AuthWithPassword(ctx, identity, password)
	if err != nil {
		var apiErr *pocketbase.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 400 {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login failed: %w", err)
	}
	return resp.Token, UserFromRecord(resp.Record), nil
}

// Register creates a user record.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	body := map[string]any{
		"email":           req.Email,
		"password":        req.Password,
		"passwordConfirm": req.PasswordConfirm,
	}
	// optional fields are omitted rather than sent empty
	setIfPresent(body, "primer_nombre", req.FirstName)
	setIfPresent(body, "segundo_nombre", req.MiddleName)
	setIfPresent(body, "primer_apellido", req.LastName)
	setIfPresent(body, "segundo_apellido", req.SecondLastName)
	setIfPresent(body, "phone", req.Phone)
	setIfPresent(body, "address", req.Address)

	rec, err := s.pb.Create(ctx, "", Collection, body)
	if err != nil {
		var apiErr *pocketbase.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 400 {
			if fe, ok := apiErr.Data["email"]; ok && fe.Code == "validation_not_unique" {
				return nil, ErrUserAlreadyExists
			}
			return nil, fmt.Errorf("%w: %s", ErrInvalidUserData, apiErr.Message)
		}
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return UserFromRecord(rec), nil
}

// UpdateProfile submits a multipart profile update (multipart because an
// avatar file may be attached) and returns the canonical updated user.
func (s *Service) UpdateProfile(ctx context.Context, token, userID string, fields map[string]string, avatar *pocketbase.File) (*User, error) {
	var files []pocketbase.File
	if avatar != nil {
		files = append(files, *avatar)
	}
	rec, err := s.pb.UpdateMultipart(ctx, token, Collection, userID, fields, files...)
	if err != nil {
		return nil, fmt.Errorf("profile update failed: %w", err)
	}
	return UserFromRecord(rec), nil
}

// AvatarURL resolves the user's avatar to a public URL.
func (s *Service) AvatarURL(u *User) string {
	return s.pb.FileURL(Collection, u.ID, u.Avatar)
}

func setIfPresent(body map[string]any, key, value string) {
	if value != "" {
		body[key] = value
	}
}
