package auth

import (
	"strings"

	"github.com/huertohogar/storefront/pkg/pocketbase"
)

// Collection is the users auth collection name.
const Collection = "users"

// User is the canonical authenticated-user shape. The remote users
// collection is loosely typed (role arrives as a boolean in older records
// and as a string in newer ones); normalization happens once, here.
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	MiddleName     string `json:"middleName"`
	LastName       string `json:"lastName"`
	SecondLastName string `json:"secondLastName"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	Avatar         string `json:"avatar"`
	Role           string `json:"role"`
}

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// UserFromRecord converts a raw users record into its canonical form.
func UserFromRecord(rec pocketbase.Record) *User {
	return &User{
		ID:             rec.ID(),
		Email:          rec.GetString("email"),
		FirstName:      rec.GetString("primer_nombre"),
		MiddleName:     rec.GetString("segundo_nombre"),
		LastName:       rec.GetString("primer_apellido"),
		SecondLastName: rec.GetString("segundo_apellido"),
		Phone:          rec.GetString("phone"),
		Address:        rec.GetString("address"),
		Avatar:         rec.GetString("avatar"),
		Role:           normalizeRole(rec["role"]),
	}
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// normalizeRole folds the two historical role encodings into one: legacy
// records store a boolean admin flag, newer ones a role string.
func normalizeRole(raw any) string {
	switch v := raw.(type) {
	case bool:
		if v {
			return RoleAdmin
		}
		return RoleCustomer
	case string:
		role := strings.ToLower(strings.TrimSpace(v))
		switch role {
		case "", "false":
			return RoleCustomer
		case "true":
			return RoleAdmin
		default:
			return role
		}
	default:
		return RoleCustomer
	}
}
