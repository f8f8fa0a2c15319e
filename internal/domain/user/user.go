package user

import (
	"errors"
	"strings"
	"time"
)

// Role is the closed set of roles a user can hold. The wire format is the
// lower-case string; parse once at the boundary, never pass free-form text
// through internal logic.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
	RoleVolunteer Role = "volunteer"
	RolePatient   Role = "patient"
	RoleSponsor   Role = "sponsor"
	RoleSupporter Role = "supporter"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole canonicalizes and validates a wire role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleUser, RoleVolunteer, RolePatient, RoleSponsor, RoleSupporter:
		return r, nil
	default:
		return "", ErrUnknownRole
	}
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NormalizeEmail is the canonical form stored and compared everywhere:
// lower-case, trimmed, no inner whitespace.
func NormalizeEmail(email string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(email)), " ", "")
}
