package store

import (
	"context"
	"errors"
	"time"

	"github.com/carebridge/userhub/internal/domain/user"
	"github.com/carebridge/userhub/internal/security"
	"github.com/google/uuid"
)

// EnsureAdminUser creates the bootstrap admin account when configured and
// absent. Idempotent: an existing account (any role) with that email is
// left untouched.
func EnsureAdminUser(ctx context.Context, s UserStore, email, password, name string) error {
	if email == "" || password == "" {
		return nil
	}

	_, err := s.FindByEmail(ctx, user.NormalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	return s.Insert(ctx, user.User{
		ID:           uuid.NewString(),
		Email:        user.NormalizeEmail(email),
		PasswordHash: hash,
		Name:         name,
		Role:         user.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}
