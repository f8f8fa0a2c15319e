package store

import (
	"context"
	"errors"

	"github.com/carebridge/userhub/internal/domain/user"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
)

// UserStore is the persistence collaborator the auth gateway is built
// against. Implementations own serialization of concurrent mutations on the
// same record; callers never hold a store lock while doing CPU-heavy work
// like password hashing.
//
// FindByEmail expects the normalized (lower-cased) form; backends store
// emails normalized so uniqueness is case-insensitive.
type UserStore interface {
	FindByID(ctx context.Context, id string) (user.User, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
	Insert(ctx context.Context, u user.User) error
	Update(ctx context.Context, u user.User) error
	// UpdateFn applies mutate to the current record inside the store's
	// write lock (or a row-locked transaction), so two concurrent patches
	// to the same user compose instead of the last full-record write
	// erasing the first. mutate must stay CPU-light: hashing happens
	// before the call.
	UpdateFn(ctx context.Context, id string, mutate func(u *user.User) error) (user.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]user.User, error)
}
