// Package jsonstore persists the user registry in a single JSON file, the
// same {"users": [...]} document the original deployment used. It is meant
// for small registries: everything lives in memory and every mutation
// rewrites the file atomically (temp file + rename).
package jsonstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/carebridge/userhub/internal/domain/user"
	"github.com/carebridge/userhub/internal/store"
)

type document struct {
	Users []record `json:"users"`
}

// record is the on-disk shape. It differs from user.User in one way: the
// password hash is persisted here, while the domain struct hides it from
// JSON on purpose.
type record struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"hashed_password"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Store struct {
	path string
	log  *slog.Logger

	// One lock serializes every read-modify-write; hashing and token work
	// always happen outside it.
	mu    sync.RWMutex
	users map[string]user.User // keyed by id
}

// Open loads the registry from path, creating the file when absent. A
// malformed file is recovered as an empty registry rather than propagated:
// the gateway treats "no data" uniformly.
func Open(path string, log *slog.Logger) (*Store, error) {
	s := &Store{
		path:  path,
		log:   log,
		users: make(map[string]user.User),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, err
			}
			return s, s.persistLocked()
		}
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Warn("user store file is malformed, starting empty", "path", path, "err", err)
		return s, nil
	}

	for _, rec := range doc.Users {
		role, err := user.ParseRole(rec.Role)
		if err != nil {
			// Unknown roles fail closed to the default.
			role = user.RoleUser
		}
		u := user.User{
			ID:           rec.ID,
			Email:        user.NormalizeEmail(rec.Email),
			PasswordHash: rec.PasswordHash,
			Name:         rec.Name,
			Phone:        rec.Phone,
			Role:         role,
			CreatedAt:    rec.CreatedAt,
			UpdatedAt:    rec.UpdatedAt,
		}
		if u.ID == "" {
			continue // skip malformed entries
		}
		s.users[u.ID] = u
	}

	return s, nil
}

// persistLocked writes the whole document atomically. Callers hold mu.
func (s *Store) persistLocked() error {
	doc := document{Users: make([]record, 0, len(s.users))}
	for _, u := range s.users {
		doc.Users = append(doc.Users, record{
			ID:           u.ID,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			Name:         u.Name,
			Phone:        u.Phone,
			Role:         u.Role.String(),
			CreatedAt:    u.CreatedAt,
			UpdatedAt:    u.UpdatedAt,
		})
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}

func (s *Store) FindByID(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (user.User, error) {
	email = user.NormalizeEmail(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, store.ErrNotFound
}

// Insert adds a new user. The duplicate-email check and the write happen
// under the same lock, so uniqueness holds under concurrent registration.
func (s *Store) Insert(_ context.Context, u user.User) error {
	u.Email = user.NormalizeEmail(u.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return store.ErrDuplicateEmail
		}
	}

	s.users[u.ID] = u
	return s.persistLocked()
}

func (s *Store) Update(_ context.Context, u user.User) error {
	u.Email = user.NormalizeEmail(u.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}

	if u.Email != current.Email {
		for _, existing := range s.users {
			if existing.ID != u.ID && existing.Email == u.Email {
				return store.ErrDuplicateEmail
			}
		}
	}

	s.users[u.ID] = u
	return s.persistLocked()
}

// UpdateFn runs a read-modify-write as one critical section. Two
// concurrent patches to the same user both land: the second mutate sees
// the first one's result instead of a stale read.
func (s *Store) UpdateFn(_ context.Context, id string, mutate func(u *user.User) error) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[id]
	if !ok {
		return user.User{}, store.ErrNotFound
	}

	updated := current
	if err := mutate(&updated); err != nil {
		return user.User{}, err
	}
	updated.ID = current.ID
	updated.Email = user.NormalizeEmail(updated.Email)

	if updated.Email != current.Email {
		for _, existing := range s.users {
			if existing.ID != id && existing.Email == updated.Email {
				return user.User{}, store.ErrDuplicateEmail
			}
		}
	}

	s.users[id] = updated
	if err := s.persistLocked(); err != nil {
		s.users[id] = current
		return user.User{}, err
	}
	return updated, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}

	delete(s.users, id)
	return s.persistLocked()
}

func (s *Store) List(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}
