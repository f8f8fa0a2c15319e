// Package postgres is the pgx-backed UserStore for deployments that have
// outgrown the JSON file. Uniqueness is enforced by the unique index on
// lower-cased email, so concurrent registrations race safely in the
// database instead of in process memory.
package postgres

import (
	"context"
	"errors"

	"github.com/carebridge/userhub/internal/domain/user"
	"github.com/carebridge/userhub/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const userColumns = `id, email, password_hash, name, phone, role, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var role string

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Phone,
		&role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, store.ErrNotFound
		}
		return user.User{}, err
	}

	parsed, err := user.ParseRole(role)
	if err != nil {
		parsed = user.RoleUser
	}
	u.Role = parsed

	return u, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (user.User, error) {
	return scanUser(s.pool.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
}

func (s *Store) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return scanUser(s.pool.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		user.NormalizeEmail(email),
	))
}

func (s *Store) Insert(ctx context.Context, u user.User) error {
	_, err := s.pool.Exec(
		ctx,
		`INSERT INTO users (id, email, password_hash, name, phone, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, user.NormalizeEmail(u.Email), u.PasswordHash, u.Name, u.Phone, u.Role.String(), u.CreatedAt, u.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrDuplicateEmail
	}
	return err
}

func (s *Store) Update(ctx context.Context, u user.User) error {
	tag, err := s.pool.Exec(
		ctx,
		`UPDATE users
		 SET email = $2, password_hash = $3, name = $4, phone = $5, role = $6, updated_at = $7
		 WHERE id = $1`,
		u.ID, user.NormalizeEmail(u.Email), u.PasswordHash, u.Name, u.Phone, u.Role.String(), u.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrDuplicateEmail
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdateFn reads the row with FOR UPDATE inside a transaction, applies
// mutate, and writes the result before committing. The row lock makes
// concurrent patches to the same user queue up instead of overwriting
// each other with stale reads.
func (s *Store) UpdateFn(ctx context.Context, id string, mutate func(u *user.User) error) (user.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return user.User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	u, err := scanUser(tx.QueryRow(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`,
		id,
	))
	if err != nil {
		return user.User{}, err
	}

	if err := mutate(&u); err != nil {
		return user.User{}, err
	}
	u.ID = id
	u.Email = user.NormalizeEmail(u.Email)

	_, err = tx.Exec(
		ctx,
		`UPDATE users
		 SET email = $2, password_hash = $3, name = $4, phone = $5, role = $6, updated_at = $7
		 WHERE id = $1`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Phone, u.Role.String(), u.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return user.User{}, store.ErrDuplicateEmail
	}
	if err != nil {
		return user.User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]user.User, error) {
	rows, err := s.pool.Query(
		ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
