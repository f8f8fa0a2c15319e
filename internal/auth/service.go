package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carebridge/userhub/internal/domain/user"
	"github.com/carebridge/userhub/internal/rbac"
	"github.com/carebridge/userhub/internal/security"
	"github.com/carebridge/userhub/internal/store"
	"github.com/google/uuid"
)

// MetricsRecorder is the tiny slice of the metrics registry the service
// needs; keeps the prometheus wiring out of the auth core and lets tests
// skip it entirely.
type MetricsRecorder interface {
	ObserveAuth(op, result string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveAuth(string, string) {}

// Service is the composition root of the auth core: it orchestrates the
// credential store, the password hasher and the token manager. Construct it
// explicitly and inject the store; there is no process-wide instance.
type Service struct {
	store   store.UserStore
	tokens  *Manager
	log     *slog.Logger
	metrics MetricsRecorder
}

func NewService(userStore store.UserStore, tokens *Manager, log *slog.Logger, metrics MetricsRecorder) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{
		store:   userStore,
		tokens:  tokens,
		log:     log,
		metrics: metrics,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     string // optional; empty defaults to "user"
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult carries both tokens plus the minimal profile the boundary
// layer exposes. The password hash never leaves the store path.
type LoginResult struct {
	User   user.User
	Tokens TokenPair
}

// Login authenticates an email/password pair. A missing account and a wrong
// password produce the identical ErrInvalidCredentials; timing differs (no
// hash run on the missing-account path) but the response does not.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	found, err := s.store.FindByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.ObserveAuth("login", "denied")
			return LoginResult{}, ErrInvalidCredentials
		}
		s.metrics.ObserveAuth("login", "error")
		return LoginResult{}, err
	}

	if !security.CheckPassword(found.PasswordHash, password) {
		s.metrics.ObserveAuth("login", "denied")
		return LoginResult{}, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(found)
	if err != nil {
		s.metrics.ObserveAuth("login", "error")
		return LoginResult{}, err
	}

	s.metrics.ObserveAuth("login", "ok")
	s.log.InfoContext(ctx, "user logged in", "user_id", found.ID, "role", found.Role)

	return LoginResult{User: found, Tokens: tokens}, nil
}

// Register creates the user and then logs it in with the same credentials.
// The two steps are composed, not transactional: if token issuance fails
// after the insert, the user exists and a later login will succeed.
func (s *Service) Register(ctx context.Context, in RegisterInput) (LoginResult, error) {
	role := user.RoleUser
	if in.Role != "" {
		parsed, err := user.ParseRole(in.Role)
		if err != nil {
			return LoginResult{}, fmt.Errorf("%w: %q", user.ErrUnknownRole, in.Role)
		}
		role = parsed
	}

	// Hash before touching the store so the slow part never holds its lock.
	hash, err := security.HashPassword(in.Password)
	if err != nil {
		s.metrics.ObserveAuth("register", "error")
		return LoginResult{}, err
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.NewString(),
		Email:        user.NormalizeEmail(in.Email),
		PasswordHash: hash,
		Name:         in.Name,
		Phone:        in.Phone,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Insert(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			s.metrics.ObserveAuth("register", "denied")
			return LoginResult{}, ErrDuplicateEmail
		}
		s.metrics.ObserveAuth("register", "error")
		return LoginResult{}, err
	}

	s.metrics.ObserveAuth("register", "ok")
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)

	return s.Login(ctx, in.Email, in.Password)
}

// Refresh trades a valid refresh token for a fresh access token. The user
// is re-fetched so the new token carries the current role, not the one at
// refresh-token issuance. The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		s.metrics.ObserveAuth("refresh", "denied")
		return "", err
	}

	u, err := s.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.ObserveAuth("refresh", "denied")
			return "", ErrUserNotFound
		}
		s.metrics.ObserveAuth("refresh", "error")
		return "", err
	}

	access, err := s.tokens.GenerateAccessToken(u.ID, u.Email, u.Name, u.Role.String())
	if err != nil {
		s.metrics.ObserveAuth("refresh", "error")
		return "", err
	}

	s.metrics.ObserveAuth("refresh", "ok")
	return access, nil
}

// Authorize is the per-request gate: verify the bearer token, then require
// at least one of the given permissions. No permissions means any valid
// token passes. Pure verification, no I/O, safe at any concurrency.
func (s *Service) Authorize(rawToken string, required ...rbac.Permission) (*Claims, error) {
	if rawToken == "" {
		s.metrics.ObserveAuth("authorize", "unauthorized")
		return nil, ErrUnauthorized
	}

	claims, err := s.tokens.VerifyAccessToken(rawToken)
	if err != nil {
		s.metrics.ObserveAuth("authorize", "unauthorized")
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if len(required) > 0 && !rbac.HasAny(claims.Role, required...) {
		s.metrics.ObserveAuth("authorize", "forbidden")
		return nil, ErrForbidden
	}

	s.metrics.ObserveAuth("authorize", "ok")
	return claims, nil
}

func (s *Service) issueTokens(u user.User) (TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(u.ID, u.Email, u.Name, u.Role.String())
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.tokens.GenerateRefreshToken(u.ID, u.Email)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
