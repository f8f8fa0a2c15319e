package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

type Claims struct {
	UserID    string `json:"sub"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"typ"`
	JTI       string `json:"jti"`
	jwt.RegisteredClaims
}

// Manager owns the signing secret and the algorithm choice. Tokens are
// immutable value objects once issued; issuance and verification share no
// mutable state, so a Manager is safe for unlimited concurrent use.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// GenerateAccessToken mints a short-lived token carrying the user's current
// identity and role. Expiry is absolute: issue time + TTL.
func (m *Manager) GenerateAccessToken(userID, email, name, role string) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		UserID:    userID,
		Email:     email,
		Name:      name,
		Role:      role,
		TokenType: tokenKindAccess,
		JTI:       uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// GenerateRefreshToken mints a long-lived token with a narrower claim set.
// It deliberately carries no role: the role is re-read from the store at
// refresh time so role changes take effect on the next refresh.
func (m *Manager) GenerateRefreshToken(userID, email string) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenKindRefresh,
		JTI:       uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) parseAndValidate(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HMAC; anything else is an attack or a bug.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// VerifyAccessToken validates signature, expiry and kind. Presenting a
// refresh token here fails with ErrWrongTokenKind: a long-lived refresh
// token must never stand in for short-lived authorization.
func (m *Manager) VerifyAccessToken(raw string) (*Claims, error) {
	claims, err := m.parseAndValidate(raw)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != tokenKindAccess {
		return nil, ErrWrongTokenKind
	}

	return claims, nil
}

// VerifyRefreshToken is the mirror check for the refresh flow.
func (m *Manager) VerifyRefreshToken(raw string) (*Claims, error) {
	claims, err := m.parseAndValidate(raw)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != tokenKindRefresh {
		return nil, ErrWrongTokenKind
	}

	return claims, nil
}
