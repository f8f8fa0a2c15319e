package auth

import "errors"

// The full failure taxonomy of the auth core. Every failure is terminal for
// the request; nothing here is retried. The HTTP layer owns the mapping to
// status codes, nothing below it sees transport types.
var (
	// ErrInvalidCredentials covers both "no such email" and "wrong
	// password" on purpose: the caller must not be able to tell the two
	// apart, or login becomes an account-enumeration oracle.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrDuplicateEmail = errors.New("email already registered")
	ErrUserNotFound   = errors.New("user not found")

	ErrTokenMalformed = errors.New("malformed token")
	ErrTokenExpired   = errors.New("token expired")
	ErrWrongTokenKind = errors.New("wrong token kind")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
