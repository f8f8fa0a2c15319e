package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carebridge/userhub/internal/auth"
	"github.com/carebridge/userhub/internal/domain/user"
	"github.com/carebridge/userhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake gateway implementing handlers.AuthService

type fakeAuthService struct {
	loginFn    func(ctx context.Context, email, password string) (auth.LoginResult, error)
	registerFn func(ctx context.Context, in auth.RegisterInput) (auth.LoginResult, error)
	refreshFn  func(ctx context.Context, refreshToken string) (string, error)
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (auth.LoginResult, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, email, password)
	}
	return auth.LoginResult{}, nil
}

func (f *fakeAuthService) Register(ctx context.Context, in auth.RegisterInput) (auth.LoginResult, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, in)
	}
	return auth.LoginResult{}, nil
}

func (f *fakeAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if f.refreshFn != nil {
		return f.refreshFn(ctx, refreshToken)
	}
	return "", nil
}

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func loginResultFor(email, name, role string) auth.LoginResult {
	return auth.LoginResult{
		User: user.User{
			ID:    uuid.NewString(),
			Email: email,
			Name:  name,
			Role:  user.Role(role),
		},
		Tokens: auth.TokenPair{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
		},
	}
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		svcSetup       func(*fakeAuthService)
		wantStatusCode int
		wantCode       string
	}{
		{
			name: "success",
			body: `{"email": "ada@example.com", "password": "Str0ng!Pass"}`,
			svcSetup: func(f *fakeAuthService) {
				f.loginFn = func(ctx context.Context, email, password string) (auth.LoginResult, error) {
					return loginResultFor(email, "Ada", "user"), nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "invalid_credentials",
			body: `{"email": "ada@example.com", "password": "wrong"}`,
			svcSetup: func(f *fakeAuthService) {
				f.loginFn = func(ctx context.Context, email, password string) (auth.LoginResult, error) {
					return auth.LoginResult{}, auth.ErrInvalidCredentials
				}
			},
			wantStatusCode: http.StatusUnauthorized,
			wantCode:       "invalid_credentials",
		},
		{
			name: "missing_password",
			body: `{"email": "ada@example.com"}`,
			// invalid payload, the service is never reached
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "service_error",
			body: `{"email": "ada@example.com", "password": "Str0ng!Pass"}`,
			svcSetup: func(f *fakeAuthService) {
				f.loginFn = func(ctx context.Context, email, password string) (auth.LoginResult, error) {
					return auth.LoginResult{}, errors.New("store down")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAuthService{}
			if tt.svcSetup != nil {
				tt.svcSetup(svc)
			}

			h := handlers.NewAuthHandler(svc)
			r := setupRouter(http.MethodPost, "/auth/login", h.Login)

			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantCode != "" {
				var resp struct {
					Error struct {
						Code string `json:"code"`
					} `json:"error"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Error.Code != tt.wantCode {
					t.Fatalf("got error code %q, want %q", resp.Error.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestLoginHandlerResponseShape(t *testing.T) {
	svc := &fakeAuthService{
		loginFn: func(ctx context.Context, email, password string) (auth.LoginResult, error) {
			return loginResultFor(email, "Ada", "volunteer"), nil
		},
	}

	h := handlers.NewAuthHandler(svc)
	r := setupRouter(http.MethodPost, "/auth/login", h.Login)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewBufferString(`{"email": "ada@example.com", "password": "Str0ng!Pass"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp handlers.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.AccessToken != "access-token" || resp.RefreshToken != "refresh-token" {
		t.Fatalf("tokens not passed through: %+v", resp)
	}
	if resp.TokenType != "bearer" {
		t.Fatalf("got token_type %q, want bearer", resp.TokenType)
	}
	if resp.UserEmail != "ada@example.com" || resp.UserRole != "volunteer" {
		t.Fatalf("identity fields wrong: %+v", resp)
	}
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		svcSetup       func(*fakeAuthService)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"name": "Ada", "email": "ada@example.com", "password": "Str0ng!Pass"}`,
			svcSetup: func(f *fakeAuthService) {
				f.registerFn = func(ctx context.Context, in auth.RegisterInput) (auth.LoginResult, error) {
					return loginResultFor(in.Email, in.Name, "user"), nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			// passes the min=8 binding but fails the strength policy
			name:           "weak_password",
			body:           `{"name": "Ada", "email": "ada@example.com", "password": "aaaaaaaa"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_phone",
			body:           `{"name": "Ada", "email": "ada@example.com", "password": "Str0ng!Pass", "phone": "12345"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unknown_role",
			body:           `{"name": "Ada", "email": "ada@example.com", "password": "Str0ng!Pass", "role": "superadmin"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "duplicate_email",
			body: `{"name": "Ada", "email": "ada@example.com", "password": "Str0ng!Pass"}`,
			svcSetup: func(f *fakeAuthService) {
				f.registerFn = func(ctx context.Context, in auth.RegisterInput) (auth.LoginResult, error) {
					return auth.LoginResult{}, auth.ErrDuplicateEmail
				}
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name: "service_error",
			body: `{"name": "Ada", "email": "ada@example.com", "password": "Str0ng!Pass"}`,
			svcSetup: func(f *fakeAuthService) {
				f.registerFn = func(ctx context.Context, in auth.RegisterInput) (auth.LoginResult, error) {
					return auth.LoginResult{}, errors.New("store down")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAuthService{}
			if tt.svcSetup != nil {
				tt.svcSetup(svc)
			}

			h := handlers.NewAuthHandler(svc)
			r := setupRouter(http.MethodPost, "/auth/register", h.Register)

			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRegisterHandlerFormatsPhone(t *testing.T) {
	var got auth.RegisterInput

	svc := &fakeAuthService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (auth.LoginResult, error) {
			got = in
			return loginResultFor(in.Email, in.Name, "user"), nil
		},
	}

	h := handlers.NewAuthHandler(svc)
	r := setupRouter(http.MethodPost, "/auth/register", h.Register)

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		bytes.NewBufferString(`{"name": "Ada", "email": "ada@example.com", "password": "Str0ng!Pass", "phone": "555-123-4567"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if got.Phone != "(555) 123-4567" {
		t.Fatalf("got phone %q, want formatted", got.Phone)
	}
}

func TestRefreshHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		svcSetup       func(*fakeAuthService)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"refresh_token": "refresh-token"}`,
			svcSetup: func(f *fakeAuthService) {
				f.refreshFn = func(ctx context.Context, refreshToken string) (string, error) {
					return "new-access-token", nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing_token",
			body:           `{}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "expired",
			body: `{"refresh_token": "refresh-token"}`,
			svcSetup: func(f *fakeAuthService) {
				f.refreshFn = func(ctx context.Context, refreshToken string) (string, error) {
					return "", auth.ErrTokenExpired
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "malformed",
			body: `{"refresh_token": "garbage"}`,
			svcSetup: func(f *fakeAuthService) {
				f.refreshFn = func(ctx context.Context, refreshToken string) (string, error) {
					return "", auth.ErrTokenMalformed
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "access_token_in_refresh_slot",
			body: `{"refresh_token": "access-token"}`,
			svcSetup: func(f *fakeAuthService) {
				f.refreshFn = func(ctx context.Context, refreshToken string) (string, error) {
					return "", auth.ErrWrongTokenKind
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "user_deleted",
			body: `{"refresh_token": "refresh-token"}`,
			svcSetup: func(f *fakeAuthService) {
				f.refreshFn = func(ctx context.Context, refreshToken string) (string, error) {
					return "", auth.ErrUserNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAuthService{}
			if tt.svcSetup != nil {
				tt.svcSetup(svc)
			}

			h := handlers.NewAuthHandler(svc)
			r := setupRouter(http.MethodPost, "/auth/refresh", h.Refresh)

			req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRefreshHandlerDoesNotRotate(t *testing.T) {
	svc := &fakeAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (string, error) {
			return "new-access-token", nil
		},
	}

	h := handlers.NewAuthHandler(svc)
	r := setupRouter(http.MethodPost, "/auth/refresh", h.Refresh)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh",
		bytes.NewBufferString(`{"refresh_token": "the-original-refresh"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.AccessToken != "new-access-token" {
		t.Fatalf("got access token %q", resp.AccessToken)
	}
	// the same refresh token comes back; it was not reissued
	if resp.RefreshToken != "the-original-refresh" {
		t.Fatalf("refresh token changed: %q", resp.RefreshToken)
	}
}
