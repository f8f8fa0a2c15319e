package middlewares_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/carebridge/userhub/internal/auth"
	"github.com/carebridge/userhub/internal/http/middlewares"
	"github.com/carebridge/userhub/internal/ratelimit"
	"github.com/carebridge/userhub/internal/rbac"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tokenAuthorizer treats the bearer token itself as the user id; handy for
// driving multiple identities through one router.
type tokenAuthorizer struct{}

func (tokenAuthorizer) Authorize(token string, _ ...rbac.Permission) (*auth.Claims, error) {
	if token == "" {
		return nil, auth.ErrUnauthorized
	}
	return &auth.Claims{UserID: token, Email: token + "@example.com", Role: "user"}, nil
}

func TestRateLimitKeysByAuthenticatedUser(t *testing.T) {
	r := gin.New()
	authn := middlewares.NewAuthMiddleware(tokenAuthorizer{})
	limited := middlewares.RateLimit(ratelimit.NewMemory(1, time.Minute), middlewares.KeyByUserOrIP, testLogger())
	r.GET("/x", authn.RequireAuth(), limited, func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := get("alice"); w.Code != http.StatusOK {
		t.Fatalf("first request got status %d, body=%s", w.Code, w.Body.String())
	}

	w := get("alice")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request got status %d, want 429, body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("429 response missing Retry-After header")
	}

	// both requests arrive from the same test client address, so a second
	// user only passes when the key is the user id rather than the IP
	if w := get("bob"); w.Code != http.StatusOK {
		t.Fatalf("different user got status %d, want 200, body=%s", w.Code, w.Body.String())
	}
}

func TestRequireJSON(t *testing.T) {
	r := gin.New()
	r.POST("/x", middlewares.RequireJSON(), func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name           string
		contentType    string
		wantStatusCode int
	}{
		{"missing", "", http.StatusUnsupportedMediaType},
		{"plain_text", "text/plain", http.StatusUnsupportedMediaType},
		{"json", "application/json", http.StatusOK},
		{"json_with_charset", "application/json; charset=utf-8", http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.POST("/x", middlewares.MaxBodyBytes(16), func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(body []byte) int {
		req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewReader(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := post([]byte("small")); code != http.StatusOK {
		t.Fatalf("small body got status %d, want 200", code)
	}
	if code := post(bytes.Repeat([]byte("x"), 64)); code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body got status %d, want 413", code)
	}
}
