package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/carebridge/userhub/internal/http/handlers"
	"github.com/carebridge/userhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func permissionsRouter(role string) *gin.Engine {
	h := handlers.NewPermissionsHandler()

	return authedRouter(claimsFor("u1", role), func(r *gin.Engine, authn *middlewares.AuthMiddleware) {
		r.GET("/permissions", authn.RequireAuth(), h.List)
		r.GET("/permissions/check/:permission", authn.RequireAuth(), h.Check)
		r.GET("/routes", authn.RequireAuth(), h.Routes)
		r.GET("/role-info", authn.RequireAuth(), h.RoleInfo)
	})
}

func TestPermissionsList(t *testing.T) {
	r := permissionsRouter("volunteer")

	w := doJSON(r, http.MethodGet, "/permissions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Role != "volunteer" {
		t.Fatalf("got role %q", resp.Role)
	}

	want := []string{
		"view_agenda", "create_events", "update_events",
		"view_dashboard",
		"view_settings", "update_profile",
		"view_registry",
	}
	if !reflect.DeepEqual(resp.Permissions, want) {
		t.Fatalf("got permissions %v, want %v", resp.Permissions, want)
	}
}

func TestPermissionsCheck(t *testing.T) {
	tests := []struct {
		name           string
		role           string
		permission     string
		wantStatusCode int
		wantGranted    bool
	}{
		{"granted", "volunteer", "create_events", http.StatusOK, true},
		{"denied", "volunteer", "delete_users", http.StatusOK, false},
		{"unknown_permission", "volunteer", "launch_rockets", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r := permissionsRouter(tt.role)

			w := doJSON(r, http.MethodGet, "/permissions/check/"+tt.permission, "")
			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode != http.StatusOK {
				return
			}

			var resp struct {
				Granted bool `json:"granted"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Granted != tt.wantGranted {
				t.Fatalf("got granted=%v, want %v", resp.Granted, tt.wantGranted)
			}
		})
	}
}

func TestRoutesOrder(t *testing.T) {
	r := permissionsRouter("admin")

	w := doJSON(r, http.MethodGet, "/routes", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Routes []string `json:"routes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	// declaration order, not alphabetical
	want := []string{
		"/agenda", "/agenda/*",
		"/dashboard", "/dashboard/*",
		"/settings", "/settings/*",
		"/registry", "/registry/*",
		"/admin", "/admin/*",
	}
	if !reflect.DeepEqual(resp.Routes, want) {
		t.Fatalf("got routes %v, want %v", resp.Routes, want)
	}
}

func TestRoleInfo(t *testing.T) {
	r := permissionsRouter("patient")

	w := doJSON(r, http.MethodGet, "/role-info", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		UserID      string   `json:"user_id"`
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
		Routes      []string `json:"routes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.UserID != "u1" || resp.Role != "patient" {
		t.Fatalf("identity wrong: %+v", resp)
	}
	if len(resp.Permissions) == 0 || len(resp.Routes) == 0 {
		t.Fatalf("expected permissions and routes for patient: %+v", resp)
	}
}

func TestPermissionEndpointsRejectAnonymous(t *testing.T) {
	r := permissionsRouter("user")

	// no Authorization header
	req := httptest.NewRequest(http.MethodGet, "/permissions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401, body=%s", w.Code, w.Body.String())
	}
}
