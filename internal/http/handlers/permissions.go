package handlers

import (
	"net/http"

	"github.com/carebridge/userhub/internal/http/middlewares"
	"github.com/carebridge/userhub/internal/rbac"
	"github.com/gin-gonic/gin"
)

// PermissionsHandler answers introspection questions for the caller's own
// role: what they may do, where they may go.
type PermissionsHandler struct{}

func NewPermissionsHandler() *PermissionsHandler {
	return &PermissionsHandler{}
}

// List returns every permission granted to the caller's role.
func (h *PermissionsHandler) List(ctx *gin.Context) {
	role, _ := middlewares.RoleFromContext(ctx)

	perms := rbac.List(role)
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"role":        role,
		"permissions": out,
	})
}

// Check tells the caller whether their role holds one named permission.
// Unknown permission names are a 400, not a silent false.
func (h *PermissionsHandler) Check(ctx *gin.Context) {
	perm, ok := rbac.Parse(ctx.Param("permission"))
	if !ok {
		RespondBadRequest(ctx, "Unknown permission", nil)
		return
	}

	role, _ := middlewares.RoleFromContext(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"permission": string(perm),
		"granted":    rbac.Has(role, perm),
	})
}

// Routes returns the UI routes the caller's role may enter, in declaration
// order so clients can render navigation without sorting.
func (h *PermissionsHandler) Routes(ctx *gin.Context) {
	role, _ := middlewares.RoleFromContext(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"role":   role,
		"routes": rbac.AccessibleRoutes(role),
	})
}

// RoleInfo bundles identity, permissions and routes in one response for
// clients that bootstrap their whole session from a single call.
func (h *PermissionsHandler) RoleInfo(ctx *gin.Context) {
	role, _ := middlewares.RoleFromContext(ctx)
	userID, _ := middlewares.UserIDFromContext(ctx)
	email, _ := middlewares.EmailFromContext(ctx)
	name, _ := middlewares.NameFromContext(ctx)

	perms := rbac.List(role)
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user_id":     userID,
		"user_name":   name,
		"user_email":  email,
		"role":        role,
		"permissions": out,
		"routes":      rbac.AccessibleRoutes(role),
	})
}
