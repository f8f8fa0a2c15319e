package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/carebridge/userhub/internal/config"
	"github.com/carebridge/userhub/internal/domain/user"
	"github.com/carebridge/userhub/internal/http/middlewares"
	"github.com/carebridge/userhub/internal/rbac"
	"github.com/carebridge/userhub/internal/security"
	"github.com/carebridge/userhub/internal/store"
	"github.com/carebridge/userhub/internal/validate"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UsersHandler struct {
	store store.UserStore
}

func NewUsersHandler(userStore store.UserStore) *UsersHandler {
	return &UsersHandler{store: userStore}
}

type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=200"`
	Phone    string `json:"phone" binding:"omitempty"`
	Role     string `json:"role" binding:"omitempty,oneof=admin user volunteer patient sponsor supporter"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=200"`
	Phone    *string `json:"phone" binding:"omitempty"`
	Password *string `json:"password" binding:"omitempty,min=8,max=200"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin user volunteer patient sponsor supporter"`
}

func (h *UsersHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	users, err := h.store.List(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *UsersHandler) Summary(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	users, err := h.store.List(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{ID: u.ID, Name: u.Name})
	}

	ctx.JSON(http.StatusOK, gin.H{"users": out})
}

func (h *UsersHandler) Get(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.store.FindByID(cctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// Me returns the authenticated user's own profile.
func (h *UsersHandler) Me(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)
	if !ok || id == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.store.FindByID(cctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// Create is the admin path for provisioning accounts; unlike /auth/register
// it does not log the new user in.
func (h *UsersHandler) Create(ctx *gin.Context) {
	var req CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if report := validate.CheckPasswordStrength(req.Password); !report.Valid {
		RespondBadRequest(ctx, "Password is too weak", report)
		return
	}

	role := user.RoleUser
	if req.Role != "" {
		parsed, err := user.ParseRole(req.Role)
		if err != nil {
			RespondBadRequest(ctx, "Unknown role", nil)
			return
		}
		role = parsed
	}

	phone := req.Phone
	if phone != "" {
		if !validate.ValidPhone(phone) {
			RespondBadRequest(ctx, "Invalid phone number", nil)
			return
		}
		phone = validate.FormatPhone(phone)
	}

	// hash before any store interaction
	hash, err := security.HashPassword(req.Password)
	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.NewString(),
		Email:        user.NormalizeEmail(req.Email),
		PasswordHash: hash,
		Name:         validate.SanitizeString(req.Name),
		Phone:        phone,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.store.Insert(cctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

// Update modifies a user record. Admins (update_users) may update anyone
// including the role; everyone else may only update their own profile via
// update_profile, and never their role.
func (h *UsersHandler) Update(ctx *gin.Context) {
	targetID := ctx.Param("id")
	if targetID == "" {
		targetID, _ = middlewares.UserIDFromContext(ctx)
	}

	actorID, _ := middlewares.UserIDFromContext(ctx)
	actorRole, _ := middlewares.RoleFromContext(ctx)

	isSelf := actorID != "" && actorID == targetID
	canManage := rbac.Has(actorRole, rbac.PermUpdateUsers)

	if !canManage && !(isSelf && rbac.Has(actorRole, rbac.PermUpdateProfile)) {
		RespondForbidden(ctx, "You may not update this user")
		return
	}

	var req UpdateUserRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if req.Role != nil && !canManage {
		RespondForbidden(ctx, "Only user managers may change roles")
		return
	}

	// Validate and hash up front; the store call below holds the record
	// lock and the slow part must not serialize unrelated requests.
	var newHash string
	if req.Password != nil {
		if report := validate.CheckPasswordStrength(*req.Password); !report.Valid {
			RespondBadRequest(ctx, "Password is too weak", report)
			return
		}
		hash, err := security.HashPassword(*req.Password)
		if err != nil {
			RespondInternal(ctx, "Could not update user")
			return
		}
		newHash = hash
	}

	var newPhone string
	if req.Phone != nil && *req.Phone != "" {
		if !validate.ValidPhone(*req.Phone) {
			RespondBadRequest(ctx, "Invalid phone number", nil)
			return
		}
		newPhone = validate.FormatPhone(*req.Phone)
	}

	var newRole user.Role
	if req.Role != nil {
		parsed, err := user.ParseRole(*req.Role)
		if err != nil {
			RespondBadRequest(ctx, "Unknown role", nil)
			return
		}
		newRole = parsed
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	// The patch applies inside the store's critical section: a concurrent
	// update to another field lands in the record this mutate sees.
	u, err := h.store.UpdateFn(cctx, targetID, func(u *user.User) error {
		if req.Name != nil {
			u.Name = validate.SanitizeString(*req.Name)
		}
		if req.Phone != nil {
			u.Phone = newPhone
		}
		if newHash != "" {
			u.PasswordHash = newHash
		}
		if req.Role != nil {
			u.Role = newRole
		}
		u.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// Delete removes a user. Admins (delete_users) may delete anyone; a user
// holding delete_account may delete themselves.
func (h *UsersHandler) Delete(ctx *gin.Context) {
	targetID := ctx.Param("id")
	if targetID == "" {
		targetID, _ = middlewares.UserIDFromContext(ctx)
	}

	actorID, _ := middlewares.UserIDFromContext(ctx)
	actorRole, _ := middlewares.RoleFromContext(ctx)

	isSelf := actorID != "" && actorID == targetID
	canManage := rbac.Has(actorRole, rbac.PermDeleteUsers)

	if !canManage && !(isSelf && rbac.Has(actorRole, rbac.PermDeleteAccount)) {
		RespondForbidden(ctx, "You may not delete this user")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.store.Delete(cctx, targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not delete user")
		return
	}

	ctx.Status(http.StatusNoContent)
}
