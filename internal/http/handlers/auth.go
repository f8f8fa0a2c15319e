package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/carebridge/userhub/internal/auth"
	"github.com/carebridge/userhub/internal/config"
	"github.com/carebridge/userhub/internal/domain/user"
	"github.com/carebridge/userhub/internal/validate"
	"github.com/gin-gonic/gin"
)

// AuthService is what the auth endpoints need from the gateway; small
// interface so tests can fake it.
type AuthService interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Register(ctx context.Context, in auth.RegisterInput) (auth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=200"`
	Phone    string `json:"phone" binding:"omitempty"`
	Role     string `json:"role" binding:"omitempty,oneof=admin user volunteer patient sponsor supporter"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse mirrors the wire shape the registry's clients already
// consume.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	UserEmail    string `json:"user_email"`
	UserRole     string `json:"user_role"`
}

func tokenResponse(res auth.LoginResult) TokenResponse {
	return TokenResponse{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		TokenType:    "bearer",
		UserID:       res.User.ID,
		UserName:     res.User.Name,
		UserEmail:    res.User.Email,
		UserRole:     res.User.Role.String(),
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if report := validate.CheckPasswordStrength(req.Password); !report.Valid {
		RespondBadRequest(ctx, "Password is too weak", report)
		return
	}

	phone := req.Phone
	if phone != "" {
		if !validate.ValidPhone(phone) {
			RespondBadRequest(ctx, "Invalid phone number", nil)
			return
		}
		phone = validate.FormatPhone(phone)
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	res, err := h.svc.Register(cctx, auth.RegisterInput{
		Name:     validate.SanitizeString(req.Name),
		Email:    req.Email,
		Password: req.Password,
		Phone:    phone,
		Role:     req.Role,
	})

	if err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateEmail):
			RespondConflict(ctx, "email_taken", "Email is already in use.")
		case errors.Is(err, user.ErrUnknownRole):
			RespondBadRequest(ctx, "Unknown role", nil)
		default:
			RespondInternal(ctx, "Could not create user")
		}
		return
	}

	ctx.JSON(http.StatusCreated, tokenResponse(res))
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	res, err := h.svc.Login(cctx, req.Email, req.Password)

	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			// same code and message whether the email or the password was
			// wrong; anything else is an enumeration oracle
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}

		RespondInternal(ctx, "Could not log in")
		return
	}

	ctx.JSON(http.StatusOK, tokenResponse(res))
}

func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req RefreshRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	access, err := h.svc.Refresh(cctx, req.RefreshToken)

	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			RespondUnAuthorized(ctx, "expired_refresh", "Refresh token expired.")
		case errors.Is(err, auth.ErrUserNotFound):
			RespondNotFound(ctx, "User no longer exists.")
		case errors.Is(err, auth.ErrTokenMalformed), errors.Is(err, auth.ErrWrongTokenKind):
			RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token.")
		default:
			RespondInternal(ctx, "Could not refresh session")
		}
		return
	}

	// the refresh token is returned unrotated; it stays valid until its
	// own expiry
	ctx.JSON(http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": req.RefreshToken,
		"token_type":    "bearer",
	})
}
