package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bitminerobotics/platform/internal/auth"
	"github.com/bitminerobotics/platform/internal/domain/session"
	"github.com/bitminerobotics/platform/internal/domain/user"
	"github.com/bitminerobotics/platform/internal/http/middlewares"
	"github.com/bitminerobotics/platform/internal/security"
	"github.com/gin-gonic/gin"
)

const refreshCookieName = "refresh_token"

type AuthUsers interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	Create(ctx context.Context, name, email, passwordHash, role string) (user.User, error)
}

// SessionStore persists refresh tokens by jti.
type SessionStore interface {
	Issue(ctx context.Context, row session.Session) error
	Rotate(ctx context.Context, oldID, oldHash string, next session.Session) error
	Revoke(ctx context.Context, id string) error
}

type AuthHandler struct {
	users        AuthUsers
	jwt          *auth.Manager
	sessions     SessionStore
	secureCookie bool
}

func NewAuthHandler(users AuthUsers, jwtManager *auth.Manager, sessions SessionStore, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		users:        users,
		jwt:          jwtManager,
		sessions:     sessions,
		secureCookie: secureCookie,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,min=2,max=120"`
}

type tokenResponse struct {
	AccessToken string    `json:"accessToken"`
	User        user.User `json:"user"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, ok := hashPassword(ctx, req.Password, "Could not create user")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	// signup never grants admin
	u, err := h.users.Create(cctx, strings.TrimSpace(req.Name), normalizeEmail(req.Email), hash, user.RoleUser)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}
		RespondInternal(ctx, "Could not create user", err)
		return
	}

	h.startSession(ctx, cctx, u, http.StatusCreated)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			RespondInternal(ctx, "Could not log in", err)
			return
		}
		security.BurnCompare(req.Password)
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	if err := security.CheckPassword(foundUser.PasswordHash, req.Password); err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	h.startSession(ctx, cctx, foundUser, http.StatusOK)
}

// hashPassword answers 400 for passwords bcrypt cannot take and 500 for
// anything else.
func hashPassword(ctx *gin.Context, plain, failMsg string) (string, bool) {
	hash, err := security.HashPassword(plain)
	switch {
	case errors.Is(err, security.ErrPasswordTooLong):
		RespondInvalid(ctx, "password_too_long", "Password must be at most 72 bytes")
		return "", false
	case err != nil:
		RespondInternal(ctx, failMsg, err)
		return "", false
	}
	return hash, true
}

func (h *AuthHandler) startSession(ctx *gin.Context, cctx context.Context, u user.User, status int) {
	accessToken, err := h.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token", err)
		return
	}

	rt, err := h.jwt.GenerateRefreshToken(u.ID, u.Email, u.Role)
	if err != nil {
		RespondInternal(ctx, "Could not generate refresh token", err)
		return
	}

	err = h.sessions.Issue(cctx, session.Session{
		ID:        rt.ID,
		UserID:    u.ID,
		TokenHash: rt.Hash,
		ExpiresAt: rt.ExpiresAt,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		RespondInternal(ctx, "Could not create session", err)
		return
	}

	h.setRefreshCookie(ctx, rt.Raw, rt.ExpiresAt)

	ctx.JSON(status, tokenResponse{AccessToken: accessToken, User: u})
}

// Refresh rotates the refresh cookie and returns a new access token.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, err := ctx.Cookie(refreshCookieName)

	if err != nil || raw == "" {
		RespondUnauthorized(ctx, "no_refresh", "Missing refresh token")
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)
	if err != nil {
		RespondUnauthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	next, err := h.jwt.GenerateRefreshToken(claims.UserID, claims.Email, claims.Role)
	if err != nil {
		RespondInternal(ctx, "Could not refresh session", err)
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	err = h.sessions.Rotate(cctx, claims.ID, h.jwt.HashRefreshToken(raw), session.Session{
		ID:        next.ID,
		UserID:    claims.UserID,
		TokenHash: next.Hash,
		ExpiresAt: next.ExpiresAt,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrExpired):
			RespondUnauthorized(ctx, "expired_refresh", "Refresh token expired.")
		case errors.Is(err, session.ErrNotFound),
			errors.Is(err, session.ErrRevoked),
			errors.Is(err, session.ErrMismatch):
			RespondUnauthorized(ctx, "invalid_refresh", "Invalid refresh token.")
		default:
			RespondInternal(ctx, "Could not refresh session", err)
		}
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(claims.UserID, claims.Email, claims.Role)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token", err)
		return
	}

	h.setRefreshCookie(ctx, next.Raw, next.ExpiresAt)

	ctx.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
}

// Logout always clears the cookie; revoking is best effort.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	defer func() {
		h.clearRefreshCookie(ctx)
		ctx.Status(http.StatusNoContent)
	}()

	raw, err := ctx.Cookie(refreshCookieName)
	if err != nil || raw == "" {
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)
	if err != nil {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.sessions.Revoke(cctx, claims.ID); err != nil {
		_ = ctx.Error(err)
	}
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "unauthorized", "Account no longer exists")
			return
		}
		RespondInternal(ctx, "Could not fetch account", err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *AuthHandler) setRefreshCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(refreshCookieName, raw, maxAge, "/auth", "", h.secureCookie, true)
}

func (h *AuthHandler) clearRefreshCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(refreshCookieName, "", -1, "/auth", "", h.secureCookie, true)
}
