package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bitminerobotics/platform/internal/domain/user"
	"github.com/bitminerobotics/platform/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type UsersStore interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	Create(ctx context.Context, name, email, passwordHash, role string) (user.User, error)
	Update(ctx context.Context, id int64, name, email, role string, passwordHash *string) (user.User, error)
	Delete(ctx context.Context, id int64) error
}

// SessionRevoker ends a user's refresh sessions.
type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID int64) error
}

type UsersHandler struct {
	repo     UsersStore
	sessions SessionRevoker
}

func NewUsersHandler(repo UsersStore, sessions SessionRevoker) *UsersHandler {
	return &UsersHandler{repo: repo, sessions: sessions}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx)
	defer cancel()

	items, err := h.repo.List(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not list users", err)
		return
	}

	ctx.JSON(http.StatusOK, items)
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not fetch user", err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	role := req.Role
	if role == "" {
		role = user.RoleUser
	}

	hash, ok := hashPassword(ctx, req.Password, "Could not create user")
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.repo.Create(cctx, strings.TrimSpace(req.Name), normalizeEmail(req.Email), hash, role)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}
		RespondInternal(ctx, "Could not create user", err)
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	var hash *string
	if req.Password != nil {
		hashed, ok := hashPassword(ctx, *req.Password, "Could not update user")
		if !ok {
			return
		}
		hash = &hashed
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	before, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not update user", err)
		return
	}

	u, err := h.repo.Update(cctx, id, strings.TrimSpace(req.Name), normalizeEmail(req.Email), req.Role, hash)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, user.ErrEmailTaken):
			RespondConflict(ctx, "email_taken", "Email is already in use.")
		default:
			RespondInternal(ctx, "Could not update user", err)
		}
		return
	}

	// a new password or a demotion ends existing sessions
	if hash != nil || before.Role != u.Role {
		if err := h.sessions.RevokeAllForUser(cctx, id); err != nil {
			_ = ctx.Error(err)
		}
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if self, _ := middlewares.UserIDFromContext(ctx); self == id {
		RespondInvalid(ctx, "cannot_delete_self", "Admins cannot delete their own account")
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not delete user", err)
		return
	}

	RespondMessage(ctx, "User deleted successfully")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
