package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bitminerobotics/platform/internal/domain/user"
	"github.com/bitminerobotics/platform/internal/security"
)

var ErrAdminExists = errors.New("an account with this email already exists")

// UserStore is the slice of the users repository the bootstrap needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, name, email, passwordHash, role string) (user.User, error)
}

type AdminSeed struct {
	Email    string
	Password string
	Name     string
}

// SeedAdmin inserts an admin account unless the email is already taken, in
// which case it returns ErrAdminExists and writes nothing.
func SeedAdmin(ctx context.Context, store UserStore, seed AdminSeed) (user.User, error) {
	email := strings.TrimSpace(strings.ToLower(seed.Email))
	if email == "" || seed.Password == "" {
		return user.User{}, errors.New("admin email and password are required")
	}

	name := strings.TrimSpace(seed.Name)
	if name == "" {
		name = "Admin"
	}

	_, err := store.GetByEmail(ctx, email)

	if err == nil {
		return user.User{}, ErrAdminExists
	}

	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, fmt.Errorf("look up %s: %w", email, err)
	}

	hash, err := security.HashPassword(seed.Password)

	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := store.Create(ctx, name, email, hash, user.RoleAdmin)

	if err != nil {
		// lost a race with a concurrent insert
		if errors.Is(err, user.ErrEmailTaken) {
			return user.User{}, ErrAdminExists
		}
		return user.User{}, fmt.Errorf("insert admin: %w", err)
	}

	return u, nil
}

// EnsureAdminUser is the server-start variant: nothing configured or an
// existing account are both fine.
func EnsureAdminUser(ctx context.Context, store UserStore, seed AdminSeed) error {
	if seed.Email == "" || seed.Password == "" {
		return nil
	}

	_, err := SeedAdmin(ctx, store, seed)

	if errors.Is(err, ErrAdminExists) {
		return nil
	}

	return err
}
