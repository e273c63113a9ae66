package user

import (
	"errors"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CreateUserRequest is the admin-side create payload; signup goes through the
// auth handler and always gets RoleUser.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=120"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"omitempty,oneof=admin user"`
}

// UpdateUserRequest replaces name/email/role. Password is only changed when sent.
type UpdateUserRequest struct {
	Name     string  `json:"name" binding:"required,min=2,max=120"`
	Email    string  `json:"email" binding:"required,email,max=254"`
	Role     string  `json:"role" binding:"required,oneof=admin user"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
}
