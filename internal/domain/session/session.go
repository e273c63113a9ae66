package session

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("refresh session not found")
	ErrRevoked  = errors.New("refresh session revoked")
	ErrExpired  = errors.New("refresh session expired")
	// the presented token does not hash to the stored value
	ErrMismatch = errors.New("refresh token hash mismatch")
)

// Session is one issued refresh token, keyed by its jti. Only the HMAC of the
// raw token is kept.
type Session struct {
	ID         string
	UserID     int64
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *string
	CreatedAt  time.Time
}

// CheckRotatable reports why s cannot be exchanged for a new token, if at all.
func (s Session) CheckRotatable(presentedHash string, now time.Time) error {
	switch {
	case s.RevokedAt != nil:
		return ErrRevoked
	case now.After(s.ExpiresAt):
		return ErrExpired
	case s.TokenHash != presentedHash:
		return ErrMismatch
	}
	return nil
}
