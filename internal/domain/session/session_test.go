package session

import (
	"errors"
	"testing"
	"time"
)

func TestCheckRotatable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	revokedAt := now.Add(-time.Minute)

	tests := []struct {
		name string
		s    Session
		hash string
		want error
	}{
		{name: "ok", s: Session{TokenHash: "h", ExpiresAt: now.Add(time.Hour)}, hash: "h"},
		{name: "revoked", s: Session{TokenHash: "h", ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}, hash: "h", want: ErrRevoked},
		{name: "expired", s: Session{TokenHash: "h", ExpiresAt: now.Add(-time.Second)}, hash: "h", want: ErrExpired},
		{name: "mismatch", s: Session{TokenHash: "h", ExpiresAt: now.Add(time.Hour)}, hash: "other", want: ErrMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.s.CheckRotatable(tt.hash, now); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}
