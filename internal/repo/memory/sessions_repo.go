package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bitminerobotics/platform/internal/domain/session"
)

type SessionsRepo struct {
	mu    sync.Mutex
	items map[string]session.Session
}

func NewSessionsRepo() *SessionsRepo {
	return &SessionsRepo{items: make(map[string]session.Session)}
}

func (r *SessionsRepo) Issue(_ context.Context, s session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[s.ID] = s
	return nil
}

func (r *SessionsRepo) Rotate(_ context.Context, oldID, oldHash string, next session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.items[oldID]
	if !ok {
		return session.ErrNotFound
	}

	now := time.Now().UTC()
	if err := old.CheckRotatable(oldHash, now); err != nil {
		return err
	}

	old.RevokedAt = &now
	old.ReplacedBy = &next.ID
	r.items[oldID] = old

	next.UserID = old.UserID
	r.items[next.ID] = next
	return nil
}

func (r *SessionsRepo) Revoke(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.items[id]; ok && s.RevokedAt == nil {
		now := time.Now().UTC()
		s.RevokedAt = &now
		r.items[id] = s
	}
	return nil
}

func (r *SessionsRepo) RevokeAllForUser(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for id, s := range r.items {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &now
			r.items[id] = s
		}
	}
	return nil
}
