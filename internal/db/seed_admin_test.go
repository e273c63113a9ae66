package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bitminerobotics/platform/internal/domain/user"
	"github.com/bitminerobotics/platform/internal/security"
)

type fakeUserStore struct {
	byEmail map[string]user.User
	inserts int
	getErr  error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]user.User{}}
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getErr != nil {
		return user.User{}, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) Create(ctx context.Context, name, email, passwordHash, role string) (user.User, error) {
	if _, ok := f.byEmail[email]; ok {
		return user.User{}, user.ErrEmailTaken
	}
	f.inserts++
	u := user.User{
		ID:           int64(f.inserts),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	f.byEmail[email] = u
	return u, nil
}

func TestSeedAdmin_InsertsAdmin(t *testing.T) {
	store := newFakeUserStore()

	u, err := SeedAdmin(context.Background(), store, AdminSeed{Email: "Admin@BitMine.test", Password: "supersecret", Name: "Root"})
	if err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}

	if u.Role != user.RoleAdmin {
		t.Fatalf("expected admin role, got %q", u.Role)
	}
	if u.Email != "admin@bitmine.test" {
		t.Fatalf("email should be normalised, got %q", u.Email)
	}
	if err := security.CheckPassword(u.PasswordHash, "supersecret"); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestSeedAdmin_SecondRunInsertsNothing(t *testing.T) {
	store := newFakeUserStore()
	seed := AdminSeed{Email: "admin@bitmine.test", Password: "supersecret"}

	if _, err := SeedAdmin(context.Background(), store, seed); err != nil {
		t.Fatalf("first run: %v", err)
	}

	_, err := SeedAdmin(context.Background(), store, seed)
	if !errors.Is(err, ErrAdminExists) {
		t.Fatalf("expected ErrAdminExists, got %v", err)
	}

	if store.inserts != 1 {
		t.Fatalf("expected exactly one insert, got %d", store.inserts)
	}
}

func TestSeedAdmin_LookupErrorIsReturned(t *testing.T) {
	store := newFakeUserStore()
	store.getErr = errors.New("db down")

	_, err := SeedAdmin(context.Background(), store, AdminSeed{Email: "a@b.c", Password: "supersecret"})
	if err == nil || errors.Is(err, ErrAdminExists) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	if store.inserts != 0 {
		t.Fatalf("nothing should be inserted on lookup failure")
	}
}

func TestSeedAdmin_RequiresCredentials(t *testing.T) {
	if _, err := SeedAdmin(context.Background(), newFakeUserStore(), AdminSeed{Email: "a@b.c"}); err == nil {
		t.Fatalf("expected error for missing password")
	}
}

func TestEnsureAdminUser_ExistingIsNotAnError(t *testing.T) {
	store := newFakeUserStore()
	seed := AdminSeed{Email: "admin@bitmine.test", Password: "supersecret"}

	if err := EnsureAdminUser(context.Background(), store, seed); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if err := EnsureAdminUser(context.Background(), store, seed); err != nil {
		t.Fatalf("second ensure should be a no-op, got %v", err)
	}
	if err := EnsureAdminUser(context.Background(), store, AdminSeed{}); err != nil {
		t.Fatalf("unconfigured ensure should be a no-op, got %v", err)
	}
	if store.inserts != 1 {
		t.Fatalf("expected one insert, got %d", store.inserts)
	}
}
