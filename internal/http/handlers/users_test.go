package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/bitminerobotics/platform/internal/domain/user"
	"github.com/bitminerobotics/platform/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type fakeUsersRepo struct {
	users   map[int64]user.User
	nextID  int64
	revoked []int64
}

func newFakeUsersRepo(seed ...user.User) *fakeUsersRepo {
	f := &fakeUsersRepo{users: map[int64]user.User{}}
	for _, u := range seed {
		f.users[u.ID] = u
		if u.ID > f.nextID {
			f.nextID = u.ID
		}
	}
	return f
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0, len(f.users))
	for id := int64(1); id <= f.nextID; id++ {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) Count(ctx context.Context) (int, error) {
	return len(f.users), nil
}

func (f *fakeUsersRepo) Create(ctx context.Context, name, email, passwordHash, role string) (user.User, error) {
	if _, err := f.GetByEmail(ctx, email); err == nil {
		return user.User{}, user.ErrEmailTaken
	}
	f.nextID++
	u := user.User{ID: f.nextID, Name: name, Email: email, PasswordHash: passwordHash, Role: role}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, id int64, name, email, role string, passwordHash *string) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if other, err := f.GetByEmail(ctx, email); err == nil && other.ID != id {
		return user.User{}, user.ErrEmailTaken
	}
	u.Name, u.Email, u.Role = name, email, role
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	f.users[id] = u
	return u, nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsersRepo) RevokeAllForUser(ctx context.Context, userID int64) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

func newUsersRouter(repo *fakeUsersRepo, actingID int64) *gin.Engine {
	h := handlers.NewUsersHandler(repo, repo)

	r := gin.New()
	g := r.Group("/users", withIdentity(actingID, user.RoleAdmin))
	g.GET("", h.ListUsers)
	g.GET("/:id", h.GetUser)
	g.POST("", h.CreateUser)
	g.PUT("/:id", h.UpdateUser)
	g.DELETE("/:id", h.DeleteUser)
	return r
}

func TestUsersHandler_CreateAndDuplicate(t *testing.T) {
	repo := newFakeUsersRepo(user.User{ID: 1, Name: "Root", Email: "root@bitmine.test", Role: user.RoleAdmin})
	r := newUsersRouter(repo, 1)

	w := doJSON(r, http.MethodPost, "/users", `{"name":"Ada","email":"Ada@Example.com","password":"supersecret"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}

	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("password material leaked: %s", w.Body.String())
	}

	var created user.User
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.Email != "ada@example.com" || created.Role != user.RoleUser {
		t.Fatalf("unexpected user %+v", created)
	}

	w = doJSON(r, http.MethodPost, "/users", `{"name":"Ada","email":"ada@example.com","password":"supersecret"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("got %d, want 409", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/users", `{"name":"Bob","email":"bob@example.com","password":"short"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400 for short password", w.Code)
	}
}

func TestUsersHandler_UpdateRevokesOnPasswordChange(t *testing.T) {
	repo := newFakeUsersRepo(
		user.User{ID: 1, Name: "Root", Email: "root@bitmine.test", Role: user.RoleAdmin},
		user.User{ID: 2, Name: "Ada", Email: "ada@bitmine.test", Role: user.RoleUser, PasswordHash: "old"},
	)
	r := newUsersRouter(repo, 1)

	w := doJSON(r, http.MethodPut, "/users/2", `{"name":"Ada L","email":"ada@bitmine.test","role":"user"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}
	if len(repo.revoked) != 0 {
		t.Fatalf("sessions should survive a rename")
	}
	if repo.users[2].PasswordHash != "old" {
		t.Fatalf("hash must not change without a password")
	}

	w = doJSON(r, http.MethodPut, "/users/2", `{"name":"Ada L","email":"ada@bitmine.test","role":"user","password":"newpassword"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}
	if len(repo.revoked) != 1 || repo.revoked[0] != 2 {
		t.Fatalf("expected sessions for user 2 revoked, got %v", repo.revoked)
	}

	w = doJSON(r, http.MethodPut, "/users/2", `{"name":"Ada L","email":"root@bitmine.test","role":"user"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("got %d, want 409", w.Code)
	}
}

func TestUsersHandler_Delete(t *testing.T) {
	repo := newFakeUsersRepo(
		user.User{ID: 1, Name: "Root", Email: "root@bitmine.test", Role: user.RoleAdmin},
		user.User{ID: 2, Name: "Ada", Email: "ada@bitmine.test", Role: user.RoleUser},
	)
	r := newUsersRouter(repo, 1)

	if w := doJSON(r, http.MethodDelete, "/users/1", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("self delete got %d, want 400", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, "/users/2", ""); w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, "/users/2", ""); w.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", w.Code)
	}
}
