package application

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/example/showflix-scheduler/internal/persistence"
)

type userRepositoryStub struct {
	users     map[string]User
	hashes    map[string]string
	listErr   error
	createErr error
	deleted   []string
}

func newUserRepositoryStub(users ...User) *userRepositoryStub {
	r := &userRepositoryStub{users: map[string]User{}, hashes: map[string]string{}}
	for _, u := range users {
		r.users[u.UserID] = u
		r.hashes[u.UserID] = "pw-" + u.UserID
	}
	return r
}

func (r *userRepositoryStub) GetUserCredentials(ctx context.Context, userID string) (UserCredentials, error) {
	u, ok := r.users[userID]
	if !ok {
		return UserCredentials{}, persistence.ErrNotFound
	}
	return UserCredentials{User: u, PasswordHash: r.hashes[userID]}, nil
}

func (r *userRepositoryStub) GetUser(ctx context.Context, userID string) (User, error) {
	u, ok := r.users[userID]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return u, nil
}

func (r *userRepositoryStub) UpdatePassword(ctx context.Context, userID, hash string, updatedAt time.Time) error {
	if _, ok := r.users[userID]; !ok {
		return persistence.ErrNotFound
	}
	r.hashes[userID] = hash
	return nil
}

func (r *userRepositoryStub) CreateUser(ctx context.Context, user User, hash string) (User, error) {
	if r.createErr != nil {
		return User{}, r.createErr
	}
	if _, ok := r.users[user.UserID]; ok {
		return User{}, persistence.ErrDuplicate
	}
	r.users[user.UserID] = user
	r.hashes[user.UserID] = hash
	return user, nil
}

func (r *userRepositoryStub) UpdateUser(ctx context.Context, user User) (User, error) {
	if _, ok := r.users[user.UserID]; !ok {
		return User{}, persistence.ErrNotFound
	}
	r.users[user.UserID] = user
	return user, nil
}

func (r *userRepositoryStub) DeleteUser(ctx context.Context, userID string) error {
	if _, ok := r.users[userID]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.users, userID)
	r.deleted = append(r.deleted, userID)
	return nil
}

func (r *userRepositoryStub) ListUsers(ctx context.Context) ([]User, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID > out[j].UserID })
	return out, nil
}

func plainHash(password string) (string, error) { return "pw-" + password, nil }

func plainVerify(hash, password string) error {
	if hash != "pw-"+password {
		return ErrInvalidCredentials
	}
	return nil
}

var (
	adminPrincipal = Principal{UserID: "admin", Username: "관리자", IsAdmin: true}
	staffPrincipal = Principal{UserID: "kim", Username: "김철수"}
)

func newTestUserService(repo *userRepositoryStub) *UserService {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return NewUserService(repo, plainHash, plainVerify, func() time.Time { return now })
}

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()

	valid := UserInput{UserID: "lee", Username: "이민호", Password: "secret", PhoneNumber: "010-1234-5678", AccountType: "actor", Role: "door"}

	t.Run("requires administrator privileges", func(t *testing.T) {
		t.Parallel()
		svc := newTestUserService(newUserRepositoryStub())
		_, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: staffPrincipal, Input: valid})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates name, phone and password", func(t *testing.T) {
		t.Parallel()
		svc := newTestUserService(newUserRepositoryStub())
		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: adminPrincipal,
			Input:     UserInput{UserID: "x", Username: "name1", PhoneNumber: "123"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"username", "phoneNumber", "password"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error in %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("persists normalized users for administrators", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepositoryStub()
		svc := newTestUserService(repo)
		user, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: adminPrincipal, Input: valid})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if user.AccountType != AccountTypeActor || user.Role != "DOOR" || user.PhoneNumber != "01012345678" {
			t.Fatalf("unexpected user %+v", user)
		}
		if repo.hashes["lee"] != "pw-secret" {
			t.Fatalf("expected hashed password, got %q", repo.hashes["lee"])
		}
	})

	t.Run("maps duplicate ids to ErrAlreadyExists", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepositoryStub(User{UserID: "lee", Username: "이민호"})
		svc := newTestUserService(repo)
		_, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: adminPrincipal, Input: valid})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Parallel()

	t.Run("propagates ErrNotFound when the user is missing", func(t *testing.T) {
		t.Parallel()
		svc := newTestUserService(newUserRepositoryStub())
		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{Principal: adminPrincipal, UserID: "ghost", Input: UserInput{Username: "유령"}})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("admin account type forces the administrator flag", func(t *testing.T) {
		t.Parallel()
		created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		repo := newUserRepositoryStub(User{UserID: "kim", Username: "김철수", AccountType: AccountTypeStaff, CreatedAt: created})
		svc := newTestUserService(repo)
		user, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: adminPrincipal,
			UserID:    "kim",
			Input:     UserInput{Username: "김철수", AccountType: "관리자"},
		})
		if err != nil {
			t.Fatalf("UpdateUser: %v", err)
		}
		if !user.IsAdmin || user.AccountType != AccountTypeAdmin || !user.CreatedAt.Equal(created) {
			t.Fatalf("unexpected user %+v", user)
		}
	})

	t.Run("administrators cannot drop their own admin flag", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepositoryStub(User{UserID: "admin", Username: "관리자", AccountType: AccountTypeAdmin, IsAdmin: true})
		svc := newTestUserService(repo)
		_, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: adminPrincipal,
			UserID:    "admin",
			Input:     UserInput{Username: "관리자", AccountType: "STAFF"},
		})
		if !errors.Is(err, ErrSelfDemotion) {
			t.Fatalf("expected ErrSelfDemotion, got %v", err)
		}
		stored, _ := repo.GetUser(context.Background(), "admin")
		if !stored.IsAdmin {
			t.Fatalf("stored account lost its admin flag: %+v", stored)
		}

		user, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: adminPrincipal,
			UserID:    "admin",
			Input:     UserInput{Username: "관리자", PhoneNumber: "01012345678", AccountType: "ADMIN"},
		})
		if err != nil || !user.IsAdmin || user.PhoneNumber != "01012345678" {
			t.Fatalf("self profile edit = %+v, err = %v", user, err)
		}
	})

	t.Run("other administrators may be demoted", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepositoryStub(User{UserID: "lee", Username: "이민호", AccountType: AccountTypeAdmin, IsAdmin: true})
		svc := newTestUserService(repo)
		user, err := svc.UpdateUser(context.Background(), UpdateUserParams{
			Principal: adminPrincipal,
			UserID:    "lee",
			Input:     UserInput{Username: "이민호", AccountType: "STAFF"},
		})
		if err != nil || user.IsAdmin {
			t.Fatalf("UpdateUser = %+v, err = %v", user, err)
		}
	})
}

func TestUserService_ListUsers(t *testing.T) {
	t.Parallel()

	repo := newUserRepositoryStub(
		User{UserID: "c", Username: "이민호", AccountType: AccountTypeActor},
		User{UserID: "a", Username: "김철수", AccountType: AccountTypeStaff},
		User{UserID: "b", Username: "박영희", AccountType: AccountTypeActor},
	)
	svc := newTestUserService(repo)

	t.Run("requires administrator privileges", func(t *testing.T) {
		if _, err := svc.ListUsers(context.Background(), staffPrincipal); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("orders users by Korean name", func(t *testing.T) {
		users, err := svc.ListUsers(context.Background(), adminPrincipal)
		if err != nil {
			t.Fatalf("ListUsers: %v", err)
		}
		got := []string{users[0].Username, users[1].Username, users[2].Username}
		want := []string{"김철수", "박영희", "이민호"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}
	})

	t.Run("actors only include the ACTOR account type", func(t *testing.T) {
		if _, err := svc.ListActors(context.Background(), staffPrincipal); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		actors, err := svc.ListActors(context.Background(), adminPrincipal)
		if err != nil {
			t.Fatalf("ListActors: %v", err)
		}
		if len(actors) != 2 || actors[0].Username != "박영희" {
			t.Fatalf("unexpected actors %+v", actors)
		}
	})

	t.Run("directory exposes id and name", func(t *testing.T) {
		entries, err := svc.ListDirectory(context.Background(), adminPrincipal)
		if err != nil || len(entries) != 3 || entries[0].UserID != "a" {
			t.Fatalf("unexpected directory %+v err=%v", entries, err)
		}
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Parallel()

	t.Run("administrators cannot delete themselves", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepositoryStub(User{UserID: "admin", IsAdmin: true})
		svc := newTestUserService(repo)
		if err := svc.DeleteUser(context.Background(), adminPrincipal, "admin"); !errors.Is(err, ErrSelfDeletion) {
			t.Fatalf("expected ErrSelfDeletion, got %v", err)
		}
	})

	t.Run("missing users map to ErrNotFound", func(t *testing.T) {
		t.Parallel()
		svc := newTestUserService(newUserRepositoryStub())
		if err := svc.DeleteUser(context.Background(), adminPrincipal, "ghost"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("removes other accounts", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepositoryStub(User{UserID: "kim"})
		svc := newTestUserService(repo)
		if err := svc.DeleteUser(context.Background(), adminPrincipal, "kim"); err != nil {
			t.Fatalf("DeleteUser: %v", err)
		}
		if len(repo.deleted) != 1 || repo.deleted[0] != "kim" {
			t.Fatalf("unexpected deletes %v", repo.deleted)
		}
	})
}

func TestUserService_SelfService(t *testing.T) {
	t.Parallel()

	t.Run("change own password checks the current password", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepositoryStub(User{UserID: "kim", Username: "김철수"})
		svc := newTestUserService(repo)

		err := svc.ChangeOwnPassword(context.Background(), staffPrincipal, "wrong", "next")
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["currentPassword"] == "" {
			t.Fatalf("expected currentPassword validation error, got %v", err)
		}

		if err := svc.ChangeOwnPassword(context.Background(), staffPrincipal, "kim", "next"); err != nil {
			t.Fatalf("ChangeOwnPassword: %v", err)
		}
		if repo.hashes["kim"] != "pw-next" {
			t.Fatalf("expected new hash, got %q", repo.hashes["kim"])
		}
	})

	t.Run("update own phone normalizes separators", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepositoryStub(User{UserID: "kim", Username: "김철수"})
		svc := newTestUserService(repo)

		user, err := svc.UpdateOwnPhone(context.Background(), staffPrincipal, "010 9876-5432")
		if err != nil {
			t.Fatalf("UpdateOwnPhone: %v", err)
		}
		if user.PhoneNumber != "01098765432" {
			t.Fatalf("unexpected phone %q", user.PhoneNumber)
		}

		if _, err := svc.UpdateOwnPhone(context.Background(), staffPrincipal, "12-34"); err == nil {
			t.Fatal("expected short phone number to be rejected")
		}
	})

	t.Run("current user requires a session", func(t *testing.T) {
		t.Parallel()
		svc := newTestUserService(newUserRepositoryStub())
		if _, err := svc.CurrentUser(context.Background(), Principal{}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestUserService_EnsureAdministrator(t *testing.T) {
	t.Parallel()

	repo := newUserRepositoryStub()
	svc := newTestUserService(repo)

	created, err := svc.EnsureAdministrator(context.Background(), "root", "secret")
	if err != nil || !created {
		t.Fatalf("expected administrator to be created, got created=%v err=%v", created, err)
	}
	if u := repo.users["root"]; !u.IsAdmin || u.AccountType != AccountTypeAdmin {
		t.Fatalf("unexpected bootstrap user %+v", u)
	}

	created, err = svc.EnsureAdministrator(context.Background(), "root", "secret")
	if err != nil || created {
		t.Fatalf("expected existing administrator to be kept, got created=%v err=%v", created, err)
	}
}
