package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/showflix-scheduler/internal/persistence"
)

type sessionRepositoryStub struct {
	sessions    map[string]Session
	createErr   error
	deleteErr   error
	deleteCalls []time.Time
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{sessions: map[string]Session{}}
}

func (r *sessionRepositoryStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	if r.createErr != nil {
		return Session{}, r.createErr
	}
	r.sessions[session.TokenHash] = session
	return session, nil
}

func (r *sessionRepositoryStub) GetSession(ctx context.Context, tokenHash string) (Session, error) {
	s, ok := r.sessions[tokenHash]
	if !ok {
		return Session{}, persistence.ErrNotFound
	}
	return s, nil
}

func (r *sessionRepositoryStub) UpdateSession(ctx context.Context, session Session) (Session, error) {
	for hash, s := range r.sessions {
		if s.ID == session.ID {
			delete(r.sessions, hash)
		}
	}
	r.sessions[session.TokenHash] = session
	return session, nil
}

func (r *sessionRepositoryStub) RevokeSession(ctx context.Context, tokenHash string, revokedAt time.Time) (Session, error) {
	s, ok := r.sessions[tokenHash]
	if !ok {
		return Session{}, persistence.ErrNotFound
	}
	s.RevokedAt = &revokedAt
	r.sessions[tokenHash] = s
	return s, nil
}

func (r *sessionRepositoryStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	r.deleteCalls = append(r.deleteCalls, reference)
	return r.deleteErr
}

func sequence(values ...string) func() string {
	return func() string {
		if len(values) == 0 {
			return "fallback"
		}
		v := values[0]
		values = values[1:]
		return v
	}
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func newTestAuthService(users *userRepositoryStub, sessions *sessionRepositoryStub, clock *fixedClock, tokens func() string) *AuthService {
	return NewAuthService(users, sessions, plainVerify, tokens, clock.Now, time.Hour, []byte("test-secret"))
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("issues sessions for valid credentials", func(t *testing.T) {
		t.Parallel()

		clock := &fixedClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
		users := newUserRepositoryStub(User{UserID: "kim", Username: "김철수"})
		sessions := newSessionRepositoryStub()
		svc := newTestAuthService(users, sessions, clock, sequence("session-id", "session-token"))

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{UserID: " kim ", Password: "kim"})
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if result.Token != "session-token" || result.Session.ID != "session-id" {
			t.Fatalf("unexpected result %+v", result)
		}
		if result.Session.TokenHash == "session-token" || result.Session.TokenHash != svc.HashToken("session-token") {
			t.Fatalf("expected token to be stored hashed, got %q", result.Session.TokenHash)
		}
		if !result.Session.ExpiresAt.Equal(clock.now.Add(time.Hour)) {
			t.Fatalf("unexpected expiry %v", result.Session.ExpiresAt)
		}
		if result.Principal.Username != "김철수" {
			t.Fatalf("unexpected principal %+v", result.Principal)
		}
		if len(sessions.deleteCalls) != 1 || !sessions.deleteCalls[0].Equal(clock.now) {
			t.Fatalf("expected DeleteExpiredSessions to be called with now, got %#v", sessions.deleteCalls)
		}
	})

	t.Run("unknown users and wrong passwords share one sentinel", func(t *testing.T) {
		t.Parallel()

		clock := &fixedClock{now: time.Now()}
		users := newUserRepositoryStub(User{UserID: "kim"})
		svc := newTestAuthService(users, newSessionRepositoryStub(), clock, sequence())

		for _, params := range []AuthenticateParams{
			{UserID: "kim", Password: "wrong"},
			{UserID: "ghost", Password: "ghost"},
			{UserID: "", Password: "x"},
		} {
			if _, err := svc.Authenticate(context.Background(), params); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials for %+v, got %v", params, err)
			}
		}
	})

	t.Run("upgrades legacy hashes after login", func(t *testing.T) {
		t.Parallel()

		clock := &fixedClock{now: time.Now()}
		users := newUserRepositoryStub(User{UserID: "kim"})
		users.hashes["kim"] = "$2a$10$legacy"
		verify := func(hash, password string) error { return nil }
		svc := NewAuthService(users, newSessionRepositoryStub(), verify, sequence("id", "tok"), clock.Now, time.Hour, nil).
			WithPasswordHasher(plainHash)

		if _, err := svc.Authenticate(context.Background(), AuthenticateParams{UserID: "kim", Password: "fresh"}); err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if users.hashes["kim"] != "pw-fresh" {
			t.Fatalf("expected legacy hash to be replaced, got %q", users.hashes["kim"])
		}
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		t.Parallel()

		expected := errors.New("boom")
		clock := &fixedClock{now: time.Now()}
		sessions := newSessionRepositoryStub()
		sessions.createErr = expected
		svc := newTestAuthService(newUserRepositoryStub(User{UserID: "kim"}), sessions, clock, sequence("a", "b"))

		if _, err := svc.Authenticate(context.Background(), AuthenticateParams{UserID: "kim", Password: "kim"}); !errors.Is(err, expected) {
			t.Fatalf("expected error %v, got %v", expected, err)
		}
	})
}

func TestAuthService_SessionLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fixedClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	users := newUserRepositoryStub(User{UserID: "admin", Username: "관리자", IsAdmin: true})
	sessions := newSessionRepositoryStub()
	svc := newTestAuthService(users, sessions, clock, sequence("sid", "first", "second"))

	login, err := svc.Authenticate(ctx, AuthenticateParams{UserID: "admin", Password: "admin"})
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	principal, err := svc.ValidateSession(ctx, login.Token)
	if err != nil || !principal.IsAdmin || principal.UserID != "admin" {
		t.Fatalf("unexpected principal %+v err=%v", principal, err)
	}

	clock.now = clock.now.Add(30 * time.Minute)
	refreshed, err := svc.RefreshSession(ctx, login.Token)
	if err != nil {
		t.Fatalf("RefreshSession failed: %v", err)
	}
	if refreshed.Token != "second" || !refreshed.Session.ExpiresAt.Equal(clock.now.Add(time.Hour)) {
		t.Fatalf("unexpected refresh %+v", refreshed)
	}
	if _, err := svc.ValidateSession(ctx, login.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected rotated token to be rejected, got %v", err)
	}

	if err := svc.RevokeSession(ctx, refreshed.Token); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if _, err := svc.ValidateSession(ctx, refreshed.Token); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
	if err := svc.RevokeSession(ctx, "unknown"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown token, got %v", err)
	}
}

func TestAuthService_ValidateSession_Expired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fixedClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	users := newUserRepositoryStub(User{UserID: "kim"})
	svc := newTestAuthService(users, newSessionRepositoryStub(), clock, sequence("sid", "tok"))

	login, err := svc.Authenticate(ctx, AuthenticateParams{UserID: "kim", Password: "kim"})
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	clock.now = clock.now.Add(2 * time.Hour)
	if _, err := svc.ValidateSession(ctx, login.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if _, err := svc.ValidateSession(ctx, ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty token, got %v", err)
	}
}
