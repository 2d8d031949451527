package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/showflix-scheduler/internal/application"
)

type sessionValidatorStub struct {
	principal application.Principal
	err       error
	tokens    []string
}

func (s *sessionValidatorStub) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	s.tokens = append(s.tokens, token)
	return s.principal, s.err
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%q)", err, rec.Body.String())
	}
	return body
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	okHandler := func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Errorf("principal missing from context")
		}
		w.Header().Set("X-User", principal.UserID)
		w.WriteHeader(http.StatusOK)
	}

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		err        error
		wantStatus int
		wantCode   string
		wantToken  string
	}{
		{
			name:       "missing credentials",
			prepare:    func(*http.Request) {},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "AUTH_REQUIRED",
		},
		{
			name: "unknown token",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer bogus")
			},
			err:        application.ErrInvalidCredentials,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "AUTH_INVALID_SESSION",
			wantToken:  "bogus",
		},
		{
			name: "revoked session",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "revoked"})
			},
			err:        application.ErrSessionRevoked,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "AUTH_SESSION_EXPIRED",
			wantToken:  "revoked",
		},
		{
			name: "storage failure",
			prepare: func(r *http.Request) {
				r.Header.Set("X-Session-Token", "tok")
			},
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantToken:  "tok",
		},
		{
			name: "valid header token",
			prepare: func(r *http.Request) {
				r.Header.Set("X-Session-Token", "good")
			},
			wantStatus: http.StatusOK,
			wantToken:  "good",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			validator := &sessionValidatorStub{principal: application.Principal{UserID: "kim"}, err: tc.err}
			handler := RequireSession(validator, slog.New(slog.DiscardHandler))(okHandler)

			req := httptest.NewRequest(http.MethodGet, "/api/user/info", nil)
			tc.prepare(req)
			rec := httptest.NewRecorder()
			handler(rec, req, nil)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantCode != "" {
				if got := decodeError(t, rec).ErrorCode; got != tc.wantCode {
					t.Fatalf("error code = %q, want %q", got, tc.wantCode)
				}
			}
			if tc.wantToken != "" {
				if len(validator.tokens) != 1 || validator.tokens[0] != tc.wantToken {
					t.Fatalf("validated tokens = %v, want [%s]", validator.tokens, tc.wantToken)
				}
			}
			if tc.wantStatus == http.StatusOK && rec.Header().Get("X-User") != "kim" {
				t.Fatalf("principal not forwarded")
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	called := false
	handler := RequireAdmin(nil)(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), application.Principal{UserID: "lee"}))
	rec := httptest.NewRecorder()
	handler(rec, req, nil)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if called {
		t.Fatalf("handler must not run for non-admins")
	}
	if got := decodeError(t, rec).ErrorCode; got != "AUTH_FORBIDDEN" {
		t.Fatalf("error code = %q", got)
	}

	req = req.WithContext(ContextWithPrincipal(req.Context(), application.Principal{UserID: "admin", IsAdmin: true}))
	rec = httptest.NewRecorder()
	handler(rec, req, nil)
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("admin request rejected: %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(1, 2, slog.New(slog.DiscardHandler))
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	handler := limiter.Limit(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusNoContent)
	})

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler(rec, req, nil)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if got := do("10.0.0.1:5000"); got != http.StatusNoContent {
			t.Fatalf("request %d status = %d", i, got)
		}
	}
	if got := do("10.0.0.1:5001"); got != http.StatusTooManyRequests {
		t.Fatalf("burst exceeded status = %d, want 429", got)
	}
	if got := do("10.0.0.2:5000"); got != http.StatusNoContent {
		t.Fatalf("other client throttled: %d", got)
	}

	now = now.Add(2 * time.Second)
	if got := do("10.0.0.1:5002"); got != http.StatusNoContent {
		t.Fatalf("token not replenished: %d", got)
	}

	now = now.Add(time.Hour)
	do("10.0.0.3:1")
	limiter.mu.Lock()
	_, stale := limiter.visitors["10.0.0.1"]
	limiter.mu.Unlock()
	if stale {
		t.Fatalf("idle visitor was not pruned")
	}
}

func TestRequestLoggerAttachesLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if LoggerFromContext(r.Context()) == nil {
			t.Errorf("request logger missing from context")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	out := buf.String()
	for _, want := range []string{`"request_id":1`, `"path":"/healthz"`, `"status":418`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %q missing %s", out, want)
		}
	}
}

func TestTranslateValidationMessage(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"username is required":                            "이름은(는) 필수 항목입니다.",
		"username must be 1-20 Korean or English letters": "이름은(는) 한글 또는 영문 1~20자로 입력해 주세요.",
		"phone number must be 10-13 digits":               "전화번호는 숫자 10~13자리로 입력해 주세요.",
		"manager is too long":                             "담당자이(가) 너무 깁니다.",
		"something else entirely":                         "something else entirely",
	}
	for in, want := range tests {
		if got := translateValidationMessage(in); got != want {
			t.Errorf("translateValidationMessage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHandleServiceErrorStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{application.ErrUnauthorized, http.StatusForbidden},
		{application.ErrInvalidCredentials, http.StatusUnauthorized},
		{application.ErrSessionExpired, http.StatusUnauthorized},
		{application.ErrNotFound, http.StatusNotFound},
		{application.ErrAlreadyExists, http.StatusConflict},
		{application.ErrScheduleConfirmed, http.StatusConflict},
		{application.ErrSelfDeletion, http.StatusConflict},
		{application.ErrSelfDemotion, http.StatusConflict},
		{application.ErrInvalidSlip, http.StatusUnprocessableEntity},
		{application.ErrSlipFontMissing, http.StatusServiceUnavailable},
		{&application.ValidationError{FieldErrors: map[string]string{"date": "date must use YYYY-MM-DD"}}, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	r := newResponder(slog.New(slog.DiscardHandler))
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		r.handleServiceError(context.Background(), rec, tc.err)
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}

	rec := httptest.NewRecorder()
	r.handleServiceError(context.Background(), rec, &application.ValidationError{FieldErrors: map[string]string{"date": "date must use YYYY-MM-DD"}})
	if got := decodeError(t, rec).Errors["date"]; got != "날짜는 YYYY-MM-DD 형식으로 입력해 주세요." {
		t.Fatalf("localized field error = %q", got)
	}
}
