package auth

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

func setupAuthTest(t *testing.T) *Sessions {
	t.Helper()

	s := newTestSessions(t, nil)
	sessions = nil
	sessionsOnce = sync.Once{}
	InitHandlers(s)

	t.Cleanup(func() {
		sessions = nil
		sessionsOnce = sync.Once{}
	})
	return s
}

func postLogin(password string) *http.Request {
	form := url.Values{"password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHandleLogin(t *testing.T) {
	setupAuthTest(t)

	tests := []struct {
		name       string
		password   string
		wantStatus int
		wantCookie bool
	}{
		{name: "correct password", password: "segredo", wantStatus: http.StatusSeeOther, wantCookie: true},
		{name: "wrong password", password: "errada", wantStatus: http.StatusUnauthorized},
		{name: "missing password", password: "", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleLogin(rec, postLogin(tt.password))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			gotCookie := len(rec.Result().Cookies()) > 0
			if gotCookie != tt.wantCookie {
				t.Fatalf("expected cookie=%v, got %v", tt.wantCookie, gotCookie)
			}
			if tt.wantCookie && rec.Header().Get("Location") != "/admin" {
				t.Fatalf("expected redirect to /admin, got %q", rec.Header().Get("Location"))
			}
		})
	}
}

func TestHandleLoginPageRedirectsWhenLoggedIn(t *testing.T) {
	s := setupAuthTest(t)

	rec := httptest.NewRecorder()
	HandleLoginPage(rec, httptest.NewRequest(http.MethodGet, "/admin/login", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected login form, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="password"`) {
		t.Fatal("expected password field in login page")
	}

	login := httptest.NewRecorder()
	if err := s.Login(login, "segredo"); err != nil {
		t.Fatalf("login: %v", err)
	}
	req := requestWithCookies(login.Result().Cookies())
	rec = httptest.NewRecorder()
	HandleLoginPage(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect for logged-in admin, got %d", rec.Code)
	}
}

func TestHandleLogout(t *testing.T) {
	setupAuthTest(t)

	rec := httptest.NewRecorder()
	HandleLogout(rec, httptest.NewRequest(http.MethodPost, "/admin/logout", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if rec.Header().Get("Location") != "/admin/login" {
		t.Fatalf("expected redirect to login, got %q", rec.Header().Get("Location"))
	}
}
