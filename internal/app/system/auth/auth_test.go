package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/meeralabs/portal/internal/app/system/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

// signedInCookies signs in through the manager and returns the cookies it set.
func signedInCookies(t *testing.T, sm *auth.SessionManager, tok *oauth2.Token, email string) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", nil)
	if err := sm.SignIn(rec, req, tok, email); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SignIn set no cookie")
	}
	return cookies
}

func captureUser(sm *auth.SessionManager) (http.Handler, **auth.SessionUser) {
	var got *auth.SessionUser
	h := sm.LoadSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	return h, &got
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	_, err := auth.NewSessionManager("", "x", "", time.Hour, false, zap.NewNop())
	if err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestNewSessionManager_DefaultName(t *testing.T) {
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	if sm.Name() != auth.DefaultSessionName {
		t.Errorf("got name %q, want %q", sm.Name(), auth.DefaultSessionName)
	}
}

func TestSignIn_LoadSession_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	tok := &oauth2.Token{AccessToken: "tok-123", Expiry: time.Now().Add(time.Hour)}
	cookies := signedInCookies(t, sm, tok, "ada@example.com")

	h, got := captureUser(sm)
	req := httptest.NewRequest("GET", "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)

	if *got == nil {
		t.Fatal("expected a user in context")
	}
	if (*got).Token != "tok-123" {
		t.Errorf("got token %q, want tok-123", (*got).Token)
	}
	if (*got).Email != "ada@example.com" {
		t.Errorf("got email %q, want ada@example.com", (*got).Email)
	}
}

func TestSignIn_EmptyToken(t *testing.T) {
	sm := newTestSessionManager(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", nil)
	if err := sm.SignIn(rec, req, &oauth2.Token{}, "a@b.c"); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestLoadSession_ExpiredToken(t *testing.T) {
	sm := newTestSessionManager(t)
	tok := &oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Minute)}
	cookies := signedInCookies(t, sm, tok, "ada@example.com")

	h, got := captureUser(sm)
	req := httptest.NewRequest("GET", "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)

	if *got != nil {
		t.Errorf("expected no user for expired token, got %+v", *got)
	}
}

func TestLoadSession_UndecodableCookie(t *testing.T) {
	sm := newTestSessionManager(t)

	h, got := captureUser(sm)
	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: sm.Name(), Value: "not-a-valid-cookie"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if *got != nil {
		t.Errorf("expected no user for garbage cookie, got %+v", *got)
	}
}

func TestSignOut_ExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	cookies := signedInCookies(t, sm, &oauth2.Token{AccessToken: "tok"}, "ada@example.com")

	req := httptest.NewRequest("POST", "/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	if err := sm.SignOut(rec, req); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sm.Name() {
			found = true
			if c.MaxAge >= 0 {
				t.Errorf("got MaxAge %d, want negative", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("SignOut did not write the session cookie")
	}
}

func TestRequireSignedIn_NoUser_RedirectsToLogin(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/dashboard?tab=all", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	location := rec.Header().Get("Location")
	if location != "/login?return=%2Fdashboard%3Ftab%3Dall" {
		t.Errorf("got location %q", location)
	}
}

func TestRequireSignedIn_NoUser_API_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/dashboard/state", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireSignedIn_NoUser_HTMX_ReturnsHXRedirect(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if hx := rec.Header().Get("HX-Redirect"); !strings.HasPrefix(hx, "/login") {
		t.Errorf("expected HX-Redirect to /login, got %q", hx)
	}
}

func TestRequireSignedIn_WithUser_PassesThrough(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/dashboard", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{Token: "tok", Email: "ada@example.com"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	user, ok := auth.CurrentUser(req)
	if ok {
		t.Error("expected ok to be false when no user in context")
	}
	if user != nil {
		t.Error("expected user to be nil when no user in context")
	}
}
