package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/meeralabs/portal/internal/app/system/navigation"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	DefaultSessionName = "portal-session"

	accessTokenKey = "access_token"
	expiryKey      = "token_expiry"
	emailKey       = "email"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what the cookie carries. The token is opaque to the portal;
// the backend decides whether it still identifies anyone.
type SessionUser struct {
	Token  string
	Email  string
	Expiry time.Time
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the session user and a "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects u into the request context as LoadSession would.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager owns the cookie store and the middlewares built on it.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	logger *zap.Logger
}

// NewSessionManager builds the cookie store. In production (secure=true)
// cookies are Secure + SameSite=None; over plain http in dev use secure=false.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	store.MaxAge(opts.MaxAge)

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("max_age", maxAge))

	return &SessionManager{store: store, name: name, logger: logger}, nil
}

// Name is the cookie name.
func (sm *SessionManager) Name() string { return sm.name }

// GetSession returns the request's session. A cookie that no longer decodes
// (rotated key, tampering, expiry) yields a fresh empty session, not an error.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	sess, err := sm.store.Get(r, sm.name)
	if err == nil {
		return sess, nil
	}
	if isDecodeError(err) {
		sm.logger.Debug("discarding undecodable session cookie", zap.Error(err))
		return sess, nil
	}
	return sess, err
}

// SignIn stores tok in the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, tok *oauth2.Token, email string) error {
	if tok == nil || tok.AccessToken == "" {
		return errors.New("auth: empty access token")
	}
	sess, err := sm.GetSession(r)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	sess.Values[accessTokenKey] = tok.AccessToken
	sess.Values[emailKey] = email
	if !tok.Expiry.IsZero() {
		sess.Values[expiryKey] = tok.Expiry.Unix()
	} else {
		delete(sess.Values, expiryKey)
	}
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SignOut expires the cookie. It does not talk to the backend.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.GetSession(r)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession injects the session user into the context when the cookie
// carries an unexpired token.
func (sm *SessionManager) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.GetSession(r)
		if err != nil {
			sm.logger.Error("session load failed", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		tok := getString(sess, accessTokenKey)
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}

		u := &SessionUser{Token: tok, Email: getString(sess, emailKey)}
		if exp, ok := sess.Values[expiryKey].(int64); ok {
			u.Expiry = time.Unix(exp, 0)
			if time.Now().After(u.Expiry) {
				next.ServeHTTP(w, r)
				return
			}
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSession).
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		RedirectToLogin(w, r)
	})
}

// RedirectToLogin sends the caller to the login page, preserving the current
// URI as the return target.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	dest := navigation.LoginPath + "?return=" + url.QueryEscape(currentURI(r))

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func isDecodeError(err error) bool {
	var multi securecookie.MultiError
	if errors.As(err, &multi) {
		return multi.IsDecode()
	}
	var scErr securecookie.Error
	if errors.As(err, &scErr) {
		return scErr.IsDecode()
	}
	return false
}

func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func currentURI(r *http.Request) string {
	u := *r.URL
	return u.RequestURI()
}
