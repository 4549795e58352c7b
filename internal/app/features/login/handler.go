// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/meeralabs/portal/internal/app/features/errors"
	"github.com/meeralabs/portal/internal/app/system/auth"
	"github.com/meeralabs/portal/internal/app/system/backend"
	"github.com/meeralabs/portal/internal/app/system/metrics"
	"github.com/meeralabs/portal/internal/app/system/navigation"
	"github.com/meeralabs/portal/internal/app/system/ratelimit"
	"github.com/meeralabs/portal/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Backend    backend.Backend
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Metrics    *metrics.Metrics
	Log        *zap.Logger

	// Limiter throttles POST /login; nil disables throttling.
	Limiter *ratelimit.LoginLimiter
}

func NewHandler(be backend.Backend, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Backend:    be,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Metrics:    m,
		Log:        logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	Title      string
	Error      string
	Notice     string
	NoticeKind string // "info" or "warn"
	Email      string
	ReturnURL  string
}

// notices maps the ?notice= values set by sign-out to display text.
var notices = map[string]struct{ text, kind string }{
	navigation.NoticeSignedOut:     {"You have been signed out.", "info"},
	navigation.NoticeSignOutFailed: {"We couldn't confirm your sign-out with the server. Your browser session has been cleared.", "warn"},
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	data := loginFormData{
		Title:     "Sign in",
		ReturnURL: navigation.SafeReturnURL(r, ""),
	}
	if n, ok := notices[query.Get(r, "notice")]; ok {
		data.Notice, data.NoticeKind = n.text, n.kind
	}
	templates.Render(w, r, "login", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", navigation.LoginPath)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	ret := navigation.SafeReturnURL(r, "")

	if email == "" || password == "" {
		h.renderFormWithError(w, r, http.StatusBadRequest, "Please enter your email and password.", email, ret)
		return
	}

	ip := clientIP(r)
	if h.Limiter != nil {
		if d := h.Limiter.Check(ip, email); !d.Allowed {
			h.Metrics.CountSignIn(metrics.OutcomeLimited)
			h.Log.Warn("login throttled", zap.String("email", email), zap.String("ip", ip))
			w.Header().Set("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds()+0.999)))
			h.renderFormWithError(w, r, http.StatusTooManyRequests, d.Reason, email, ret)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()
	ctx = backend.WithClientInfo(ctx, backend.ClientInfo{IP: ip, UserAgent: r.UserAgent()})

	tok, err := h.Backend.SignIn(ctx, email, password)
	switch {
	case err == nil:
	case errors.Is(err, backend.ErrInvalidCredentials):
		h.Metrics.CountSignIn(metrics.OutcomeRejected)
		h.Log.Info("login rejected", zap.String("email", email))
		h.renderFormWithError(w, r, http.StatusUnauthorized, "Incorrect email or password.", email, ret)
		return
	case errors.Is(err, backend.ErrUnavailable):
		h.Metrics.CountSignIn(metrics.OutcomeFailed)
		h.Log.Warn("login: backend unavailable", zap.Error(err))
		h.renderFormWithError(w, r, http.StatusServiceUnavailable, "The sign-in service is unavailable. Please try again shortly.", email, ret)
		return
	default:
		h.Metrics.CountSignIn(metrics.OutcomeFailed)
		h.ErrLog.LogServerError(w, r, "backend sign-in failed", err, "A server error occurred.", navigation.LoginPath)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, tok, email); err != nil {
		h.Metrics.CountSignIn(metrics.OutcomeFailed)
		h.ErrLog.LogServerError(w, r, "session save failed", err, "Unable to sign you in.", navigation.LoginPath)
		return
	}
	if h.Limiter != nil {
		h.Limiter.Succeeded(email)
	}
	h.Metrics.CountSignIn(metrics.OutcomeOK)
	h.Log.Info("user signed in", zap.String("email", email), zap.String("backend", h.Backend.Name()))

	dest := ret
	if dest == "" {
		dest = navigation.DashboardPath
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, status int, msg, email, ret string) {
	w.WriteHeader(status)
	templates.Render(w, r, "login", loginFormData{
		Title:     "Sign in",
		Error:     msg,
		Email:     email,
		ReturnURL: ret,
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
