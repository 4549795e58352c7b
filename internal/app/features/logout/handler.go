// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/meeralabs/portal/internal/app/system/auth"
	"github.com/meeralabs/portal/internal/app/system/backend"
	"github.com/meeralabs/portal/internal/app/system/metrics"
	"github.com/meeralabs/portal/internal/app/system/navigation"
	"github.com/meeralabs/portal/internal/app/system/timeouts"
	"github.com/meeralabs/portal/internal/app/system/viewstate"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	Backend    backend.Backend
	SessionMgr *auth.SessionManager
	Metrics    *metrics.Metrics
}

func NewHandler(be backend.Backend, sessionMgr *auth.SessionManager, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		Backend:    be,
		SessionMgr: sessionMgr,
		Metrics:    m,
	}
}

// ServeLogout handles POST /logout.
//
// The remote session is terminated first and the outcome decides the login
// notice. The cookie is cleared and the browser navigates to login either way.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	dest := navigation.LoginURL(navigation.NoticeSignedOut)

	if u, ok := auth.CurrentUser(r); ok {
		ctrl := viewstate.New(h.Backend.Client(u.Token), viewstate.Options{
			Log:     h.Log,
			Metrics: h.Metrics,
		})
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "logout")
		out := ctrl.SignOut(ctx)
		cancel()
		dest = out.Location
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: clear session", zap.Error(err))
	}

	// HTMX handling: HX-Redirect forces a full navigation.
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, dest, http.StatusSeeOther)
}
