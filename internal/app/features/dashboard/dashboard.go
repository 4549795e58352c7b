// internal/app/features/dashboard/dashboard.go
package dashboard

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/meeralabs/portal/internal/app/system/auth"
	"github.com/meeralabs/portal/internal/app/system/viewstate"
	"go.uber.org/zap"
)

type pageData struct {
	Title string
	viewstate.View

	// RefreshSeconds is the poll interval of the loading placeholder, sent
	// as a Refresh header and shown on the page.
	RefreshSeconds int
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /dashboard                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		auth.RedirectToLogin(w, r)
		return
	}

	state, mountID := h.mount(r, u)
	view := viewstate.BuildView(state, h.Location)

	switch view.Phase {
	case viewstate.PhaseAnonymous:
		h.Log.Info("session no longer recognized; redirecting to login", zap.String("mount_id", mountID))
		h.dropSession(w, r)
		auth.RedirectToLogin(w, r)

	case viewstate.PhaseError:
		h.ErrLog.LogBadGateway(w, r, "dashboard identity fetch failed", state.Identity.Err,
			"We couldn't reach the portal service. Please try again.",
			zap.String("mount_id", mountID))

	case viewstate.PhaseLoading:
		secs := h.refreshSeconds()
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Refresh", strconv.Itoa(secs))
		templates.Render(w, r, "dashboard_loading", pageData{
			Title:          "Dashboard",
			View:           view,
			RefreshSeconds: secs,
		})

	default:
		if view.FeedError {
			h.Log.Warn("dashboard rendered without interactions",
				zap.String("mount_id", mountID), zap.Error(state.Feed.Err))
		}
		templates.Render(w, r, "dashboard", pageData{Title: "Dashboard", View: view})
	}
}

func (h *Handler) refreshSeconds() int {
	s := int(math.Ceil(h.Waits.Identity.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
