// internal/app/features/dashboard/state.go
package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/meeralabs/portal/internal/app/system/auth"
	"github.com/meeralabs/portal/internal/app/system/viewstate"
	"go.uber.org/zap"
)

type stateResponse struct {
	viewstate.View
	Error string `json:"error,omitempty"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /dashboard/state – JSON snapshot for polling clients                    |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeState answers with the same view the HTML page would render:
//
//	ready     → 200
//	loading   → 202 (poll again)
//	anonymous → 401 (session cookie cleared)
//	error     → 502
func (h *Handler) ServeState(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, stateResponse{View: viewstate.View{Phase: viewstate.PhaseAnonymous}})
		return
	}

	state, mountID := h.mount(r, u)
	view := viewstate.BuildView(state, h.Location)
	resp := stateResponse{View: view}

	status := http.StatusOK
	switch view.Phase {
	case viewstate.PhaseLoading:
		status = http.StatusAccepted
	case viewstate.PhaseAnonymous:
		h.dropSession(w, r)
		status = http.StatusUnauthorized
	case viewstate.PhaseError:
		h.Log.Warn("dashboard state: identity fetch failed",
			zap.String("mount_id", mountID), zap.Error(state.Identity.Err))
		resp.Error = "identity unavailable"
		status = http.StatusBadGateway
	default:
		if view.FeedError {
			resp.Error = "interactions unavailable"
		}
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
