package home

import (
	"net/http"

	"github.com/meeralabs/portal/internal/app/system/navigation"
	"go.uber.org/zap"
)

// Handler serves the site root.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – the portal has no landing page; the dashboard is home               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, navigation.DashboardPath, http.StatusSeeOther)
}
