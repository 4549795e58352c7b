// internal/app/features/pages/routes.go
package pages

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	_ "github.com/meeralabs/portal/internal/app/features/pages/views"
	"github.com/meeralabs/portal/internal/app/system/auth"
)

// Each page gets its own router; mount them at their nav paths.

func (h *Handler) PerceptionRouter(sm *auth.SessionManager) chi.Router {
	return h.router(sm, h.ServePerception)
}

func (h *Handler) LogsRouter(sm *auth.SessionManager) chi.Router {
	return h.router(sm, h.ServeLogs)
}

func (h *Handler) MonitorRouter(sm *auth.SessionManager) chi.Router {
	return h.router(sm, h.ServeMonitor)
}

func (h *Handler) router(sm *auth.SessionManager, fn func(w http.ResponseWriter, r *http.Request)) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", fn)
	})
	return r
}
