// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/go-chi/chi/v5"
	_ "github.com/meeralabs/portal/internal/app/features/dashboard/views"
	"github.com/meeralabs/portal/internal/app/system/auth"
)

// Routes wires the dashboard feature under whatever mount point the
// top-level router chooses (e.g., "/dashboard").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeDashboard)
		pr.Get("/state", h.ServeState)
	})

	return r
}
