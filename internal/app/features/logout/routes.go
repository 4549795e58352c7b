// internal/app/features/logout/routes.go
package logout

import (
	"github.com/go-chi/chi/v5"
	"github.com/meeralabs/portal/internal/app/system/auth"
)

// Routes mounts sign-out. POST only: a GET must not end a session.
// Anonymous callers still get their cookie cleared and land on login.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeLogout)
	return r
}
