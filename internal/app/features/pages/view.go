// internal/app/features/pages/view.go
package pages

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/meeralabs/portal/internal/app/system/auth"
	"github.com/meeralabs/portal/internal/app/system/htmlsanitize"
	"github.com/meeralabs/portal/internal/app/system/navigation"
)

type pageViewVM struct {
	Title   string
	Heading string
	Blurb   string
	Nav     []navigation.Link
	Email   string
	Initial string
}

// ServePage renders a placeholder page at path with the shared nav.
func (h *Handler) ServePage(path, title, blurb string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vm := pageViewVM{
			Title:   title,
			Heading: title,
			Blurb:   blurb,
			Nav:     navigation.Primary(path),
		}
		if u, ok := auth.CurrentUser(r); ok {
			vm.Email = u.Email
			vm.Initial = htmlsanitize.Initial(u.Email)
		}
		templates.Render(w, r, "page_view", vm)
	}
}

// ServePerception displays the Perception page.
func (h *Handler) ServePerception(w http.ResponseWriter, r *http.Request) {
	h.ServePage(navigation.PerceptionPath, "Perception",
		"Start a conversation with Meera. Your interactions will show up on the dashboard.")(w, r)
}

// ServeLogs displays the system logs page.
func (h *Handler) ServeLogs(w http.ResponseWriter, r *http.Request) {
	h.ServePage(navigation.LogsPath, "System Logs", "System logs will appear here.")(w, r)
}

// ServeMonitor displays the monitor page.
func (h *Handler) ServeMonitor(w http.ResponseWriter, r *http.Request) {
	h.ServePage(navigation.MonitorPath, "Monitor", "Live monitoring will appear here.")(w, r)
}
