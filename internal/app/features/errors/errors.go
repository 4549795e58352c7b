// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/meeralabs/portal/internal/app/system/auth"
	"github.com/meeralabs/portal/internal/app/system/navigation"
)

// pageData is the view model for error pages.
type pageData struct {
	Title      string
	IsLoggedIn bool
	Email      string
	Message    string
	BackURL    string
	BackLabel  string
	Status     int
}

// Handler is the errors feature handler. It only renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusNotFound, "Page not found",
		"We couldn't find that page.", navigation.DashboardPath, "Back to dashboard")
}

// Unauthorized renders a friendly "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusUnauthorized, "Sign in required",
		"Please sign in to continue.", navigation.LoginPath, "Sign in")
}

func render(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL, backLabel string) {
	u, signed := auth.CurrentUser(r)
	email := ""
	if signed && u != nil {
		email = u.Email
	}
	data := pageData{
		Title:      title,
		IsLoggedIn: signed,
		Email:      email,
		Message:    msg,
		BackURL:    backURL,
		BackLabel:  backLabel,
		Status:     status,
	}
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}
