// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"github.com/meeralabs/portal/internal/app/system/navigation"
	"go.uber.org/zap"
)

// ErrorLogger logs a failure and renders the matching error page in one call,
// so handlers don't have to repeat both halves.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger wraps logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{log: logger}
}

// LogServerError logs at Error and renders a 500 page.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.log.Error(msg, zap.Error(err), zap.String("path", r.URL.Path))
	e.renderOrStatus(w, r, http.StatusInternalServerError, "Something went wrong", userMsg, backURL, "Go back")
}

// LogBadRequest logs at Warn and renders a 400 page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.log.Warn(msg, zap.Error(err), zap.String("path", r.URL.Path))
	e.renderOrStatus(w, r, http.StatusBadRequest, "Bad request", userMsg, backURL, "Go back")
}

// LogBadGateway logs at Warn and renders a 502 page whose back link retries
// the current request.
func (e *ErrorLogger) LogBadGateway(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string, fields ...zap.Field) {
	fields = append(fields, zap.Error(err), zap.String("path", r.URL.Path))
	e.log.Warn(msg, fields...)
	e.renderOrStatus(w, r, http.StatusBadGateway, "Service unavailable", userMsg, r.URL.RequestURI(), "Try again")
}

func (e *ErrorLogger) renderOrStatus(w http.ResponseWriter, r *http.Request, status int, title, userMsg, backURL, backLabel string) {
	if backURL == "" {
		backURL = navigation.DashboardPath
	}
	// HTMX swaps expect a fragment; a bare status keeps the current page intact.
	if r.Header.Get("HX-Request") == "true" {
		http.Error(w, userMsg, status)
		return
	}
	render(w, r, status, title, userMsg, backURL, backLabel)
}
