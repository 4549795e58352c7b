// internal/app/features/pages/handler.go
package pages

import (
	"go.uber.org/zap"
)

// Handler serves the placeholder destinations linked from the dashboard nav.
type Handler struct {
	Log *zap.Logger
}

// NewHandler constructs a Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}
