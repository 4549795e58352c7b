package health

import (
	"encoding/json"
	"net/http"

	"github.com/meeralabs/portal/internal/app/system/backend"
	"github.com/meeralabs/portal/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Backend backend.Backend
	Log     *zap.Logger
}

// NewHandler constructs a health Handler with the backend and logger.
func NewHandler(be backend.Backend, logger *zap.Logger) *Handler {
	return &Handler{
		Backend: be,
		Log:     logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "backend":"connected", "kind":"mongo" }
//
// On backend failure: 503 and
//
//	{ "status":"error", "backend":"disconnected", "message":"Backend unavailable", "error":"…" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Ping(), h.Log, "health ping")
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:  "ok",
		Backend: "connected",
		Kind:    h.Backend.Name(),
	}

	if err := h.Backend.Ping(ctx); err != nil {
		h.Log.Error("health-check: backend ping failed", zap.String("kind", resp.Kind), zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Backend = "disconnected"
		resp.Message = "Backend unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	_ = json.NewEncoder(w).Encode(resp)
}
