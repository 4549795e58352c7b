package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meeralabs/portal/internal/app/features/health"
	"github.com/meeralabs/portal/internal/app/system/backend"
	"github.com/meeralabs/portal/internal/testutil"
	"go.uber.org/zap"
)

type healthBody struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Kind    string `json:"kind"`
	Error   string `json:"error"`
}

func serve(t *testing.T, be backend.Backend) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	handler := health.NewHandler(be, zap.NewNop())
	rec := httptest.NewRecorder()
	handler.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, body
}

func TestServe_BackendConnected(t *testing.T) {
	rec, body := serve(t, testutil.NewFakeBackend())

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	if body.Status != "ok" || body.Backend != "connected" {
		t.Errorf("got %+v, want ok/connected", body)
	}
	if body.Kind != "fake" {
		t.Errorf("kind: got %q, want %q", body.Kind, "fake")
	}
}

func TestServe_BackendDown(t *testing.T) {
	be := testutil.NewFakeBackend()
	be.PingErr = backend.ErrUnavailable

	rec, body := serve(t, be)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if body.Status != "error" || body.Backend != "disconnected" {
		t.Errorf("got %+v, want error/disconnected", body)
	}
	if body.Error == "" {
		t.Error("expected error detail")
	}
}

func TestServe_MongoBackend(t *testing.T) {
	db := testutil.SetupTestDB(t)

	rec, body := serve(t, backend.NewMongo(db, 50))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body.Kind != backend.KindMongo {
		t.Errorf("kind: got %q, want %q", body.Kind, backend.KindMongo)
	}
}
