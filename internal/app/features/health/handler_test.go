package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/clinica/internal/app/features/health"
	"github.com/dalemusser/clinica/internal/testutil"
	"go.uber.org/zap"
)

type response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Sessions string `json:"sessions"`
	Message  string `json:"message"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, resp
}

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func TestServe_Healthy(t *testing.T) {
	rec, resp := serve(t, health.NewHandler(health.PingFunc(ok), nil, zap.NewNop()))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if resp.Status != "ok" || resp.Database != "connected" || resp.Sessions != "" {
		t.Errorf("unexpected body %+v", resp)
	}
}

func TestServe_MongoDown(t *testing.T) {
	rec, resp := serve(t, health.NewHandler(health.PingFunc(down), nil, zap.NewNop()))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if resp.Database != "disconnected" || resp.Message != "Database unavailable" {
		t.Errorf("unexpected body %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("driver error leaked into response")
	}
}

func TestServe_RedisDown(t *testing.T) {
	rec, resp := serve(t, health.NewHandler(health.PingFunc(ok), health.PingFunc(down), zap.NewNop()))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if resp.Database != "connected" || resp.Sessions != "disconnected" {
		t.Errorf("unexpected body %+v", resp)
	}
}

func TestServe_RealMongo(t *testing.T) {
	db := testutil.SetupTestDB(t)

	rec, resp := serve(t, health.NewHandler(db.Client(), nil, zap.NewNop()))
	if rec.Code != http.StatusOK || resp.Status != "ok" {
		t.Errorf("got %d %+v", rec.Code, resp)
	}
}
