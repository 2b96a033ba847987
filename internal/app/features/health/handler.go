package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/clinica/internal/app/system/apiresp"
	"github.com/dalemusser/clinica/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is satisfied by *mongo.Client and by the Redis adapter.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// PingFunc adapts a plain ping function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context, _ *readpref.ReadPref) error { return f(ctx) }

// Handler holds dependencies needed for health checks.
type Handler struct {
	Mongo Pinger
	// Redis is checked only when the redis session backend is in use.
	Redis Pinger
	Log   *zap.Logger
}

// NewHandler constructs a health Handler. redis may be nil.
func NewHandler(mongo, redis Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		Mongo: mongo,
		Redis: redis,
		Log:   logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Sessions string `json:"sessions,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected" }
//
// On failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable" }
//
// Driver errors are logged, not returned.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}
	status := http.StatusOK

	if err := h.Mongo.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		status = http.StatusServiceUnavailable
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
	}

	if h.Redis != nil {
		resp.Sessions = "connected"
		if err := h.Redis.Ping(ctx, nil); err != nil {
			h.Log.Error("health-check: redis ping failed", zap.Error(err))
			status = http.StatusServiceUnavailable
			resp.Status = "error"
			resp.Sessions = "disconnected"
			if resp.Message == "" {
				resp.Message = "Session store unavailable"
			}
		}
	}

	apiresp.JSON(w, status, resp)
}
