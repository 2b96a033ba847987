// Package status serves GET /api/status, a public description of the API.
package status

import (
	"net/http"
	"time"

	"github.com/dalemusser/clinica/internal/app/system/apiresp"
	"go.uber.org/zap"
)

// Endpoints lists the API collections advertised by /api/status.
var Endpoints = map[string]string{
	"auth":      "/api/auth",
	"pacientes": "/api/pacientes",
	"medicos":   "/api/medicos",
	"turnos":    "/api/turnos",
	"status":    "/api/status",
}

type Handler struct {
	Database string
	Started  time.Time
	Log      *zap.Logger

	now func() time.Time
}

func NewHandler(database string, logger *zap.Logger) *Handler {
	return &Handler{
		Database: database,
		Started:  time.Now().UTC(),
		Log:      logger,
		now:      time.Now,
	}
}

type statusResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Database  string            `json:"database"`
	Endpoints map[string]string `json:"endpoints"`
}

// Serve handles GET /api/status.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	apiresp.JSON(w, http.StatusOK, statusResponse{
		Status:    "success",
		Message:   "API funcionando correctamente",
		Timestamp: now.Format(time.RFC3339),
		Uptime:    now.Sub(h.Started).Truncate(time.Second).String(),
		Database:  h.Database,
		Endpoints: Endpoints,
	})
}
