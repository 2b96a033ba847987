package dashboard

import (
	"context"
	"net/http"

	metricsstore "github.com/dalemusser/clinica/internal/app/store/metrics"
	"github.com/dalemusser/clinica/internal/app/system/timeouts"
	"github.com/dalemusser/clinica/internal/app/system/viewdata"
	"github.com/dalemusser/clinica/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type adminData struct {
	viewdata.BaseVM

	Turnos    []turnoRow
	Pacientes []models.Paciente
	Medicos   []models.Medico
	Metrics   metricsstore.Counts
}

// ServeAdmin renders the clinic-wide dashboard. Data is loaded concurrently;
// if any part fails the page is rendered empty with the error banner.
func (h *Handler) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	data := adminData{
		BaseVM:    viewdata.NewBaseVM(r, "Dashboard - "+viewdata.SiteName, "/"),
		Turnos:    []turnoRow{},
		Pacientes: []models.Paciente{},
		Medicos:   []models.Medico{},
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		turnos    []models.TurnoCompleto
		pacientes []models.Paciente
		medicos   []models.Medico
		counts    metricsstore.Counts
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		turnos, err = h.Turnos.RecentCompleto(gctx, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		pacientes, err = h.Pacientes.Recent(gctx, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		medicos, err = h.Medicos.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		counts, err = h.Counts.DashboardCounts(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		h.Log.Error("dashboard data load failed", zap.Error(err))
		data.Error = DBErrorMessage
	} else {
		data.Turnos = turnoRows(turnos)
		data.Pacientes = pacientes
		data.Medicos = medicos
		data.Metrics = counts
	}

	h.Log.Debug("admin dashboard served", zap.String("user", data.UserName))
	h.Render.Render(w, r, "admin_dashboard", data)
}
