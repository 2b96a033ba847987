package dashboard

import (
	"github.com/dalemusser/clinica/internal/domain/models"
)

// recentLimit is how many turnos and pacientes the admin dashboard shows.
const recentLimit = 6

const fechaNoDisponible = "Fecha no disp."

// turnoRow is a turno as shown in dashboard tables.
type turnoRow struct {
	models.TurnoCompleto
	FechaFormateada string
}

// formatFecha renders f as dd/mm/yyyy in UTC.
func formatFecha(t models.Turno) string {
	if t.Fecha == nil || t.Fecha.IsZero() {
		return fechaNoDisponible
	}
	return t.Fecha.UTC().Format("02/01/2006")
}

func turnoRows(in []models.TurnoCompleto) []turnoRow {
	out := make([]turnoRow, 0, len(in))
	for _, t := range in {
		out = append(out, turnoRow{TurnoCompleto: t, FechaFormateada: formatFecha(t.Turno)})
	}
	return out
}
