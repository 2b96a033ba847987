package pages

import "time"

// formatFecha renders a turno date as dd/mm/yyyy hh:mm in UTC.
func formatFecha(f *time.Time) string {
	if f == nil || f.IsZero() {
		return "Fecha no disp."
	}
	return f.UTC().Format("02/01/2006 15:04")
}
