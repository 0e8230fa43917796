// internal/core/ports/exporter.go
package ports

import (
	"io"

	"phineas/internal/core/domain"
)

// ReportExporter es el port para exportar informes agregados en diferentes formatos.
type ReportExporter interface {
	// Name retorna el nombre del exporter (ej: "json", "csv")
	Name() string

	// Export escribe el informe en w
	Export(w io.Writer, report *domain.AggregatedReport, opts ExportOptions) error
}

// ExportOptions configura las opciones de exportación.
type ExportOptions struct {
	// Kind tipo de hallazgo a exportar (formatos tabulares como CSV)
	Kind domain.Kind

	// Pretty indica si el output debe ser formateado para legibilidad humana
	Pretty bool

	// MinConfidence confianza mínima para incluir hallazgos escalares (0 = todos)
	MinConfidence int
}

// DefaultExportOptions retorna opciones por defecto.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Kind:   domain.KindEmails,
		Pretty: true,
	}
}
