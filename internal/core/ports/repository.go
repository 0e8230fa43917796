// internal/core/ports/repository.go
package ports

import (
	"context"
	"time"

	"phineas/internal/core/domain"
)

// RunRepository es el port para persistencia del historial de ejecuciones.
type RunRepository interface {
	// SaveRun guarda una ejecución sellada (upsert por ID)
	SaveRun(ctx context.Context, run *domain.WorkflowRun) error

	// GetRun recupera una ejecución por su ID (domain.ErrRunNotFound si no existe)
	GetRun(ctx context.Context, id string) (*domain.WorkflowRun, error)

	// ListRuns lista resúmenes de ejecuciones aplicando filtros opcionales
	ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error)

	// DeleteRun elimina una ejecución por su ID
	DeleteRun(ctx context.Context, id string) error

	// Close cierra la conexión con el repositorio
	Close() error
}

// RunRecord es la fila resumida de una ejecución en el historial.
type RunRecord struct {
	ID         string
	Target     string
	TargetKind domain.TargetKind
	Workflow   string
	StartTime  time.Time
	EndTime    time.Time
	Successful int
	Failed     int
	Findings   int
}

// RunFilter define filtros para búsqueda de ejecuciones.
type RunFilter struct {
	// Target filtrar por target exacto
	Target string

	// Workflow filtrar por nombre de workflow
	Workflow string

	// Since fecha mínima de inicio
	Since time.Time

	// Limit límite de resultados
	Limit int
}

// DefaultRunFilter retorna un filtro por defecto.
func DefaultRunFilter() RunFilter {
	return RunFilter{Limit: 50}
}
