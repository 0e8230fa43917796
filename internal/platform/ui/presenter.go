// internal/platform/ui/presenter.go
package ui

import (
	"time"
)

// UIMode define el modo de visualización
type UIMode string

const (
	UIModePretty UIMode = "pretty" // Cabecera, líneas por paso y resumen (default)
	UIModeQuiet  UIMode = "quiet"  // Sin UI visual
)

// Presenter define la interfaz para presentar el progreso de la ejecución
// de un workflow de manera visual.
type Presenter interface {
	// Start inicia la presentación con información de la ejecución
	Start(info RunInfo)

	// StartStep notifica el inicio de un paso
	StartStep(index int, collector string)

	// FinishStep notifica la finalización de un paso
	FinishStep(step StepInfo)

	// Info muestra un mensaje informativo
	Info(msg string)

	// Warning muestra una advertencia
	Warning(msg string)

	// Error muestra un error
	Error(msg string)

	// Finish finaliza la presentación con estadísticas finales
	Finish(stats RunStats)

	// Close limpia recursos del presenter
	Close() error
}

// NewPresenter crea el presenter correspondiente al modo.
func NewPresenter(mode UIMode) Presenter {
	if mode == UIModeQuiet {
		return NewNoopPresenter()
	}
	return NewPTermPresenter()
}

// RunInfo contiene información inicial de la ejecución
type RunInfo struct {
	RunID          string
	Target         string
	TargetKind     string
	Workflow       string
	Steps          []string
	Concurrency    int
	TimeoutSeconds int
	StreamingOn    bool
}

// StepInfo describe un paso terminado
type StepInfo struct {
	Index     int
	Collector string
	Status    Status
	Duration  time.Duration
	Findings  int
	Error     string
	Completed int
	Total     int
}

// RunStats contiene estadísticas finales de la ejecución
type RunStats struct {
	TotalDuration  time.Duration
	Successful     int
	Failed         int
	FindingsByKind map[string]int
	Highlights     []string
	ReportPath     string
}

// StepProgress representa el progreso de un paso
type StepProgress struct {
	Index     int
	Collector string
	Status    Status
	Findings  int
	Duration  time.Duration
	StartTime time.Time
}
