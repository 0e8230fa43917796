// internal/core/ports/notifier.go
package ports

import (
	"context"
	"time"

	"phineas/internal/core/domain"
)

// Notifier es el port para notificaciones de eventos del sistema.
// Implementa el patrón Observer para desacoplar la ejecución de workflows
// de su presentación (barra de progreso, logs, etc.).
type Notifier interface {
	// Notify envía una notificación para un evento
	Notify(ctx context.Context, event Event) error

	// Close cierra el notifier y libera recursos
	Close() error
}

// Event representa un evento del sistema.
type Event struct {
	// Type tipo de evento
	Type EventType

	// Timestamp momento del evento
	Timestamp time.Time

	// Source componente o colector que generó el evento
	Source string

	// Target objetivo relacionado (opcional)
	Target string

	// Data datos específicos del evento
	Data interface{}

	// Severity severidad del evento
	Severity EventSeverity
}

// EventType define los tipos de eventos del sistema.
type EventType string

const (
	// Workflow events
	EventTypeWorkflowStarted   EventType = "workflow.started"
	EventTypeWorkflowCompleted EventType = "workflow.completed"

	// Step events
	EventTypeStepStarted   EventType = "step.started"
	EventTypeStepCompleted EventType = "step.completed"
)

// EventSeverity define la severidad de un evento.
type EventSeverity string

const (
	EventSeverityInfo    EventSeverity = "info"
	EventSeverityWarning EventSeverity = "warning"
	EventSeverityError   EventSeverity = "error"
)

// NewEvent crea un nuevo evento.
func NewEvent(eventType EventType, source string, data interface{}) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
		Severity:  EventSeverityInfo,
	}
}

// WorkflowStartedEvent datos para el inicio de una ejecución.
type WorkflowStartedEvent struct {
	RunID      string
	Target     domain.Target
	Workflow   string
	TotalSteps int
}

// ProgressEvent se emite cuando un paso termina (con éxito o no).
// StepIndex es la posición de declaración; Completed cuenta pasos terminados.
type ProgressEvent struct {
	StepIndex  int
	TotalSteps int
	Completed  int
	Collector  string
	Status     domain.ResultStatus
	Error      string
	Duration   time.Duration

	// Result resultado completo del paso (solo lectura para los observers)
	Result domain.CollectorResult
}

// WorkflowCompletedEvent datos para el fin de una ejecución.
type WorkflowCompletedEvent struct {
	RunID    string
	Target   domain.Target
	Summary  domain.RunSummary
	Duration time.Duration
}
