// internal/core/domain/result.go
package domain

import (
	"encoding/json"
	"time"
)

// CollectorResult es el resultado inmutable de una invocación de colector.
type CollectorResult struct {
	// Collector nombre del colector que produjo el resultado
	Collector string

	// Target identificador investigado
	Target string

	// Status success o failed
	Status ResultStatus

	// Findings hallazgos crudos (vacío en resultados fallidos)
	Findings FindingSet

	// Error mensaje de fallo; "timeout" para invocaciones que vencieron
	Error string

	// ErrorKind clasificación del fallo
	ErrorKind ErrorKind

	// Config configuración efectiva (global + paso) usada en la invocación
	Config map[string]any

	StartedAt time.Time
	EndedAt   time.Time
}

// NewSuccessResult crea un resultado exitoso.
func NewSuccessResult(collector, target string, findings FindingSet, started, ended time.Time) CollectorResult {
	if findings == nil {
		findings = FindingSet{}
	}
	return CollectorResult{
		Collector: collector,
		Target:    target,
		Status:    StatusSuccess,
		Findings:  findings,
		StartedAt: started,
		EndedAt:   ended,
	}
}

// NewFailedResult crea un resultado fallido a partir de un error.
// Los timeouts se registran con el mensaje literal "timeout".
func NewFailedResult(collector, target string, err error, started, ended time.Time) CollectorResult {
	kind := ClassifyError(err)
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if kind == ErrorKindTimeout {
		msg = ErrCollectorTimeout.Error()
	}
	return CollectorResult{
		Collector: collector,
		Target:    target,
		Status:    StatusFailed,
		Findings:  FindingSet{},
		Error:     msg,
		ErrorKind: kind,
		StartedAt: started,
		EndedAt:   ended,
	}
}

// IsSuccess indica si la invocación terminó correctamente.
func (r CollectorResult) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// Duration retorna la duración de la invocación.
func (r CollectorResult) Duration() time.Duration {
	if r.EndedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

type collectorResultJSON struct {
	Status          ResultStatus   `json:"status"`
	Plugin          string         `json:"plugin"`
	Target          string         `json:"target,omitempty"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	DurationSeconds float64        `json:"duration_seconds"`
	Findings        FindingSet     `json:"findings"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Error           string         `json:"error,omitempty"`
	ErrorKind       ErrorKind      `json:"error_kind,omitempty"`
}

// MarshalJSON serializa el resultado con el formato del informe persistido.
func (r CollectorResult) MarshalJSON() ([]byte, error) {
	findings := r.Findings
	if findings == nil {
		findings = FindingSet{}
	}
	return json.Marshal(collectorResultJSON{
		Status:          r.Status,
		Plugin:          r.Collector,
		Target:          r.Target,
		StartTime:       r.StartedAt,
		EndTime:         r.EndedAt,
		DurationSeconds: r.Duration().Seconds(),
		Findings:        findings,
		Metadata:        r.Config,
		Error:           r.Error,
		ErrorKind:       r.ErrorKind,
	})
}

// UnmarshalJSON lee un resultado desde un informe persistido.
func (r *CollectorResult) UnmarshalJSON(data []byte) error {
	var raw collectorResultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = CollectorResult{
		Collector: raw.Plugin,
		Target:    raw.Target,
		Status:    raw.Status,
		Findings:  raw.Findings,
		Error:     raw.Error,
		ErrorKind: raw.ErrorKind,
		Config:    raw.Metadata,
		StartedAt: raw.StartTime,
		EndedAt:   raw.EndTime,
	}
	return nil
}
