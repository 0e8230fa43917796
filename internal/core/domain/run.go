// internal/core/domain/run.go
package domain

import (
	"encoding/json"
	"time"
)

// WorkflowRun es la ejecución de un workflow sobre un target.
// Es dueño de todos los CollectorResult de esa ejecución.
type WorkflowRun struct {
	// ID identificador único de la ejecución
	ID string

	Target   Target
	Workflow string

	StartTime time.Time
	EndTime   time.Time

	// Results en orden de declaración de pasos, independientemente del orden de finalización
	Results []StepResult

	// Summary contadores y highlights calculados al sellar
	Summary RunSummary
}

// StepResult asocia un resultado a su posición en el workflow.
type StepResult struct {
	Index     int
	Collector string
	Result    CollectorResult
}

// RunSummary resume una ejecución.
type RunSummary struct {
	TotalPlugins int            `json:"total_plugins"`
	Successful   int            `json:"successful"`
	Failed       int            `json:"failed"`
	Counts       map[string]int `json:"findings"`
	Highlights   []string       `json:"highlights"`
}

// NewWorkflowRun crea una ejecución abierta.
func NewWorkflowRun(id string, target Target, workflow string) *WorkflowRun {
	return &WorkflowRun{
		ID:        id,
		Target:    target,
		Workflow:  workflow,
		StartTime: time.Now(),
		Results:   []StepResult{},
	}
}

// Seal fija el instante de fin. Llamadas posteriores no tienen efecto.
func (r *WorkflowRun) Seal() {
	if r.EndTime.IsZero() {
		r.EndTime = time.Now()
	}
}

// Sealed indica si la ejecución ya terminó.
func (r *WorkflowRun) Sealed() bool {
	return !r.EndTime.IsZero()
}

// Duration retorna la duración total de la ejecución.
func (r *WorkflowRun) Duration() time.Duration {
	if !r.Sealed() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// Result busca el resultado de un colector por nombre.
func (r *WorkflowRun) Result(collector string) (CollectorResult, bool) {
	for _, sr := range r.Results {
		if sr.Collector == collector {
			return sr.Result, true
		}
	}
	return CollectorResult{}, false
}

// CountByStatus cuenta pasos exitosos y fallidos.
func (r *WorkflowRun) CountByStatus() (successful, failed int) {
	for _, sr := range r.Results {
		if sr.Result.IsSuccess() {
			successful++
		} else {
			failed++
		}
	}
	return successful, failed
}

type workflowRunJSON struct {
	ID              string                     `json:"id,omitempty"`
	Target          string                     `json:"target"`
	TargetKind      TargetKind                 `json:"target_kind,omitempty"`
	Workflow        string                     `json:"workflow"`
	StartTime       time.Time                  `json:"start_time"`
	EndTime         time.Time                  `json:"end_time"`
	DurationSeconds float64                    `json:"duration_seconds"`
	Steps           []string                   `json:"steps,omitempty"`
	Plugins         map[string]CollectorResult `json:"plugins"`
	Summary         RunSummary                 `json:"summary"`
}

// MarshalJSON produce el documento de informe persistido.
// Se incluye "steps" para conservar el orden de declaración.
func (r *WorkflowRun) MarshalJSON() ([]byte, error) {
	doc := workflowRunJSON{
		ID:              r.ID,
		Target:          r.Target.Value,
		TargetKind:      r.Target.Kind,
		Workflow:        r.Workflow,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		DurationSeconds: r.Duration().Seconds(),
		Steps:           make([]string, 0, len(r.Results)),
		Plugins:         make(map[string]CollectorResult, len(r.Results)),
		Summary:         r.Summary,
	}
	for _, sr := range r.Results {
		doc.Steps = append(doc.Steps, sr.Collector)
		doc.Plugins[sr.Collector] = sr.Result
	}
	return json.Marshal(doc)
}

// UnmarshalJSON reconstruye una ejecución desde un informe persistido.
// Sin "steps" los resultados se ordenan por nombre de colector.
func (r *WorkflowRun) UnmarshalJSON(data []byte) error {
	var doc workflowRunJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	kind := doc.TargetKind
	if !kind.IsValid() {
		kind = ClassifyTarget(doc.Target)
	}

	order := doc.Steps
	if len(order) == 0 {
		for name := range doc.Plugins {
			order = append(order, name)
		}
		sortStrings(order)
	}

	*r = WorkflowRun{
		ID:        doc.ID,
		Target:    Target{Value: doc.Target, Kind: kind},
		Workflow:  doc.Workflow,
		StartTime: doc.StartTime,
		EndTime:   doc.EndTime,
		Results:   make([]StepResult, 0, len(order)),
		Summary:   doc.Summary,
	}
	for i, name := range order {
		res, ok := doc.Plugins[name]
		if !ok {
			continue
		}
		if res.Collector == "" {
			res.Collector = name
		}
		r.Results = append(r.Results, StepResult{Index: i, Collector: name, Result: res})
	}
	return nil
}
