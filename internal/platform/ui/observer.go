// internal/platform/ui/observer.go
package ui

import (
	"context"

	"phineas/internal/core/ports"
)

// ProgressObserver traduce los eventos del executor a llamadas al Presenter.
// El executor notifica de forma asíncrona; el Presenter serializa la salida.
type ProgressObserver struct {
	presenter Presenter
	info      RunInfo
}

var _ ports.Notifier = (*ProgressObserver)(nil)

// NewProgressObserver crea un observer. base aporta los datos que el evento
// de inicio no trae (pasos, concurrencia, timeout, streaming).
func NewProgressObserver(presenter Presenter, base RunInfo) *ProgressObserver {
	if presenter == nil {
		presenter = NewNoopPresenter()
	}
	return &ProgressObserver{presenter: presenter, info: base}
}

// Notify implementa ports.Notifier.
func (o *ProgressObserver) Notify(_ context.Context, event ports.Event) error {
	switch event.Type {
	case ports.EventTypeWorkflowStarted:
		data, ok := event.Data.(ports.WorkflowStartedEvent)
		if !ok {
			return nil
		}
		info := o.info
		info.RunID = data.RunID
		info.Target = data.Target.Value
		info.TargetKind = string(data.Target.Kind)
		info.Workflow = data.Workflow
		o.presenter.Start(info)

	case ports.EventTypeStepStarted:
		index, _ := event.Data.(int)
		o.presenter.StartStep(index, event.Source)

	case ports.EventTypeStepCompleted:
		data, ok := event.Data.(ports.ProgressEvent)
		if !ok {
			return nil
		}
		o.presenter.FinishStep(StepInfo{
			Index:     data.StepIndex,
			Collector: data.Collector,
			Status:    StatusFromResult(data.Result),
			Duration:  data.Duration,
			Findings:  data.Result.Findings.Count(),
			Error:     data.Error,
			Completed: data.Completed,
			Total:     data.TotalSteps,
		})
	}
	return nil
}

// Close cierra el presenter subyacente.
func (o *ProgressObserver) Close() error {
	return o.presenter.Close()
}
