// internal/core/usecases/step_task.go
package usecases

import (
	"context"

	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
)

// StepTask adapta un paso de workflow a workerpool.Task.
type StepTask struct {
	index     int
	step      domain.Step
	collector ports.Collector // nil si el nombre no se resolvió
	run       func(ctx context.Context, st *StepTask) domain.CollectorResult

	// Result storage
	result domain.CollectorResult
	ran    bool
}

// NewStepTask crea una nueva StepTask.
func NewStepTask(index int, step domain.Step, collector ports.Collector, run func(context.Context, *StepTask) domain.CollectorResult) *StepTask {
	return &StepTask{
		index:     index,
		step:      step,
		collector: collector,
		run:       run,
	}
}

// Execute ejecuta el paso. El fallo del colector queda en el resultado, nunca
// como error de la tarea.
func (st *StepTask) Execute(ctx context.Context) error {
	st.result = st.run(ctx, st)
	st.ran = true
	return nil
}

// Name retorna el nombre del colector del paso.
func (st *StepTask) Name() string {
	return st.step.Collector
}

// Index retorna la posición del paso en el workflow.
func (st *StepTask) Index() int {
	return st.index
}

// Result retorna el resultado y si el paso llegó a ejecutarse.
func (st *StepTask) Result() (domain.CollectorResult, bool) {
	return st.result, st.ran
}
