// internal/core/usecases/executor.go
package usecases

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/logx"
	"phineas/internal/platform/registry"
	"phineas/internal/platform/workerpool"
)

// DefaultStepTimeout es el límite por invocación cuando el paso no define "timeout".
const DefaultStepTimeout = 300 * time.Second

// Executor ejecuta los pasos de un workflow contra un target, aislando los
// fallos de cada colector y recogiendo los resultados en orden de declaración.
type Executor struct {
	resolver       ports.CollectorResolver
	logger         logx.Logger
	observers      []ports.Notifier
	maxConcurrency int
	defaultTimeout time.Duration
	globalConfig   map[string]map[string]any
	credentials    ports.Credentials
	strict         bool
	newID          func() string

	// Control de goroutines de notificación
	notifyWg sync.WaitGroup
}

// ExecutorOptions configura el executor.
type ExecutorOptions struct {
	Resolver  ports.CollectorResolver
	Logger    logx.Logger
	Observers []ports.Notifier

	// MaxConcurrency pasos simultáneos; 1 reproduce la ejecución secuencial
	MaxConcurrency int

	// DefaultTimeout límite por paso si la config no define "timeout"
	DefaultTimeout time.Duration

	// GlobalConfig configuración por colector; la del paso tiene prioridad
	GlobalConfig map[string]map[string]any

	Credentials ports.Credentials

	// Strict convierte cualquier colector desconocido en un workflow inválido
	Strict bool

	// IDGenerator genera el ID de cada ejecución (uuid por defecto)
	IDGenerator func() string
}

// NewExecutor crea un executor.
func NewExecutor(opts ExecutorOptions) *Executor {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultStepTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = uuid.NewString
	}

	return &Executor{
		resolver:       opts.Resolver,
		logger:         opts.Logger.With("component", "executor"),
		observers:      opts.Observers,
		maxConcurrency: opts.MaxConcurrency,
		defaultTimeout: opts.DefaultTimeout,
		globalConfig:   opts.GlobalConfig,
		credentials:    opts.Credentials,
		strict:         opts.Strict,
		newID:          opts.IDGenerator,
	}
}

// Execute ejecuta el workflow y devuelve la ejecución sellada con su resumen.
// Solo un workflow inválido o un target vacío producen error; los fallos de
// colectores quedan registrados en la ejecución.
func (e *Executor) Execute(ctx context.Context, wf domain.Workflow, target domain.Target) (*domain.WorkflowRun, error) {
	return e.ExecuteInto(ctx, wf, target, nil)
}

// ExecuteInto es como Execute pero además vuelca cada resultado en agg, que
// puede compartirse entre ejecuciones o consultarse a mitad de ejecución.
// El resumen de la ejecución se calcula solo con sus propios resultados.
func (e *Executor) ExecuteInto(ctx context.Context, wf domain.Workflow, target domain.Target, agg *FindingAggregator) (*domain.WorkflowRun, error) {
	if target.Value == "" {
		return nil, domain.ErrEmptyTarget
	}
	if e.resolver == nil {
		return nil, fmt.Errorf("%w: no collector resolver configured", domain.ErrInvalidWorkflow)
	}
	if err := wf.Validate(); err != nil {
		return nil, err
	}

	collectors, err := e.resolveSteps(wf)
	if err != nil {
		return nil, err
	}

	run := domain.NewWorkflowRun(e.newID(), target, wf.DisplayName())
	runAgg := NewFindingAggregator()
	total := len(wf.Steps)

	e.logger.Info("starting workflow",
		"run_id", run.ID,
		"target", target.Value,
		"kind", target.Kind,
		"workflow", run.Workflow,
		"steps", total,
		"concurrency", e.maxConcurrency,
	)

	e.notify(ctx, ports.NewEvent(
		ports.EventTypeWorkflowStarted,
		"executor",
		ports.WorkflowStartedEvent{
			RunID:      run.ID,
			Target:     target,
			Workflow:   run.Workflow,
			TotalSteps: total,
		},
	))

	var completed int32
	tasks := make([]workerpool.Task, total)
	stepTasks := make([]*StepTask, total)
	for i, step := range wf.Steps {
		st := NewStepTask(i, step, collectors[i], func(ctx context.Context, st *StepTask) domain.CollectorResult {
			res := e.runStep(ctx, st, target)

			runAgg.AddResult(st.Name(), res)
			if agg != nil {
				agg.AddResult(st.Name(), res)
			}

			e.reportProgress(ctx, st, res, total, int(atomic.AddInt32(&completed, 1)))
			return res
		})
		tasks[i] = st
		stepTasks[i] = st
	}

	pool := workerpool.NewWorkerPool(workerpool.WorkerPoolConfig{
		Workers: e.maxConcurrency,
		Logger:  e.logger,
	})
	outcomes := pool.Run(ctx, tasks)

	run.Results = make([]domain.StepResult, total)
	for i, st := range stepTasks {
		res, ran := st.Result()
		if !ran || outcomes[i].Skipped {
			now := time.Now()
			res = domain.NewFailedResult(st.Name(), target.Value, domain.ErrCollectorCanceled, now, now)
			runAgg.AddResult(st.Name(), res)
			if agg != nil {
				agg.AddResult(st.Name(), res)
			}
		}
		run.Results[i] = domain.StepResult{Index: i, Collector: st.Name(), Result: res}
	}

	run.Seal()
	run.Summary = BuildSummary(run, runAgg.Snapshot())

	e.logger.Info("workflow completed",
		"run_id", run.ID,
		"successful", run.Summary.Successful,
		"failed", run.Summary.Failed,
		"duration_ms", run.Duration().Milliseconds(),
	)

	e.notify(ctx, ports.NewEvent(
		ports.EventTypeWorkflowCompleted,
		"executor",
		ports.WorkflowCompletedEvent{
			RunID:    run.ID,
			Target:   target,
			Summary:  run.Summary,
			Duration: run.Duration(),
		},
	))

	e.notifyWg.Wait()
	return run, nil
}

// resolveSteps resuelve todos los colectores antes de ejecutar ningún paso.
// Un nombre desconocido deja su entrada a nil salvo en modo estricto.
func (e *Executor) resolveSteps(wf domain.Workflow) ([]ports.Collector, error) {
	collectors := make([]ports.Collector, len(wf.Steps))
	resolved := 0

	for i, step := range wf.Steps {
		c, err := e.resolver.Resolve(step.Collector)
		if err != nil {
			if e.strict {
				return nil, fmt.Errorf("%w: step %d: %v", domain.ErrInvalidWorkflow, i, err)
			}
			e.logger.Warn("unknown collector, step will fail", "collector", step.Collector, "error", err.Error())
			continue
		}
		collectors[i] = c
		resolved++
	}

	if resolved == 0 {
		return nil, fmt.Errorf("%w: none of the %d steps resolves to a registered collector", domain.ErrInvalidWorkflow, len(wf.Steps))
	}
	return collectors, nil
}

// runStep ejecuta un paso y siempre devuelve un resultado.
func (e *Executor) runStep(ctx context.Context, st *StepTask, target domain.Target) domain.CollectorResult {
	name := st.Name()
	started := time.Now()
	cfg := domain.MergeConfig(e.globalConfig[name], st.step.Config)

	fail := func(err error) domain.CollectorResult {
		res := domain.NewFailedResult(name, target.Value, err, started, time.Now())
		res.Config = cfg
		return res
	}

	if st.collector == nil {
		return fail(fmt.Errorf("%w: %s", domain.ErrUnknownCollector, name))
	}

	if cc, ok := st.collector.(ports.CredentialedCollector); ok {
		if key := cc.RequiredCredential(); key != "" {
			if _, present := e.credentials.Get(key); !present {
				e.logger.Warn("missing credential", "collector", name, "credential", key)
				return fail(fmt.Errorf("%w: %s", domain.ErrMissingCredential, key))
			}
		}
	}

	timeout := registry.GetDurationConfig(cfg, "timeout", e.defaultTimeout)
	e.logger.Debug("executing collector", "collector", name, "step", st.index, "timeout", timeout.String())

	e.notify(ctx, ports.NewEvent(ports.EventTypeStepStarted, name, st.index))

	findings, err := e.invoke(ctx, st.collector, ports.Request{
		Target:      target,
		Config:      cfg,
		Credentials: e.credentials,
	}, timeout)
	if err != nil {
		e.logger.Warn("collector failed", "collector", name, "error", err.Error())
		return fail(err)
	}

	res := domain.NewSuccessResult(name, target.Value, findings, started, time.Now())
	res.Config = cfg
	e.logger.Debug("collector completed", "collector", name, "kinds", len(findings), "duration_ms", res.Duration().Milliseconds())
	return res
}

type invocation struct {
	findings domain.FindingSet
	err      error
}

// invoke llama al colector bajo un deadline. Si el colector no respeta la
// cancelación, se abandona su goroutine al vencer el deadline.
func (e *Executor) invoke(ctx context.Context, c ports.Collector, req ports.Request, timeout time.Duration) (domain.FindingSet, error) {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan invocation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Debug("collector panic", "collector", c.Name(), "stack", string(debug.Stack()))
				done <- invocation{err: fmt.Errorf("%w: panic: %v", domain.ErrCollectorFault, r)}
			}
		}()
		findings, err := c.Run(stepCtx, req)
		done <- invocation{findings: findings, err: err}
	}()

	select {
	case out := <-done:
		if out.err == nil {
			return out.findings, nil
		}
		return nil, e.classify(ctx, stepCtx, out.err)
	case <-stepCtx.Done():
		return nil, e.classify(ctx, stepCtx, stepCtx.Err())
	}
}

// classify distingue cancelación del workflow, deadline del paso y fallo propio.
func (e *Executor) classify(parent, stepCtx context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		return domain.ErrCollectorCanceled
	case stepCtx.Err() == context.DeadlineExceeded:
		return domain.ErrCollectorTimeout
	}
	return err
}

func (e *Executor) reportProgress(ctx context.Context, st *StepTask, res domain.CollectorResult, total, completed int) {
	ev := ports.NewEvent(ports.EventTypeStepCompleted, st.Name(), ports.ProgressEvent{
		StepIndex:  st.index,
		TotalSteps: total,
		Completed:  completed,
		Collector:  st.Name(),
		Status:     res.Status,
		Error:      res.Error,
		Duration:   res.Duration(),
		Result:     res,
	})
	if !res.IsSuccess() {
		ev.Severity = ports.EventSeverityWarning
	}
	e.notify(ctx, ev)
}

// notify envía una notificación a todos los observers sin bloquear al executor.
// Usa goroutines con WaitGroup y timeout para evitar leaks y bloqueos.
func (e *Executor) notify(ctx context.Context, event ports.Event) {
	const notificationTimeout = 5 * time.Second

	for _, observer := range e.observers {
		e.notifyWg.Add(1)
		go func(notifier ports.Notifier) {
			defer e.notifyWg.Done()

			notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- notifier.Notify(notifyCtx, event)
			}()

			select {
			case err := <-done:
				if err != nil {
					e.logger.Warn("notification failed", "error", err.Error())
				}
			case <-notifyCtx.Done():
				e.logger.Warn("notification timeout exceeded",
					"timeout", notificationTimeout,
					"event_type", event.Type,
				)
			}
		}(observer)
	}
}
