// internal/platform/workerpool/worker_pool.go
package workerpool

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"phineas/internal/platform/logx"
)

// Task representa una tarea a ejecutar en el worker pool.
type Task interface {
	// Execute ejecuta la tarea
	Execute(ctx context.Context) error

	// Name retorna el nombre de la tarea
	Name() string
}

// TaskFunc adapta una función a Task.
type TaskFunc struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

// Execute ejecuta la función.
func (t TaskFunc) Execute(ctx context.Context) error { return t.Fn(ctx) }

// Name retorna el nombre de la tarea.
func (t TaskFunc) Name() string { return t.TaskName }

// TaskResult representa el resultado de una tarea.
type TaskResult struct {
	// Index posición de la tarea en la lista enviada
	Index    int
	Task     Task
	Error    error
	Duration time.Duration

	// Skipped indica que la tarea no llegó a ejecutarse (contexto cancelado)
	Skipped bool
}

// WorkerPool ejecuta tareas independientes con un límite de concurrencia.
// Los resultados se devuelven en el orden de envío, no en el de finalización.
type WorkerPool struct {
	workers int
	logger  logx.Logger
}

// WorkerPoolConfig configura el worker pool.
type WorkerPoolConfig struct {
	Workers int
	Logger  logx.Logger
}

// NewWorkerPool crea un nuevo worker pool.
func NewWorkerPool(cfg WorkerPoolConfig) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logx.New()
	}

	return &WorkerPool{
		workers: cfg.Workers,
		logger:  cfg.Logger.With("component", "worker-pool"),
	}
}

// Workers retorna el límite de concurrencia.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Run ejecuta todas las tareas y espera a que terminen.
// Un error de tarea no cancela a las demás; las tareas que no arrancaron antes
// de cancelarse ctx se marcan Skipped con ctx.Err().
func (wp *WorkerPool) Run(ctx context.Context, tasks []Task) []TaskResult {
	results := make([]TaskResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	wp.logger.Debug("submitting tasks", "total", len(tasks), "workers", wp.workers)

	var g errgroup.Group
	g.SetLimit(wp.workers)

	for i, task := range tasks {
		i, task := i, task
		results[i] = TaskResult{Index: i, Task: task}

		if err := ctx.Err(); err != nil {
			results[i].Error = err
			results[i].Skipped = true
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Error = err
				results[i].Skipped = true
				return nil
			}

			start := time.Now()
			err := task.Execute(ctx)
			results[i].Error = err
			results[i].Duration = time.Since(start)

			wp.logger.Debug("task completed",
				"task", task.Name(),
				"index", i,
				"duration_ms", results[i].Duration.Milliseconds(),
				"error", err != nil,
			)
			return nil
		})
	}

	_ = g.Wait() // errores capturados en TaskResult.Error
	return results
}
