// cmd/phineas/app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"phineas/internal/adapters/storage/sqlite"
	"phineas/internal/core/domain"
	"phineas/internal/platform/config"
	"phineas/internal/platform/logx"
	"phineas/internal/platform/registry"
	"phineas/internal/platform/resilience"
)

// app agrupa la configuración cargada y el logger compartido de un comando.
type app struct {
	cfg    config.Config
	logger logx.Logger
}

// newApp carga la configuración (fichero -> ENV -> flags del comando).
func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger := logx.NewWithLevel(logx.ParseLevel(cfg.LogLevel))
	registry.Global().SetLogger(logger)

	return &app{cfg: cfg, logger: logger}, nil
}

// resolver envuelve el registro global con reintentos y circuit breaker.
func (a *app) resolver() *resilience.Resolver {
	policy := resilience.DefaultPolicy()
	policy.MaxRetries = a.cfg.MaxRetries
	if !a.cfg.RetryFailed {
		policy.MaxRetries = 0
	}
	policy.BackoffBase = a.cfg.BackoffBase()
	policy.BackoffMultiplier = a.cfg.Resilience.BackoffMultiplier
	policy.CircuitBreaker = a.cfg.Resilience.CircuitBreakerEnabled
	policy.CircuitBreakerThreshold = a.cfg.Resilience.CircuitBreakerThreshold
	policy.CircuitBreakerTimeout = a.cfg.CircuitBreakerTimeout()
	policy.CircuitBreakerHalfOpen = a.cfg.Resilience.CircuitBreakerHalfOpen

	return resilience.NewResolver(registry.Global(), policy, a.logger)
}

// history abre el historial configurado; nil si está desactivado.
func (a *app) history() (*sqlite.Store, error) {
	path := a.cfg.HistoryDB
	if path == "" {
		return nil, nil
	}
	// un directorio aloja la base de datos con su nombre por defecto
	if info, err := os.Stat(path); (err == nil && info.IsDir()) || strings.HasSuffix(path, string(os.PathSeparator)) {
		return sqlite.NewStore(path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	return sqlite.Open(path)
}

// requireHistory abre el historial o falla si no hay base de datos configurada.
func (a *app) requireHistory() (*sqlite.Store, error) {
	store, err := a.history()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errHistoryDisabled
	}
	return store, nil
}

var errHistoryDisabled = errors.New("run history is disabled: set history_db in the config file, PHINEAS_HISTORY_DB or --history-db")

// rootContextWithSignals creates a root context cancelled on SIGINT/SIGTERM.
// The cancel function releases the signal handler.
func rootContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	base, baseCancel := context.WithCancel(parent)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-ch:
			baseCancel()
		case <-base.Done():
		}
	}()

	cleanupCancel := func() {
		signal.Stop(ch)
		baseCancel()
	}
	return base, cleanupCancel
}

// exitCode 2 para errores de uso o configuración, 1 para el resto.
func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrConfigLoadFailed),
		errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrEmptyTarget),
		errors.Is(err, domain.ErrUnknownWorkflow),
		errors.Is(err, domain.ErrInvalidWorkflow):
		return 2
	default:
		return 1
	}
}

// envName convierte un servicio al sufijo de su variable de entorno.
func envName(service string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(service))
}
