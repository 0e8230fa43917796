// internal/platform/resilience/retryable_collector.go
package resilience

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"time"

	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/errors"
	"phineas/internal/platform/logx"
)

// Policy configura reintentos y circuit breaker.
type Policy struct {
	MaxRetries        int
	BackoffBase       time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration

	// CircuitBreaker habilita un breaker por colector
	CircuitBreaker          bool
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
	CircuitBreakerHalfOpen  int
}

// DefaultPolicy retorna la política por defecto (2 reintentos, backoff 1s x2).
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:              2,
		BackoffBase:             1 * time.Second,
		BackoffMultiplier:       2.0,
		MaxBackoff:              60 * time.Second,
		CircuitBreaker:          true,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   60 * time.Second,
		CircuitBreakerHalfOpen:  1,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = 1 * time.Second
	}
	if p.BackoffMultiplier < 1.0 {
		p.BackoffMultiplier = 2.0
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 60 * time.Second
	}
	return p
}

// RetryableCollector envuelve un Collector con reintentos y circuit breaker.
type RetryableCollector struct {
	collector      ports.Collector
	policy         Policy
	circuitBreaker *CircuitBreaker
	logger         logx.Logger
}

// NewRetryableCollector crea un nuevo RetryableCollector. cb puede ser nil.
func NewRetryableCollector(collector ports.Collector, policy Policy, cb *CircuitBreaker, logger logx.Logger) *RetryableCollector {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &RetryableCollector{
		collector:      collector,
		policy:         policy.normalized(),
		circuitBreaker: cb,
		logger:         logger.With("component", "retryable-collector", "collector", collector.Name()),
	}
}

// Name retorna el nombre del colector subyacente.
func (r *RetryableCollector) Name() string {
	return r.collector.Name()
}

// RequiredCredential delega en el colector subyacente ("" si no requiere).
func (r *RetryableCollector) RequiredCredential() string {
	if cc, ok := r.collector.(ports.CredentialedCollector); ok {
		return cc.RequiredCredential()
	}
	return ""
}

// Run ejecuta el colector con reintentos y circuit breaker.
// Toda invocación admitida por el breaker se liquida: un pánico del colector
// o un colector abandonado al vencer ctx cuentan como fallo.
func (r *RetryableCollector) Run(ctx context.Context, req ports.Request) (domain.FindingSet, error) {
	if r.circuitBreaker != nil {
		if err := r.circuitBreaker.Allow(); err != nil {
			r.logger.Warn("circuit breaker rejected collector", "error", err.Error())
			return nil, fmt.Errorf("collector %s: %w", r.collector.Name(), err)
		}
	}

	var lastErr error
	attempt := 0

	for {
		if attempt > 0 {
			r.logger.Info("retrying collector", "attempt", attempt, "max_retries", r.policy.MaxRetries)
		}

		findings, err := r.invoke(ctx, req)
		if err == nil {
			r.settle(ctx, nil)
			if attempt > 0 {
				r.logger.Info("collector succeeded after retry", "attempts", attempt+1)
			}
			return findings, nil
		}

		lastErr = err
		r.logger.Warn("collector failed", "attempt", attempt+1, "error", err.Error())

		if attempt >= r.policy.MaxRetries || !ShouldRetry(err) || ctx.Err() != nil {
			break
		}

		backoff := r.calculateBackoff(attempt)
		r.logger.Debug("backing off before retry", "delay_ms", backoff.Milliseconds())

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			r.settle(ctx, ctx.Err())
			return nil, ctx.Err()
		}

		attempt++
	}

	r.settle(ctx, lastErr)

	if attempt == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("after %d attempts: %w", attempt+1, lastErr)
}

type attemptResult struct {
	findings domain.FindingSet
	err      error
}

// invoke hace un intento. Un pánico se convierte en ErrCollectorFault y un
// colector que ignora ctx se abandona cuando ctx termina.
func (r *RetryableCollector) invoke(ctx context.Context, req ports.Request) (domain.FindingSet, error) {
	done := make(chan attemptResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				r.logger.Debug("collector panic", "stack", string(debug.Stack()))
				done <- attemptResult{err: fmt.Errorf("%w: panic: %v", domain.ErrCollectorFault, p)}
			}
		}()
		findings, err := r.collector.Run(ctx, req)
		done <- attemptResult{findings: findings, err: err}
	}()

	select {
	case out := <-done:
		return out.findings, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// settle informa al breaker del resultado. Las cancelaciones del llamador
// liberan la sonda sin penalizar al colector.
func (r *RetryableCollector) settle(ctx context.Context, err error) {
	if r.circuitBreaker == nil {
		return
	}
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		r.circuitBreaker.Forget()
		return
	}
	r.circuitBreaker.Record(err)
}

// Close cierra el colector subyacente si mantiene recursos.
func (r *RetryableCollector) Close() error {
	if c, ok := r.collector.(ports.Closer); ok {
		return c.Close()
	}
	return nil
}

// calculateBackoff calcula el delay de backoff exponencial.
func (r *RetryableCollector) calculateBackoff(attempt int) time.Duration {
	multiplier := math.Pow(r.policy.BackoffMultiplier, float64(attempt))
	backoff := time.Duration(float64(r.policy.BackoffBase) * multiplier)

	if backoff > r.policy.MaxBackoff {
		backoff = r.policy.MaxBackoff
	}
	return backoff
}

// ShouldRetry indica si un fallo de colector merece otro intento.
// Credenciales ausentes, auth, not-found, herramientas no instaladas y
// cancelaciones son permanentes.
func ShouldRetry(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, domain.ErrMissingCredential),
		errors.Is(err, errors.ErrUnauthorized),
		errors.Is(err, errors.ErrNotFound),
		errors.Is(err, errors.ErrToolNotFound),
		errors.Is(err, errors.ErrInvalidInput),
		errors.Is(err, ErrCircuitOpen),
		errors.Is(err, ErrTooManyRequests):
		return false
	case errors.Is(err, errors.ErrCommandFailed):
		return true
	}
	return errors.IsRetryable(err) || errors.Is(err, errors.ErrTimeout)
}
