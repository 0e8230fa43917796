// internal/platform/resilience/circuit_breaker.go
package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// State representa el estado del circuit breaker.
type State int

const (
	StateClosed   State = iota // invocaciones normales
	StateOpen                  // se rechazan hasta que pase el cooldown
	StateHalfOpen              // se admiten sondas limitadas
)

// CircuitBreaker deja de invocar un colector tras fallos consecutivos
// (p. ej. un servicio caído o un binario roto) hasta que pasa el cooldown.
// En half-open admite como máximo probeLimit sondas en vuelo; el circuito se
// cierra cuando probeLimit sondas terminan bien y se reabre con el primer fallo.
type CircuitBreaker struct {
	mu sync.Mutex

	state     State
	failures  int // fallos consecutivos en closed
	inFlight  int // sondas admitidas y sin resultado en half-open
	successes int // sondas exitosas en half-open
	openedAt  time.Time

	lastFailure time.Time
	lastSuccess time.Time

	threshold  int
	cooldown   time.Duration
	probeLimit int

	now func() time.Time
}

// NewCircuitBreaker crea un breaker cerrado. Valores no positivos toman
// 5 fallos, 60s de cooldown y 1 sonda.
func NewCircuitBreaker(threshold int, cooldown time.Duration, probeLimit int) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	if probeLimit <= 0 {
		probeLimit = 1
	}
	return &CircuitBreaker{
		threshold:  threshold,
		cooldown:   cooldown,
		probeLimit: probeLimit,
		now:        time.Now,
	}
}

// Allow decide si la invocación puede pasar. Si devuelve nil el llamador
// debe informar el resultado con Record (o Forget si se canceló).
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		wait := cb.cooldown - cb.now().Sub(cb.openedAt)
		if wait > 0 {
			return fmt.Errorf("%w (retry in %s)", ErrCircuitOpen, wait.Round(time.Second))
		}
		cb.state = StateHalfOpen
		cb.inFlight = 0
		cb.successes = 0
		fallthrough

	case StateHalfOpen:
		if cb.inFlight+cb.successes >= cb.probeLimit {
			return ErrTooManyRequests
		}
		cb.inFlight++
	}
	return nil
}

// Record registra el resultado de una invocación admitida.
func (cb *CircuitBreaker) Record(err error) {
	if err != nil {
		cb.RecordFailure()
		return
	}
	cb.RecordSuccess()
}

// RecordSuccess registra una invocación exitosa.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastSuccess = cb.now()
	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.release()
		cb.successes++
		if cb.successes >= cb.probeLimit {
			cb.close()
		}
	}
}

// RecordFailure registra una invocación fallida.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = cb.now()
	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.threshold {
			cb.open()
		}
	case StateHalfOpen:
		cb.open()
	}
}

// Forget libera una sonda admitida sin contar su resultado.
func (cb *CircuitBreaker) Forget() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateHalfOpen {
		cb.release()
	}
}

func (cb *CircuitBreaker) release() {
	if cb.inFlight > 0 {
		cb.inFlight--
	}
}

func (cb *CircuitBreaker) open() {
	cb.state = StateOpen
	cb.openedAt = cb.now()
	cb.inFlight = 0
	cb.successes = 0
}

func (cb *CircuitBreaker) close() {
	cb.state = StateClosed
	cb.failures = 0
	cb.inFlight = 0
	cb.successes = 0
}

// State retorna el estado actual.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// CircuitBreakerStats es una foto del breaker.
type CircuitBreakerStats struct {
	State           State
	FailureCount    int
	SuccessCount    int
	OpenedAt        time.Time
	LastFailureTime time.Time
	LastSuccessTime time.Time
}

// Stats retorna una foto del breaker.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerStats{
		State:           cb.state,
		FailureCount:    cb.failures,
		SuccessCount:    cb.successes,
		OpenedAt:        cb.openedAt,
		LastFailureTime: cb.lastFailure,
		LastSuccessTime: cb.lastSuccess,
	}
}

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
