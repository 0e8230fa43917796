// internal/platform/resilience/resolver.go
package resilience

import (
	"sync"

	"phineas/internal/core/ports"
	"phineas/internal/platform/logx"
)

// Resolver decora un CollectorResolver envolviendo cada colector resuelto
// en un RetryableCollector. Mantiene un circuit breaker por nombre, de modo
// que varios runs del mismo proceso comparten el estado del breaker.
type Resolver struct {
	inner  ports.CollectorResolver
	policy Policy
	logger logx.Logger

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewResolver crea un resolver resiliente.
func NewResolver(inner ports.CollectorResolver, policy Policy, logger logx.Logger) *Resolver {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &Resolver{
		inner:    inner,
		policy:   policy.normalized(),
		logger:   logger,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Resolve resuelve y envuelve el colector. Los errores del resolver interno
// se devuelven sin modificar.
func (r *Resolver) Resolve(name string) (ports.Collector, error) {
	c, err := r.inner.Resolve(name)
	if err != nil {
		return nil, err
	}
	return NewRetryableCollector(c, r.policy, r.breaker(name), r.logger), nil
}

// Breaker retorna el circuit breaker de un colector (nil si no existe).
func (r *Resolver) Breaker(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.breakers[name]
}

func (r *Resolver) breaker(name string) *CircuitBreaker {
	if !r.policy.CircuitBreaker {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cb, ok := r.breakers[name]
	if !ok {
		cb = NewCircuitBreaker(r.policy.CircuitBreakerThreshold, r.policy.CircuitBreakerTimeout, r.policy.CircuitBreakerHalfOpen)
		r.breakers[name] = cb
	}
	return cb
}
