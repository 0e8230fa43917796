// internal/platform/registry/collector_registry.go
package registry

import (
	"fmt"
	"sort"
	"sync"

	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/logx"
)

// CollectorRegistry gestiona el registro y construcción de colectores.
// Implementa el patrón Registry + Factory: cada paquete de colector se registra
// en init() y el executor resuelve por nombre en tiempo de ejecución.
type CollectorRegistry struct {
	mu        sync.RWMutex
	factories map[string]CollectorFactory
	metadata  map[string]ports.CollectorMetadata
	instances map[string]ports.Collector
	logger    logx.Logger
}

// CollectorFactory es una función que crea una instancia de Collector.
type CollectorFactory func(logger logx.Logger) (ports.Collector, error)

// globalRegistry es la instancia global del registry.
var globalRegistry *CollectorRegistry
var once sync.Once

// Global retorna la instancia global del registry.
func Global() *CollectorRegistry {
	once.Do(func() {
		globalRegistry = NewCollectorRegistry(logx.New())
	})
	return globalRegistry
}

// NewCollectorRegistry crea un nuevo registry de colectores.
func NewCollectorRegistry(logger logx.Logger) *CollectorRegistry {
	return &CollectorRegistry{
		factories: make(map[string]CollectorFactory),
		metadata:  make(map[string]ports.CollectorMetadata),
		instances: make(map[string]ports.Collector),
		logger:    logger.With("component", "collector-registry"),
	}
}

// SetLogger reemplaza el logger usado por el registry y por las factories
// que se construyan a partir de ahora.
func (r *CollectorRegistry) SetLogger(logger logx.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger.With("component", "collector-registry")
}

// Register registra una factory de colector con su metadata.
// Típicamente llamado desde init() de cada paquete de colector.
func (r *CollectorRegistry) Register(name string, factory CollectorFactory, meta ports.CollectorMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return fmt.Errorf("collector name cannot be empty")
	}

	if factory == nil {
		return fmt.Errorf("factory cannot be nil for collector %s", name)
	}

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("collector %s is already registered", name)
	}

	if meta.Name == "" {
		meta.Name = name
	}

	r.factories[name] = factory
	r.metadata[name] = meta
	r.logger.Debug("collector registered", "name", name, "type", meta.Type)

	return nil
}

// Resolve construye (una sola vez) y retorna el colector registrado con ese nombre.
// Nombres no registrados fallan con domain.ErrUnknownCollector.
func (r *CollectorRegistry) Resolve(name string) (ports.Collector, error) {
	r.mu.RLock()
	if c, ok := r.instances[name]; ok {
		r.mu.RUnlock()
		return c, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.instances[name]; ok {
		return c, nil
	}

	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCollector, name)
	}

	c, err := factory(r.logger.With("collector", name))
	if err != nil {
		return nil, fmt.Errorf("failed to build collector %s: %w", name, err)
	}

	r.instances[name] = c
	r.logger.Debug("collector built", "name", name)
	return c, nil
}

// List retorna los nombres de todos los colectores registrados.
func (r *CollectorRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetMetadata retorna el metadata de un colector.
func (r *CollectorRegistry) GetMetadata(name string) (ports.CollectorMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, exists := r.metadata[name]
	return meta, exists
}

// GetAllMetadata retorna el metadata de todos los colectores, ordenado por nombre.
func (r *CollectorRegistry) GetAllMetadata() []ports.CollectorMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ports.CollectorMetadata, 0, len(r.metadata))
	for _, meta := range r.metadata {
		result = append(result, meta)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// IsRegistered verifica si un colector está registrado.
func (r *CollectorRegistry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// Close libera los colectores construidos que mantengan recursos.
func (r *CollectorRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, c := range r.instances {
		if closer, ok := c.(ports.Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("close collector %s: %w", name, err)
			}
		}
	}
	r.instances = make(map[string]ports.Collector)
	return firstErr
}

// Clear elimina todos los colectores registrados (útil para testing).
func (r *CollectorRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories = make(map[string]CollectorFactory)
	r.metadata = make(map[string]ports.CollectorMetadata)
	r.instances = make(map[string]ports.Collector)
}

// MustRegister registra en el registry global y entra en pánico si falla.
// Pensado para init() de los paquetes de colectores.
func MustRegister(name string, factory CollectorFactory, meta ports.CollectorMetadata) {
	if err := Global().Register(name, factory, meta); err != nil {
		panic(err)
	}
}
