// internal/core/ports/collector.go
package ports

import (
	"context"

	"phineas/internal/core/domain"
)

// Collector es la interfaz que implementan todos los colectores de datos.
// Un colector recibe el target y su configuración efectiva y devuelve hallazgos
// crudos o un error; el executor convierte ambos en un CollectorResult.
type Collector interface {
	// Name retorna el identificador único del colector (usado en workflows)
	Name() string

	// Run ejecuta el colector. Debe respetar la cancelación de ctx.
	Run(ctx context.Context, req Request) (domain.FindingSet, error)
}

// Request agrupa la entrada de una invocación.
type Request struct {
	// Target objetivo clasificado
	Target domain.Target

	// Config configuración global del colector combinada con la del paso
	Config map[string]any

	// Credentials claves de API disponibles (servicio -> clave)
	Credentials Credentials
}

// Credentials mapea nombre de servicio a clave de API.
type Credentials map[string]string

// Get retorna la clave de un servicio si está configurada y no vacía.
func (c Credentials) Get(service string) (string, bool) {
	v, ok := c[service]
	return v, ok && v != ""
}

// CredentialedCollector declara una credencial obligatoria. Si falta, el
// executor falla el paso con ErrMissingCredential sin invocar al colector.
type CredentialedCollector interface {
	Collector

	// RequiredCredential retorna el nombre del servicio cuya clave se necesita
	RequiredCredential() string
}

// Closer es implementado por colectores que mantienen recursos.
type Closer interface {
	Close() error
}

// CollectorResolver resuelve colectores por nombre.
type CollectorResolver interface {
	// Resolve retorna el colector registrado o domain.ErrUnknownCollector
	Resolve(name string) (Collector, error)
}

// CollectorMetadata describe un colector registrado.
type CollectorMetadata struct {
	Name          string
	Description   string
	Version       string
	Type          domain.CollectorType
	RequiresAuth  bool
	CredentialKey string              // servicio de la clave de API (si RequiresAuth)
	Binary        string              // herramienta externa (colectores CLI)
	Package       string              // paquete de PyPI que instala Binary
	TargetKinds   []domain.TargetKind // tipos de target soportados
	Produces      []domain.Kind       // tipos de hallazgo que emite
}

// Supports indica si el colector acepta un tipo de target.
// Sin TargetKinds declarados acepta cualquiera.
func (m CollectorMetadata) Supports(kind domain.TargetKind) bool {
	if len(m.TargetKinds) == 0 {
		return true
	}
	for _, k := range m.TargetKinds {
		if k == kind {
			return true
		}
	}
	return false
}
