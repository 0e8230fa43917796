// internal/core/domain/target.go
package domain

import (
	"fmt"
	"strings"

	"phineas/internal/platform/validator"
)

// Target representa el identificador investigado (email, dominio o handle).
// La clasificación solo decide el workflow por defecto y qué deriva cada colector.
type Target struct {
	// Value es el identificador tal como lo dio el usuario (sin espacios)
	Value string

	// Kind es la clasificación por forma
	Kind TargetKind
}

// NewTarget crea un target clasificado a partir de un string.
func NewTarget(raw string) (Target, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Target{}, ErrEmptyTarget
	}
	return Target{Value: value, Kind: ClassifyTarget(value)}, nil
}

// ClassifyTarget clasifica un identificador por su forma:
// contiene '@' -> email; contiene '.' con al menos dos etiquetas -> dominio; si no -> handle.
func ClassifyTarget(raw string) TargetKind {
	value := strings.TrimSpace(raw)
	if strings.Contains(value, "@") {
		return TargetKindEmail
	}
	if strings.Contains(value, ".") {
		labels := 0
		for _, label := range strings.Split(value, ".") {
			if label != "" {
				labels++
			}
		}
		if labels >= 2 {
			return TargetKindDomain
		}
	}
	return TargetKindHandle
}

// DefaultWorkflow retorna el workflow por defecto para este target.
func (t Target) DefaultWorkflow() string {
	return t.Kind.DefaultWorkflow()
}

// Username deriva el nombre de usuario a buscar: la parte local de un email
// o el propio valor en cualquier otro caso.
func (t Target) Username() string {
	if t.Kind == TargetKindEmail {
		local, _ := validator.SplitEmail(t.Value)
		return local
	}
	return validator.NormalizeHandle(t.Value)
}

// Domain deriva el dominio asociado: el host de un email, el host de una URL
// o el dominio normalizado. Los handles no tienen dominio.
func (t Target) Domain() string {
	switch t.Kind {
	case TargetKindEmail:
		_, host := validator.SplitEmail(t.Value)
		return host
	case TargetKindDomain:
		if host := validator.HostOf(t.Value); host != "" {
			return validator.NormalizeDomain(host)
		}
		return validator.NormalizeDomain(t.Value)
	default:
		return ""
	}
}

// Email retorna el email normalizado, o "" si el target no es un email.
func (t Target) Email() string {
	if t.Kind != TargetKindEmail {
		return ""
	}
	return validator.NormalizeEmail(t.Value)
}

// FileStem deriva un nombre de fichero seguro: '@' -> "_at_", '.' y '/' -> '_'.
func (t Target) FileStem() string {
	r := strings.NewReplacer("@", "_at_", ".", "_", "/", "_")
	return r.Replace(t.Value)
}

// String retorna una representación legible del target.
func (t Target) String() string {
	return fmt.Sprintf("Target{value=%s, kind=%s}", t.Value, t.Kind)
}
