// internal/collectors/common/helpers.go
package common

import (
	"sort"
	"strings"

	"phineas/internal/core/domain"
	"phineas/internal/platform/errors"
)

// ExecPathKey es la clave de configuración que reemplaza el binario por defecto.
const ExecPathKey = "exec_path"

// RequireDomain retorna el dominio derivado del target o ErrInvalidInput
// si el target no tiene dominio (handles).
func RequireDomain(target domain.Target) (string, error) {
	d := target.Domain()
	if d == "" {
		return "", errors.Wrapf(errors.ErrInvalidInput, "could not extract domain from target %q", target.Value)
	}
	return d, nil
}

// RequireEmail retorna el email del target o ErrInvalidInput.
func RequireEmail(target domain.Target) (string, error) {
	e := target.Email()
	if e == "" {
		return "", errors.Wrapf(errors.ErrInvalidInput, "target %q is not an email", target.Value)
	}
	return e, nil
}

// SortedUnique elimina vacíos y duplicados y ordena.
func SortedUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Records convierte registros al tipo genérico de hallazgos.
func Records(recs []domain.Record) []any {
	out := make([]any, 0, len(recs))
	for _, r := range recs {
		out = append(out, r)
	}
	return out
}
