package installer

import (
	"strconv"
	"strings"
)

// ExtractVersion busca un número de versión en la salida de --version.
// Prefiere las líneas que mencionan "version"; si no encuentra ninguno
// devuelve la primera línea recortada.
func ExtractVersion(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")

	for _, line := range lines {
		if strings.Contains(strings.ToLower(line), "version") {
			if v := firstVersion(line); v != "" {
				return v
			}
		}
	}
	for _, line := range lines {
		if v := firstVersion(line); v != "" {
			return v
		}
	}
	return strings.TrimSpace(lines[0])
}

func firstVersion(line string) string {
	for _, field := range strings.Fields(line) {
		clean := cleanVersion(field)
		if isValidVersion(clean) {
			return clean
		}
	}
	return ""
}

func cleanVersion(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, "(),:;")
	v = strings.TrimPrefix(v, "v")
	return strings.TrimPrefix(v, "V")
}

// isValidVersion acepta al menos dos componentes numéricos (1.7, 4.6.0).
func isValidVersion(v string) bool {
	parts := strings.Split(v, ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return false
		}
	}
	return true
}
