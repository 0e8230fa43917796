// internal/platform/urlfilter/normalizer.go
package urlfilter

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"
)

// trackingParams son parámetros de analítica o sesión que no cambian el recurso.
var trackingParams = map[string]bool{
	// Google Analytics
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true, "gclid": true,
	"gclsrc": true, "_ga": true, "_gid": true,

	// Facebook
	"fbclid": true, "fb_action_ids": true, "fb_action_types": true,
	"fb_source": true, "fb_ref": true,

	// Session
	"sessionid": true, "session_id": true, "sid": true,
	"phpsessid": true, "jsessionid": true, "aspsessionid": true,

	// Cache busters
	"_": true, "nocache": true,
}

// Normalize devuelve la forma canónica de una URL para deduplicarla:
// scheme y host en minúsculas, sin puerto por defecto ni fragmento, ruta
// limpia (con barra final si no tiene extensión) y query ordenada sin
// parámetros de tracking.
func Normalize(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	switch {
	case parsed.Scheme == "http":
		parsed.Host = strings.TrimSuffix(parsed.Host, ":80")
	case parsed.Scheme == "https":
		parsed.Host = strings.TrimSuffix(parsed.Host, ":443")
	}
	parsed.Fragment = ""
	parsed.RawFragment = ""

	// path.Clean, no filepath.Clean: la ruta de una URL siempre usa '/'
	if parsed.Path != "" {
		parsed.Path = path.Clean(parsed.Path)
		if !strings.Contains(path.Base(parsed.Path), ".") && !strings.HasSuffix(parsed.Path, "/") {
			parsed.Path += "/"
		}
		parsed.RawPath = ""
	}

	if parsed.RawQuery != "" {
		query := parsed.Query()
		for key := range query {
			if trackingParams[strings.ToLower(key)] {
				query.Del(key)
			}
		}
		// Encode ordena por clave
		parsed.RawQuery = query.Encode()
	}

	return parsed.String(), nil
}

// Deduper recuerda las formas canónicas ya vistas. Es seguro para uso concurrente.
type Deduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDeduper crea un Deduper vacío.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// Add registra la URL y devuelve true si su forma canónica no se había visto.
// Una URL que no se puede parsear se compara tal cual.
func (d *Deduper) Add(rawURL string) bool {
	key, err := Normalize(rawURL)
	if err != nil {
		key = rawURL
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Len devuelve cuántas formas canónicas distintas se han visto.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
