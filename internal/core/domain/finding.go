// internal/core/domain/finding.go
package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifica un tipo de hallazgo dentro de un FindingSet.
type Kind string

const (
	// Tipos escalares (conjuntos de strings normalizados)
	KindEmails       Kind = "emails"
	KindUsernames    Kind = "usernames"
	KindDomains      Kind = "domains"
	KindSubdomains   Kind = "subdomains"
	KindPhoneNumbers Kind = "phone_numbers"
	KindURLs         Kind = "urls"

	// Tipos estructurados (listas de registros deduplicados)
	KindSocialProfiles Kind = "social_profiles"
	KindAccounts       Kind = "accounts"
	KindBreaches       Kind = "breaches"
)

// ScalarKinds en el orden en que aparecen en resúmenes y exportaciones.
var ScalarKinds = []Kind{
	KindEmails,
	KindUsernames,
	KindDomains,
	KindSubdomains,
	KindPhoneNumbers,
	KindURLs,
}

// StructuredKinds en el orden en que aparecen en resúmenes y exportaciones.
var StructuredKinds = []Kind{
	KindSocialProfiles,
	KindAccounts,
	KindBreaches,
}

// AllKinds devuelve todos los tipos reconocidos, escalares primero.
func AllKinds() []Kind {
	out := make([]Kind, 0, len(ScalarKinds)+len(StructuredKinds))
	out = append(out, ScalarKinds...)
	return append(out, StructuredKinds...)
}

var kindAliases = map[string]Kind{
	"phoneNumbers":   KindPhoneNumbers,
	"phones":         KindPhoneNumbers,
	"socialProfiles": KindSocialProfiles,
	"profiles":       KindSocialProfiles,
}

// ParseKind resuelve un nombre de tipo (snake_case canónico o alias camelCase).
func ParseKind(name string) (Kind, bool) {
	k := Kind(name)
	if k.IsScalar() || k.IsStructured() {
		return k, true
	}
	if alias, ok := kindAliases[name]; ok {
		return alias, true
	}
	return "", false
}

// IsScalar indica si el tipo se normaliza como conjunto de strings.
func (k Kind) IsScalar() bool {
	switch k {
	case KindEmails, KindUsernames, KindDomains, KindSubdomains, KindPhoneNumbers, KindURLs:
		return true
	}
	return false
}

// IsStructured indica si el tipo se deduplica como lista de registros.
func (k Kind) IsStructured() bool {
	switch k {
	case KindSocialProfiles, KindAccounts, KindBreaches:
		return true
	}
	return false
}

// FoldsCase indica si los valores del tipo se comparan sin distinguir mayúsculas.
func (k Kind) FoldsCase() bool {
	return k == KindEmails || k == KindDomains || k == KindSubdomains
}

// IndexPrefix retorna el prefijo usado en las claves del SourceIndex ("email", "subdomain"...).
func (k Kind) IndexPrefix() string {
	switch k {
	case KindEmails:
		return "email"
	case KindUsernames:
		return "username"
	case KindDomains:
		return "domain"
	case KindSubdomains:
		return "subdomain"
	case KindPhoneNumbers:
		return "phone"
	case KindURLs:
		return "url"
	case KindSocialProfiles:
		return "profile"
	case KindAccounts:
		return "account"
	case KindBreaches:
		return "breach"
	}
	return string(k)
}

// IndexKey construye la clave "prefijo:valor" del SourceIndex.
func (k Kind) IndexKey(value string) string {
	return k.IndexPrefix() + ":" + value
}

// Label retorna el nombre de columna usado en exportaciones CSV.
func (k Kind) Label() string {
	switch k {
	case KindEmails:
		return "Email"
	case KindUsernames:
		return "Username"
	case KindDomains:
		return "Domain"
	case KindSubdomains:
		return "Subdomain"
	case KindPhoneNumbers:
		return "Phone Number"
	case KindURLs:
		return "URL"
	}
	return string(k)
}

// Highlight genera el texto legible para count hallazgos del tipo.
func (k Kind) Highlight(count int) string {
	switch k {
	case KindEmails:
		return fmt.Sprintf("%d unique email(s) discovered", count)
	case KindUsernames:
		return fmt.Sprintf("%d username(s) identified", count)
	case KindDomains:
		return fmt.Sprintf("%d domain(s) identified", count)
	case KindSubdomains:
		return fmt.Sprintf("%d subdomain(s) enumerated", count)
	case KindPhoneNumbers:
		return fmt.Sprintf("%d phone number(s) found", count)
	case KindURLs:
		return fmt.Sprintf("%d URL(s) collected", count)
	case KindSocialProfiles:
		return fmt.Sprintf("%d social media profile(s) found", count)
	case KindAccounts:
		return fmt.Sprintf("%d online account(s) discovered", count)
	case KindBreaches:
		return fmt.Sprintf("%d data breach(es) identified", count)
	}
	return fmt.Sprintf("%d %s", count, k)
}

// TotalKey retorna la clave del resumen ("total_emails").
func (k Kind) TotalKey() string {
	return "total_" + string(k)
}

// String retorna la representación string del tipo.
func (k Kind) String() string {
	return string(k)
}

// FindingSet es la salida cruda de un colector: tipo -> valor único o lista
// (strings o registros). Tipos desconocidos se conservan pero no se agregan.
type FindingSet map[string]any

// Kinds retorna los nombres de tipo presentes, ordenados.
func (f FindingSet) Kinds() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Count retorna el número total de valores en todos los tipos.
func (f FindingSet) Count() int {
	n := 0
	for _, v := range f {
		n += len(Values(v))
	}
	return n
}

// Values aplana el valor de un tipo a una lista: un valor único se convierte
// en lista de un elemento y los tipos de slice habituales se expanden.
func Values(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []Record:
		out := make([]any, len(t))
		for i, r := range t {
			out[i] = r
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, r := range t {
			out[i] = r
		}
		return out
	default:
		return []any{v}
	}
}

// Record es un hallazgo estructurado (perfil social, cuenta, brecha...).
type Record map[string]any

// AsRecord convierte un valor a Record si es un mapa.
func AsRecord(v any) (Record, bool) {
	switch t := v.(type) {
	case Record:
		return t, true
	case map[string]any:
		return Record(t), true
	}
	return nil, false
}

// Clone retorna una copia superficial del registro.
func (r Record) Clone() Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Get retorna el campo como string recortado; "" si falta o está vacío.
// Los números se formatean sin notación exponencial.
func (r Record) Get(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// First retorna el primer campo no vacío de keys, o "".
func (r Record) First(keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k); v != "" {
			return v
		}
	}
	return ""
}
