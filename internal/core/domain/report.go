// internal/core/domain/report.go
package domain

import "sort"

// SourceIndex asocia una clave normalizada "tipo:valor" a los colectores que
// la reportaron. Solo crece durante una ejecución.
type SourceIndex map[string][]string

// Add registra que collector reportó key.
func (s SourceIndex) Add(key, collector string) {
	s[key] = append(s[key], collector)
}

// Distinct retorna los colectores distintos de una clave, ordenados.
func (s SourceIndex) Distinct(key string) []string {
	return distinctSorted(s[key])
}

// Keys retorna las claves ordenadas.
func (s SourceIndex) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AggregatedReport es la vista normalizada, deduplicada y puntuada de una o
// varias ejecuciones. Se construye una vez y no se modifica.
type AggregatedReport struct {
	// Summary totales por tipo ("total_emails" -> n)
	Summary map[string]int `json:"summary"`

	// Data conjuntos escalares ([]string) y listas estructuradas ([]Record) por tipo
	Data map[Kind]any `json:"data"`

	// Confidence puntuación por clave del SourceIndex (50, 75 o 100)
	Confidence map[string]int `json:"confidence"`

	// Sources colectores distintos por clave
	Sources map[string][]string `json:"sources"`

	// Highlights frases legibles para cada tipo con hallazgos
	Highlights []string `json:"highlights,omitempty"`
}

// Scalars retorna el conjunto ordenado de un tipo escalar.
func (r *AggregatedReport) Scalars(kind Kind) []string {
	v, _ := r.Data[kind].([]string)
	return v
}

// Records retorna la lista deduplicada de un tipo estructurado.
func (r *AggregatedReport) Records(kind Kind) []Record {
	v, _ := r.Data[kind].([]Record)
	return v
}

// Total retorna el total de un tipo.
func (r *AggregatedReport) Total(kind Kind) int {
	return r.Summary[kind.TotalKey()]
}

func distinctSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sortStrings(s []string) {
	sort.Strings(s)
}
