// internal/core/usecases/aggregator.go
package usecases

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"phineas/internal/core/domain"
)

// FindingAggregator normaliza y deduplica los hallazgos de varios colectores.
// AddResult puede llamarse desde varias goroutines; cada llamada es atómica.
//
// El registro que sobrevive a una deduplicación se decide por un orden canónico
// (nombre del colector, orden de emisión y, en empate, su codificación JSON), de
// modo que Snapshot no depende del orden en que llegan los resultados.
type FindingAggregator struct {
	mu sync.Mutex

	scalars    map[domain.Kind]map[string]struct{}
	structured map[domain.Kind]map[string]rankedRecord
	index      domain.SourceIndex
	seen       map[string]domain.ResultStatus
}

type rankedRecord struct {
	record    domain.Record
	collector string
	seq       int
	canonical string
}

func (r rankedRecord) before(other rankedRecord) bool {
	if r.collector != other.collector {
		return r.collector < other.collector
	}
	if r.seq != other.seq {
		return r.seq < other.seq
	}
	return r.canonical < other.canonical
}

// canonicalForm codifica un registro con claves ordenadas (encoding/json ordena
// las claves de los mapas).
func canonicalForm(rec domain.Record) string {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(rec))
	}
	return string(data)
}

// NewFindingAggregator crea un agregador vacío.
func NewFindingAggregator() *FindingAggregator {
	a := &FindingAggregator{
		scalars:    make(map[domain.Kind]map[string]struct{}),
		structured: make(map[domain.Kind]map[string]rankedRecord),
		index:      domain.SourceIndex{},
		seen:       make(map[string]domain.ResultStatus),
	}
	for _, k := range domain.ScalarKinds {
		a.scalars[k] = make(map[string]struct{})
	}
	for _, k := range domain.StructuredKinds {
		a.structured[k] = make(map[string]rankedRecord)
	}
	return a
}

// AddResult incorpora el resultado de un colector. Los resultados fallidos
// quedan registrados como vistos pero no aportan hallazgos.
func (a *FindingAggregator) AddResult(collector string, result domain.CollectorResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if prev, ok := a.seen[collector]; !ok || prev != domain.StatusSuccess {
		a.seen[collector] = result.Status
	}
	if !result.IsSuccess() {
		return
	}

	seq := 0
	for _, name := range result.Findings.Kinds() {
		kind, ok := domain.ParseKind(name)
		if !ok {
			continue
		}
		for _, v := range domain.Values(result.Findings[name]) {
			if kind.IsScalar() {
				a.addScalar(kind, collector, v)
			} else {
				a.addRecord(kind, collector, seq, v)
			}
			seq++
		}
	}
}

// AddRun incorpora todos los resultados de una ejecución en orden de pasos.
func (a *FindingAggregator) AddRun(run *domain.WorkflowRun) {
	for _, sr := range run.Results {
		a.AddResult(sr.Collector, sr.Result)
	}
}

func (a *FindingAggregator) addScalar(kind domain.Kind, collector string, v any) {
	value, ok := scalarValue(v)
	if !ok {
		return
	}
	if kind.FoldsCase() {
		value = strings.ToLower(value)
	}

	a.scalars[kind][value] = struct{}{}
	a.index.Add(kind.IndexKey(value), collector)
}

func (a *FindingAggregator) addRecord(kind domain.Kind, collector string, seq int, v any) {
	rec, ok := promoteRecord(kind, v)
	if !ok {
		return
	}
	rec["source"] = collector

	key := DedupKey(kind, rec)
	candidate := rankedRecord{record: rec, collector: collector, seq: seq, canonical: canonicalForm(rec)}

	if existing, found := a.structured[kind][key]; found && !candidate.before(existing) {
		return
	}
	a.structured[kind][key] = candidate
}

// scalarValue extrae el valor de un hallazgo escalar. Acepta registros con
// campo url o value (p. ej. URLs de Wayback con timestamp).
func scalarValue(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	default:
		rec, ok := domain.AsRecord(v)
		if !ok {
			return "", false
		}
		s = rec.First("url", "value")
	}
	return s, s != ""
}

// promoteRecord convierte un hallazgo estructurado en un Record propio (copia).
// Un string suelto se promociona a {platform: unknown, account: v}; en brechas a {name: v}.
func promoteRecord(kind domain.Kind, v any) (domain.Record, bool) {
	if rec, ok := domain.AsRecord(v); ok {
		return rec.Clone(), true
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil, false
	}
	s = strings.TrimSpace(s)
	if kind == domain.KindBreaches {
		return domain.Record{"name": s}, true
	}
	return domain.Record{"platform": "unknown", "account": s}, true
}

// DedupKey calcula la clave de deduplicación de un registro estructurado.
// Nunca falla: los campos ausentes caen a "unknown" o "".
func DedupKey(kind domain.Kind, rec domain.Record) string {
	if kind == domain.KindBreaches {
		name := rec.First("name", "title")
		if name == "" {
			name = "unknown"
		}
		return name + ":" + rec.Get("email")
	}

	platform := rec.Get("platform")
	if platform == "" {
		platform = "unknown"
	}
	return platform + ":" + rec.First("url", "username", "account", "email")
}

// Collectors retorna los colectores vistos (exitosos o no), ordenados.
func (a *FindingAggregator) Collectors() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, 0, len(a.seen))
	for name := range a.seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Snapshot construye el informe agregado. Es una lectura pura: puede llamarse
// a mitad de ejecución y el informe devuelto no comparte estado con el agregador.
func (a *FindingAggregator) Snapshot() *domain.AggregatedReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	report := &domain.AggregatedReport{
		Summary:    make(map[string]int, len(domain.AllKinds())),
		Data:       make(map[domain.Kind]any, len(domain.AllKinds())),
		Confidence: domain.ScoreIndex(a.index),
		Sources:    make(map[string][]string, len(a.index)),
		Highlights: []string{},
	}

	for _, kind := range domain.ScalarKinds {
		values := make([]string, 0, len(a.scalars[kind]))
		for v := range a.scalars[kind] {
			values = append(values, v)
		}
		sort.Strings(values)
		report.Data[kind] = values
		report.Summary[kind.TotalKey()] = len(values)
	}

	for _, kind := range domain.StructuredKinds {
		keys := make([]string, 0, len(a.structured[kind]))
		for k := range a.structured[kind] {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		records := make([]domain.Record, 0, len(keys))
		for _, k := range keys {
			records = append(records, a.structured[kind][k].record.Clone())
		}
		report.Data[kind] = records
		report.Summary[kind.TotalKey()] = len(records)
	}

	for _, key := range a.index.Keys() {
		report.Sources[key] = a.index.Distinct(key)
	}

	for _, kind := range domain.AllKinds() {
		if n := report.Summary[kind.TotalKey()]; n > 0 {
			report.Highlights = append(report.Highlights, kind.Highlight(n))
		}
	}

	return report
}

// AggregateRuns agrega los hallazgos de varias ejecuciones (p. ej. varios targets).
func AggregateRuns(runs ...*domain.WorkflowRun) *domain.AggregatedReport {
	agg := NewFindingAggregator()
	for _, run := range runs {
		if run != nil {
			agg.AddRun(run)
		}
	}
	return agg.Snapshot()
}

// BuildSummary resume una ejecución sellada a partir de su informe agregado.
func BuildSummary(run *domain.WorkflowRun, report *domain.AggregatedReport) domain.RunSummary {
	successful, failed := run.CountByStatus()

	summary := domain.RunSummary{
		TotalPlugins: len(run.Results),
		Successful:   successful,
		Failed:       failed,
		Counts:       map[string]int{},
		Highlights:   []string{},
	}
	if report == nil {
		return summary
	}
	for k, v := range report.Summary {
		summary.Counts[k] = v
	}
	summary.Highlights = append(summary.Highlights, report.Highlights...)
	return summary
}
