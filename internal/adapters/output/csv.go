// internal/adapters/output/csv.go
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
)

// defaultConfidence se usa cuando una clave no aparece en el índice.
const defaultConfidence = 50

// structuredColumns columnas exportadas por tipo estructurado.
var structuredColumns = map[domain.Kind][]string{
	domain.KindSocialProfiles: {"platform", "username", "url", "source"},
	domain.KindAccounts:       {"platform", "account", "email", "source"},
	domain.KindBreaches:       {"name", "title", "domain", "breach_date", "pwn_count", "email", "source"},
}

// WriteCSV exporta un tipo de hallazgo del informe en formato CSV.
// Los tipos escalares se exportan como <Label>,Sources,Confidence; minConfidence
// filtra filas escalares por debajo del umbral (0 = todas).
func WriteCSV(w io.Writer, report *domain.AggregatedReport, kind domain.Kind, minConfidence int) error {
	cw := csv.NewWriter(w)

	var err error
	switch {
	case kind.IsScalar():
		err = writeScalarCSV(cw, report, kind, minConfidence)
	case kind.IsStructured():
		err = writeRecordCSV(cw, report.Records(kind), structuredColumns[kind])
	default:
		return fmt.Errorf("unsupported finding kind %q", kind)
	}
	if err != nil {
		return err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func writeScalarCSV(cw *csv.Writer, report *domain.AggregatedReport, kind domain.Kind, minConfidence int) error {
	if err := cw.Write([]string{kind.Label(), "Sources", "Confidence"}); err != nil {
		return err
	}
	for _, value := range report.Scalars(kind) {
		key := kind.IndexKey(value)

		confidence, ok := report.Confidence[key]
		if !ok {
			confidence = defaultConfidence
		}
		if confidence < minConfidence {
			continue
		}

		sources := report.Sources[key]
		if len(sources) == 0 {
			sources = []string{"unknown"}
		}

		if err := cw.Write([]string{value, strings.Join(sources, ", "), strconv.Itoa(confidence)}); err != nil {
			return err
		}
	}
	return nil
}

func writeRecordCSV(cw *csv.Writer, records []domain.Record, columns []string) error {
	if err := cw.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = rec.Get(col)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// CSVExporter exporta un tipo de hallazgo como CSV.
type CSVExporter struct{}

// Name implementa ports.ReportExporter.
func (CSVExporter) Name() string { return "csv" }

// Export implementa ports.ReportExporter.
func (CSVExporter) Export(w io.Writer, report *domain.AggregatedReport, opts ports.ExportOptions) error {
	return WriteCSV(w, report, opts.Kind, opts.MinConfidence)
}

// Exporters retorna los exporters disponibles por nombre.
func Exporters() map[string]ports.ReportExporter {
	return map[string]ports.ReportExporter{
		"json": JSONExporter{},
		"csv":  CSVExporter{},
	}
}
