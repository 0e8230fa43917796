// internal/adapters/output/json.go
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
)

// timestampLayout formato de fecha usado en los nombres de fichero.
const timestampLayout = "20060102_150405"

// maxNameCollisions límite de sufijos probados antes de rendirse.
const maxNameCollisions = 100

// RunReportFilename genera el nombre del informe de una ejecución:
// phineas_<stem>_<YYYYmmdd_HHMMSS>.json
func RunReportFilename(target domain.Target, at time.Time) string {
	return fmt.Sprintf("phineas_%s_%s.json", target.FileStem(), at.Format(timestampLayout))
}

// WriteRunReport escribe el informe JSON de una ejecución en dir y retorna su ruta.
// Nunca sobrescribe: si el nombre ya existe se añade un sufijo _2, _3...
func WriteRunReport(dir string, run *domain.WorkflowRun) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	at := run.EndTime
	if at.IsZero() {
		at = time.Now()
	}

	f, path, err := createExclusive(dir, RunReportFilename(run.Target, at))
	if err != nil {
		return "", err
	}
	if err := encodeAndClose(f, run); err != nil {
		return "", err
	}
	return path, nil
}

// createExclusive crea name en dir sin pisar ficheros existentes.
func createExclusive(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for n := 1; n <= maxNameCollisions; n++ {
		candidate := name
		if n > 1 {
			candidate = fmt.Sprintf("%s_%d%s", base, n, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !os.IsExist(err) {
			return nil, "", fmt.Errorf("failed to create output file: %w", err)
		}
	}
	return nil, "", fmt.Errorf("failed to create output file: %d files named %s already exist", maxNameCollisions, name)
}

// WriteAggregatedJSON escribe un informe agregado en w.
func WriteAggregatedJSON(w io.Writer, report *domain.AggregatedReport, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteAggregatedFile escribe un informe agregado en path.
func WriteAggregatedFile(path string, report *domain.AggregatedReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return writeJSONFile(path, report)
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	return encodeAndClose(f, v)
}

// encodeAndClose escribe v indentado y cierra w; un fallo al cerrar se reporta.
func encodeAndClose(w io.WriteCloser, v any) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// JSONExporter exporta informes agregados como JSON.
type JSONExporter struct{}

// Name implementa ports.ReportExporter.
func (JSONExporter) Name() string { return "json" }

// Export implementa ports.ReportExporter.
func (JSONExporter) Export(w io.Writer, report *domain.AggregatedReport, opts ports.ExportOptions) error {
	return WriteAggregatedJSON(w, report, opts.Pretty)
}
