// internal/adapters/output/streaming.go
package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/logx"
)

// StreamingWriter escribe el resultado de cada paso en disco en cuanto termina,
// de modo que una ejecución interrumpida conserva lo ya recolectado.
// Implementa ports.Notifier.
type StreamingWriter struct {
	baseDir   string
	stem      string
	timestamp string
	logger    logx.Logger
}

// NewStreamingWriter crea un nuevo writer de streaming para un target.
func NewStreamingWriter(baseDir string, target domain.Target, logger logx.Logger) *StreamingWriter {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &StreamingWriter{
		baseDir:   baseDir,
		stem:      target.FileStem(),
		timestamp: time.Now().Format(timestampLayout),
		logger:    logger.With("component", "streaming-writer"),
	}
}

// Notify escribe un fichero parcial por cada step.completed.
func (w *StreamingWriter) Notify(ctx context.Context, event ports.Event) error {
	if event.Type != ports.EventTypeStepCompleted {
		return nil
	}
	progress, ok := event.Data.(ports.ProgressEvent)
	if !ok {
		return nil
	}
	_, err := w.WritePartial(progress.Collector, progress.Result)
	return err
}

// WritePartial escribe el resultado de un colector.
// Formato: phineas_{stem}_{timestamp}_partial_{collector}.json
func (w *StreamingWriter) WritePartial(collector string, result domain.CollectorResult) (string, error) {
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.baseDir, w.GeneratePartialFilename(collector))
	if err := writeJSONFile(path, result); err != nil {
		return "", fmt.Errorf("failed to write partial result: %w", err)
	}

	w.logger.Debug("partial result written", "collector", collector, "status", string(result.Status), "file", path)
	return path, nil
}

// GeneratePartialFilename genera el nombre de archivo para un resultado parcial.
func (w *StreamingWriter) GeneratePartialFilename(collector string) string {
	return fmt.Sprintf("phineas_%s_%s_partial_%s.json", w.stem, w.timestamp, collector)
}

// GetPattern retorna el patrón glob de los ficheros parciales de esta ejecución.
func (w *StreamingWriter) GetPattern() string {
	return fmt.Sprintf("phineas_%s_%s_partial_*.json", w.stem, w.timestamp)
}

// Cleanup elimina los ficheros parciales de esta ejecución una vez escrito
// el informe final.
func (w *StreamingWriter) Cleanup() error {
	matches, err := filepath.Glob(filepath.Join(w.baseDir, w.GetPattern()))
	if err != nil {
		return fmt.Errorf("failed to list partial files: %w", err)
	}

	var errs []error
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to remove %d partial files: %w", len(errs), errs[0])
	}
	w.logger.Debug("partial results removed", "files", len(matches))
	return nil
}

// Close implementa ports.Notifier.
func (w *StreamingWriter) Close() error {
	return nil
}
