// internal/core/usecases/merge_service.go
package usecases

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"phineas/internal/core/domain"
	"phineas/internal/platform/logx"
)

// RunReportPattern es el patrón de nombre de los informes de ejecución persistidos.
const RunReportPattern = "phineas_*.json"

// partialResultPattern nombra los ficheros parciales de --stream
// (phineas_<stem>_<YYYYmmdd_HHMMSS>_partial_<collector>.json), que no son informes.
const partialResultPattern = "phineas_*_????????_??????_partial_*.json"

// MergeService carga informes de ejecución persistidos (phineas_*.json) y los
// agrega en un único informe, p. ej. para consolidar varios targets.
type MergeService struct {
	logger logx.Logger
}

// NewMergeService crea una nueva instancia del servicio de merge.
func NewMergeService(logger logx.Logger) *MergeService {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &MergeService{
		logger: logger.With("component", "merge-service"),
	}
}

func isPartialResult(path string) bool {
	matched, _ := filepath.Match(partialResultPattern, filepath.Base(path))
	return matched
}

// ExpandPaths resuelve directorios (todos sus phineas_*.json), patrones glob y
// ficheros a una lista ordenada y sin duplicados. Los resultados parciales de
// streaming se excluyen de directorios y globs.
func (m *MergeService) ExpandPaths(inputs []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, in := range inputs {
		if info, err := os.Stat(in); err == nil && info.IsDir() {
			matches, err := filepath.Glob(filepath.Join(in, RunReportPattern))
			if err != nil {
				return nil, fmt.Errorf("failed to glob directory %s: %w", in, err)
			}
			for _, f := range matches {
				if !isPartialResult(f) {
					add(f)
				}
			}
			continue
		}

		if strings.ContainsAny(in, "*?[") {
			matches, err := filepath.Glob(in)
			if err != nil {
				return nil, fmt.Errorf("failed to glob pattern %s: %w", in, err)
			}
			for _, f := range matches {
				if !isPartialResult(f) {
					add(f)
				}
			}
			continue
		}

		add(in)
	}

	sort.Strings(files)
	return files, nil
}

// LoadRuns carga los informes indicados. Los ficheros ilegibles se omiten con
// un warning; si no se carga ninguno se devuelve error.
func (m *MergeService) LoadRuns(inputs ...string) ([]*domain.WorkflowRun, error) {
	files, err := m.ExpandPaths(inputs)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no run reports found in %v", inputs)
	}

	m.logger.Info("loading run reports", "files", len(files))

	runs := make([]*domain.WorkflowRun, 0, len(files))
	for _, file := range files {
		run, err := m.loadRunFile(file)
		if err != nil {
			m.logger.Warn("failed to load run report", "file", file, "error", err.Error())
			continue
		}
		runs = append(runs, run)
	}

	if len(runs) == 0 {
		return nil, fmt.Errorf("none of the %d run reports could be loaded", len(files))
	}

	m.logger.Info("run reports loaded", "runs", len(runs))
	return runs, nil
}

// loadRunFile carga un informe individual.
func (m *MergeService) loadRunFile(path string) (*domain.WorkflowRun, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var run domain.WorkflowRun
	if err := json.NewDecoder(f).Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	m.logger.Debug("run report loaded",
		"target", run.Target.Value,
		"plugins", len(run.Results),
	)
	return &run, nil
}

// Merge carga los informes y devuelve su agregación conjunta.
func (m *MergeService) Merge(inputs ...string) (*domain.AggregatedReport, []*domain.WorkflowRun, error) {
	runs, err := m.LoadRuns(inputs...)
	if err != nil {
		return nil, nil, err
	}

	report := AggregateRuns(runs...)
	m.logger.Info("runs aggregated",
		"runs", len(runs),
		"sources", len(report.Sources),
	)
	return report, runs, nil
}
