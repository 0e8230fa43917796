// internal/adapters/output/table.go
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"phineas/internal/core/domain"
)

// RenderSummary construye el resumen legible de una ejecución: estado por
// colector, totales por tipo y highlights.
func RenderSummary(run *domain.WorkflowRun, report *domain.AggregatedReport) (string, error) {
	out := fmt.Sprintf("Target: %s  Workflow: %s  Duration: %.1fs\n\n",
		run.Target.Value, run.Workflow, run.Duration().Seconds())

	steps := pterm.TableData{{"Collector", "Status", "Duration", "Error"}}
	for _, sr := range run.Results {
		steps = append(steps, []string{
			sr.Collector,
			string(sr.Result.Status),
			fmt.Sprintf("%.1fs", sr.Result.Duration().Seconds()),
			sr.Result.Error,
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(steps).Srender()
	if err != nil {
		return "", fmt.Errorf("failed to render steps table: %w", err)
	}
	out += table + "\n"

	if report != nil {
		out += "\n" + renderTotals(report)
	}
	return out, nil
}

// RenderReport construye el resumen de un informe agregado (sin ejecución).
func RenderReport(report *domain.AggregatedReport) string {
	return renderTotals(report)
}

func renderTotals(report *domain.AggregatedReport) string {
	totals := pterm.TableData{{"Finding", "Total"}}
	for _, kind := range domain.AllKinds() {
		if n := report.Total(kind); n > 0 {
			totals = append(totals, []string{kind.String(), strconv.Itoa(n)})
		}
	}

	out := ""
	if len(totals) > 1 {
		if table, err := pterm.DefaultTable.WithHasHeader().WithData(totals).Srender(); err == nil {
			out += table + "\n"
		}
	} else {
		out += "No findings.\n"
	}

	if line := confidenceLine(report.Confidence); line != "" {
		out += "\n" + line + "\n"
	}

	if len(report.Highlights) > 0 {
		out += "\nHighlights:\n"
		for _, h := range report.Highlights {
			out += "  • " + h + "\n"
		}
	}
	return out
}

// confidenceLine cuenta las claves por nivel de confianza, del más alto al más bajo.
func confidenceLine(confidence map[string]int) string {
	if len(confidence) == 0 {
		return ""
	}
	counts := make(map[string]int, 3)
	for _, score := range confidence {
		counts[domain.GetConfidenceLabel(score)]++
	}

	var parts []string
	for _, level := range []int{domain.ConfidenceCorroborated, domain.ConfidenceConfirmed, domain.ConfidenceSingleSource} {
		label := domain.GetConfidenceLabel(level)
		if n := counts[label]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	return "Confidence: " + strings.Join(parts, ", ")
}

// PrintSummary escribe el resumen de una ejecución en w.
func PrintSummary(w io.Writer, run *domain.WorkflowRun, report *domain.AggregatedReport) error {
	s, err := RenderSummary(run, report)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}
