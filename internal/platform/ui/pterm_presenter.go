// internal/platform/ui/pterm_presenter.go
package ui

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// PTermPresenter implementa Presenter usando la biblioteca pterm.
// Los pasos pueden terminar en cualquier orden; cada evento imprime su línea.
type PTermPresenter struct {
	mu sync.Mutex

	steps        map[int]*StepProgress
	info         RunInfo
	runStartTime time.Time
}

// NewPTermPresenter crea una nueva instancia del presenter con pterm
func NewPTermPresenter() *PTermPresenter {
	return &PTermPresenter{
		steps: make(map[int]*StepProgress),
	}
}

// Start muestra el banner y la configuración de la ejecución
func (p *PTermPresenter) Start(info RunInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.info = info
	p.runStartTime = time.Now()
	for i, name := range info.Steps {
		p.steps[i] = &StepProgress{Index: i, Collector: name, Status: StatusPending}
	}

	StylePrimary.Println(GetBanner(pterm.GetTerminalWidth()))

	infoPanel := pterm.DefaultBox.
		WithTitle("Run Configuration").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4)

	content := fmt.Sprintf("%s Target: %s (%s)\n", IconTarget, StylePrimary.Sprint(info.Target), info.TargetKind)
	content += fmt.Sprintf("%s Workflow: %s\n", IconWorkflow, StyleWarning.Sprint(info.Workflow))
	content += fmt.Sprintf("%s Concurrency: %d\n", IconWorkers, info.Concurrency)
	if info.TimeoutSeconds > 0 {
		content += fmt.Sprintf("%s Step timeout: %ds\n", IconTime, info.TimeoutSeconds)
	}
	content += fmt.Sprintf("   Streaming: %s\n", boolToString(info.StreamingOn))
	content += fmt.Sprintf("   Steps: %s", strings.Join(info.Steps, ", "))

	infoPanel.Println(content)
	pterm.Println(StyleSecondary.Sprint(SeparatorHeavy))
}

// StartStep notifica el inicio de un paso
func (p *PTermPresenter) StartStep(index int, collector string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sp := p.step(index, collector)
	if sp.Status != StatusPending {
		return
	}
	sp.Status = StatusRunning
	sp.StartTime = time.Now()

	p.renderStepLine(sp, "")
}

// FinishStep notifica la finalización de un paso
func (p *PTermPresenter) FinishStep(step StepInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sp := p.step(step.Index, step.Collector)
	sp.Status = step.Status
	sp.Duration = step.Duration
	sp.Findings = step.Findings

	progress := ""
	if step.Total > 0 {
		progress = fmt.Sprintf("[%d/%d]", step.Completed, step.Total)
	}
	p.renderStepLine(sp, progress)
	if step.Error != "" && step.Status != StatusSuccess {
		StyleSecondary.Println("      " + step.Error)
	}
}

// Info muestra un mensaje informativo
func (p *PTermPresenter) Info(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Info.Println(msg)
}

// Warning muestra una advertencia
func (p *PTermPresenter) Warning(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Warning.Println(msg)
}

// Error muestra un error
func (p *PTermPresenter) Error(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Error.Println(msg)
}

// Finish finaliza la presentación con estadísticas finales
func (p *PTermPresenter) Finish(stats RunStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pterm.Println(StyleSecondary.Sprint(SeparatorHeavy))

	statsPanel := pterm.DefaultBox.
		WithTitle("Run Statistics").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4)

	content := fmt.Sprintf("%s Total Duration: %s\n", IconTime, StyleSuccess.Sprint(formatDuration(stats.TotalDuration)))
	content += fmt.Sprintf("   Steps Succeeded: %s", StyleSuccess.Sprint(stats.Successful))
	if stats.Failed > 0 {
		content += fmt.Sprintf("\n   Steps Failed: %s", StyleError.Sprint(stats.Failed))
	}
	if stats.ReportPath != "" {
		content += fmt.Sprintf("\n%s Report: %s", IconReport, stats.ReportPath)
	}
	statsPanel.Println(content)

	kinds := make([]string, 0, len(stats.FindingsByKind))
	for k, n := range stats.FindingsByKind {
		if n > 0 {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) > 0 {
		sort.Strings(kinds)

		tableData := pterm.TableData{{"Kind", "Count"}}
		for _, k := range kinds {
			tableData = append(tableData, []string{k, fmt.Sprintf("%d", stats.FindingsByKind[k])})
		}
		pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(tableData).Render()
	}

	for _, h := range stats.Highlights {
		StyleWarning.Println("  • " + h)
	}
	pterm.Println()
}

// Close limpia recursos del presenter
func (p *PTermPresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.steps = make(map[int]*StepProgress)
	return nil
}

// Snapshot retorna una copia del estado de los pasos en orden de declaración.
func (p *PTermPresenter) Snapshot() []StepProgress {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]StepProgress, 0, len(p.steps))
	for _, sp := range p.steps {
		out = append(out, *sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// step obtiene (o crea) el tracking de un paso; requiere p.mu.
func (p *PTermPresenter) step(index int, collector string) *StepProgress {
	sp, ok := p.steps[index]
	if !ok {
		sp = &StepProgress{Index: index, Collector: collector, Status: StatusPending}
		p.steps[index] = sp
	}
	return sp
}

// renderStepLine renderiza una línea con el estado de un paso
func (p *PTermPresenter) renderStepLine(sp *StepProgress, progress string) {
	line := fmt.Sprintf("  %s %s", sp.Status.Symbol(), sp.Collector)

	switch sp.Status {
	case StatusRunning:
		line += " (running...)"
	case StatusPending:
		line += " (pending...)"
	default:
		line += fmt.Sprintf(" %s", sp.Status)
		if sp.Duration > 0 {
			line += fmt.Sprintf(" (%s)", formatDuration(sp.Duration))
		}
		if sp.Findings > 0 {
			line += fmt.Sprintf(" %s %s", IconFindings, plural(sp.Findings, "finding"))
		}
	}
	if progress != "" {
		line += " " + progress
	}

	sp.Status.Style().Println(line)
}
