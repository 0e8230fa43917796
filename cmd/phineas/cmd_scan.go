// cmd/phineas/cmd_scan.go
package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"phineas/internal/adapters/output"
	"phineas/internal/adapters/workflows"
	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/core/usecases"
	"phineas/internal/platform/registry"
	"phineas/internal/platform/resilience"
	"phineas/internal/platform/ui"
)

var scanFlags struct {
	workflow string
	stream   bool
}

var scanCmd = &cobra.Command{
	Use:   "scan <target>...",
	Short: "Run a workflow against emails, domains or usernames",
	Long: "Classifies each target, resolves the workflow (\"auto\" picks one by target kind),\n" +
		"runs its collectors and writes one JSON report per target to the output directory.\n" +
		"With several targets an aggregated report of all runs is written as well.",
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	f := scanCmd.Flags()
	f.StringVarP(&scanFlags.workflow, "workflow", "W", workflows.AutoWorkflow, "Workflow name or \"auto\"")
	f.BoolVar(&scanFlags.stream, "stream", false, "Write a partial report file as each collector finishes")
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer registry.Global().Close()

	targets := make([]domain.Target, 0, len(args))
	for _, raw := range args {
		target, err := domain.NewTarget(raw)
		if err != nil {
			return err
		}
		targets = append(targets, target)
	}

	catalog, err := workflows.NewCatalog(a.cfg.WorkflowsDir, a.logger)
	if err != nil {
		return err
	}
	defs := make([]workflows.Definition, len(targets))
	for i, target := range targets {
		if defs[i], err = catalog.Resolve(scanFlags.workflow, target); err != nil {
			return err
		}
	}

	mode := ui.UIModePretty
	if a.cfg.Quiet {
		mode = ui.UIModeQuiet
	}
	presenter := ui.NewPresenter(mode)
	defer presenter.Close()

	ctx, cancel := rootContextWithSignals(cmd.Context())
	defer cancel()

	// el resolver se comparte para que los circuit breakers abarquen todos los targets
	resolver := a.resolver()
	combined := usecases.NewFindingAggregator()

	for i, target := range targets {
		if ctx.Err() != nil {
			presenter.Warning(fmt.Sprintf("scan interrupted, skipping %d remaining target(s)", len(targets)-i))
			break
		}

		path, err := scanTarget(ctx, a, resolver, presenter, defs[i], target, combined)
		if err != nil {
			return err
		}
		if a.cfg.Quiet {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
	}

	for _, oc := range openCircuits(resolver, defs) {
		presenter.Warning(fmt.Sprintf("circuit open for %s since %s (%d consecutive failures)",
			oc.collector, oc.stats.OpenedAt.Format("15:04:05"), oc.stats.FailureCount))
	}

	if len(targets) > 1 {
		path := filepath.Join(a.cfg.OutputDir, fmt.Sprintf("aggregated_%s.json", time.Now().Format("20060102_150405")))
		report := combined.Snapshot()
		if err := output.WriteAggregatedFile(path, report); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrExportFailed, err)
		}
		if a.cfg.Quiet {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		} else {
			presenter.Info("aggregated report: " + path)
			fmt.Fprint(cmd.OutOrStdout(), output.RenderReport(report))
		}
	}
	return nil
}

// scanTarget ejecuta un workflow sobre un target, escribe su informe y lo
// guarda en el historial. Devuelve la ruta del informe.
func scanTarget(ctx context.Context, a *app, resolver ports.CollectorResolver,
	presenter ui.Presenter, def workflows.Definition, target domain.Target, combined *usecases.FindingAggregator) (string, error) {

	observers := []ports.Notifier{
		ui.NewProgressObserver(presenter, ui.RunInfo{
			Steps:          def.CollectorNames(),
			Concurrency:    a.cfg.Workers,
			TimeoutSeconds: a.cfg.TimeoutS,
			StreamingOn:    scanFlags.stream,
		}),
	}
	var streaming *output.StreamingWriter
	if scanFlags.stream {
		streaming = output.NewStreamingWriter(a.cfg.OutputDir, target, a.logger)
		observers = append(observers, streaming)
	}

	executor := usecases.NewExecutor(usecases.ExecutorOptions{
		Resolver:       resolver,
		Logger:         a.logger,
		Observers:      observers,
		MaxConcurrency: a.cfg.Workers,
		DefaultTimeout: a.cfg.Timeout(),
		GlobalConfig:   a.cfg.GlobalConfig(),
		Credentials:    ports.Credentials(a.cfg.Credentials()),
		Strict:         a.cfg.Strict,
	})

	run, err := executor.ExecuteInto(ctx, def.Workflow, target, combined)
	if err != nil {
		return "", err
	}
	if ctx.Err() != nil {
		presenter.Warning("scan interrupted, writing partial results")
	}

	path, err := output.WriteRunReport(a.cfg.OutputDir, run)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExportFailed, err)
	}
	if streaming != nil {
		if err := streaming.Cleanup(); err != nil {
			presenter.Warning(fmt.Sprintf("partial results not removed: %v", err))
		}
	}

	if err := saveHistory(context.WithoutCancel(ctx), a, run); err != nil {
		presenter.Warning(fmt.Sprintf("run not saved to history: %v", err))
	}

	presenter.Finish(ui.RunStats{
		TotalDuration:  run.Duration(),
		Successful:     run.Summary.Successful,
		Failed:         run.Summary.Failed,
		FindingsByKind: run.Summary.Counts,
		Highlights:     run.Summary.Highlights,
		ReportPath:     path,
	})

	a.logger.Info("scan finished",
		"run_id", run.ID,
		"target", target.Value,
		"report", path,
		"successful", run.Summary.Successful,
		"failed", run.Summary.Failed,
	)
	return path, nil
}

type openCircuit struct {
	collector string
	stats     resilience.CircuitBreakerStats
}

// openCircuits lista los colectores de los workflows cuyo breaker quedó abierto.
func openCircuits(resolver *resilience.Resolver, defs []workflows.Definition) []openCircuit {
	seen := make(map[string]bool)
	var open []openCircuit
	for _, def := range defs {
		for _, name := range def.CollectorNames() {
			if seen[name] {
				continue
			}
			seen[name] = true
			cb := resolver.Breaker(name)
			if cb == nil {
				continue
			}
			if stats := cb.Stats(); stats.State == resilience.StateOpen {
				open = append(open, openCircuit{collector: name, stats: stats})
			}
		}
	}
	return open
}

func saveHistory(ctx context.Context, a *app, run *domain.WorkflowRun) error {
	store, err := a.history()
	if err != nil || store == nil {
		return err
	}
	defer store.Close()
	return store.SaveRun(ctx, run)
}
