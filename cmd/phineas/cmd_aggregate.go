// cmd/phineas/cmd_aggregate.go
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"phineas/internal/adapters/output"
	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/core/usecases"
)

var aggregateFlags struct {
	format        string
	kind          string
	minConfidence int
	out           string
	summary       bool
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <report.json|dir|glob>...",
	Short: "Merge saved run reports into one deduplicated report",
	Long: "Loads run reports (files, directories or glob patterns), deduplicates their\n" +
		"findings and scores each value by how many distinct collectors reported it.",
	Args: cobra.MinimumNArgs(1),
	RunE: runAggregate,
}

func init() {
	f := aggregateCmd.Flags()
	f.StringVarP(&aggregateFlags.format, "format", "f", "json", "Output format (json, csv)")
	f.StringVarP(&aggregateFlags.kind, "kind", "k", string(domain.KindEmails), "Finding kind for tabular formats")
	f.IntVar(&aggregateFlags.minConfidence, "min-confidence", 0, "Drop scalar findings below this confidence (csv)")
	f.StringVar(&aggregateFlags.out, "output", "", "Write to this file instead of stdout")
	f.BoolVar(&aggregateFlags.summary, "summary", false, "Print totals and highlights instead of the report")
}

func runAggregate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	report, runs, err := usecases.NewMergeService(a.logger).Merge(args...)
	if err != nil {
		return err
	}

	if aggregateFlags.summary {
		fmt.Fprintf(cmd.OutOrStdout(), "Aggregated %d run(s)\n", len(runs))
		fmt.Fprint(cmd.OutOrStdout(), output.RenderReport(report))
		return nil
	}

	exporter, ok := output.Exporters()[aggregateFlags.format]
	if !ok {
		return fmt.Errorf("%w: %q (use json or csv)", domain.ErrUnsupportedFormat, aggregateFlags.format)
	}

	opts := ports.DefaultExportOptions()
	opts.MinConfidence = aggregateFlags.minConfidence
	if aggregateFlags.kind != "" {
		kind, ok := domain.ParseKind(aggregateFlags.kind)
		if !ok {
			return fmt.Errorf("%w: unknown finding kind %q", domain.ErrInvalidConfig, aggregateFlags.kind)
		}
		opts.Kind = kind
	}

	w, closeFn, err := openOutput(cmd.OutOrStdout(), aggregateFlags.out)
	if err != nil {
		return err
	}
	if err := exporter.Export(w, report, opts); err != nil {
		closeFn()
		return fmt.Errorf("%w: %v", domain.ErrExportFailed, err)
	}
	return closeFn()
}

// openOutput devuelve stdout o el fichero indicado (creando su directorio).
func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidOutputPath, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidOutputPath, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidOutputPath, err)
	}
	return f, f.Close, nil
}
