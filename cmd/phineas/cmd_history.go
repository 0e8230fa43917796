// cmd/phineas/cmd_history.go
package main

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"phineas/internal/adapters/output"
	"phineas/internal/core/ports"
	"phineas/internal/core/usecases"
)

var historyFlags struct {
	target   string
	workflow string
	since    time.Duration
	limit    int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse runs saved in the history database",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the summary of a saved run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Remove a run from the history",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-collector reliability across saved runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryStats,
}

func init() {
	f := historyListCmd.Flags()
	f.StringVar(&historyFlags.target, "target", "", "Only runs against this target")
	f.StringVar(&historyFlags.workflow, "workflow", "", "Only runs of this workflow")
	f.DurationVar(&historyFlags.since, "since", 0, "Only runs started within this window (e.g. 72h)")
	f.IntVarP(&historyFlags.limit, "limit", "n", ports.DefaultRunFilter().Limit, "Maximum number of runs")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd, historyStatsCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	store, err := a.requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	filter := ports.RunFilter{
		Target:   historyFlags.target,
		Workflow: historyFlags.workflow,
		Limit:    historyFlags.limit,
	}
	if historyFlags.since > 0 {
		filter.Since = time.Now().Add(-historyFlags.since)
	}

	records, err := store.ListRuns(cmd.Context(), filter)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	data := pterm.TableData{{"ID", "Started", "Target", "Workflow", "OK", "Failed", "Findings"}}
	for _, r := range records {
		data = append(data, []string{
			r.ID,
			r.StartTime.Local().Format("2006-01-02 15:04:05"),
			r.Target,
			r.Workflow,
			fmt.Sprintf("%d", r.Successful),
			fmt.Sprintf("%d", r.Failed),
			fmt.Sprintf("%d", r.Findings),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	store, err := a.requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Target:   %s (%s)\n", run.Target.Value, run.Target.Kind)
	fmt.Fprintf(out, "Workflow: %s\n", run.Workflow)
	fmt.Fprintf(out, "Started:  %s\n\n", run.StartTime.Local().Format(time.RFC3339))
	return output.PrintSummary(out, run, usecases.AggregateRuns(run))
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	store, err := a.requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteRun(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
	return nil
}

func runHistoryStats(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	store, err := a.requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.CollectorStats(cmd.Context())
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	data := pterm.TableData{{"Collector", "Runs", "Failures", "Avg duration"}}
	for _, s := range stats {
		data = append(data, []string{
			s.Collector,
			fmt.Sprintf("%d", s.Runs),
			fmt.Sprintf("%d", s.Failures),
			(time.Duration(s.AvgDurationMS) * time.Millisecond).String(),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}
