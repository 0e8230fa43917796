// cmd/phineas/cmd_workflows.go
package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"phineas/internal/adapters/workflows"
	"phineas/internal/platform/registry"
)

var workflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "List available workflows",
	Args:  cobra.NoArgs,
	RunE:  runWorkflowsList,
}

var workflowsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a workflow definition as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflowsShow,
}

func init() {
	workflowsCmd.AddCommand(workflowsShowCmd)
}

func runWorkflowsList(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	catalog, err := workflows.NewCatalog(a.cfg.WorkflowsDir, a.logger)
	if err != nil {
		return err
	}

	data := pterm.TableData{{"Name", "Target", "Steps", "Source", "Description"}}
	for _, def := range catalog.List() {
		data = append(data, []string{
			def.Name,
			def.Target,
			strings.Join(markUnregistered(def.CollectorNames()), ", "),
			def.Source,
			def.Description,
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}

// markUnregistered señala los pasos cuyo colector no está registrado;
// el executor los registrará como fallos unknown_collector.
func markUnregistered(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = name
		if !registry.Global().IsRegistered(name) {
			out[i] += " (unregistered)"
		}
	}
	return out
}

func runWorkflowsShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	catalog, err := workflows.NewCatalog(a.cfg.WorkflowsDir, a.logger)
	if err != nil {
		return err
	}
	def, err := catalog.Load(args[0])
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return err
	}
	return enc.Close()
}
