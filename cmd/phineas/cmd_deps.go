// cmd/phineas/cmd_deps.go
package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"phineas/internal/core/domain"
	"phineas/internal/platform/installer"
	"phineas/internal/platform/registry"
)

var depsFlags struct {
	install bool
	force   bool
}

var depsCmd = &cobra.Command{
	Use:   "deps [collector...]",
	Short: "Check or install the external tools used by CLI collectors",
	Long: "Lists the external tools each CLI collector shells out to and whether they are in PATH.\n" +
		"With --install, missing tools are installed with pipx (or pip --user when pipx is absent).",
	RunE: runDeps,
}

func init() {
	f := depsCmd.Flags()
	f.BoolVar(&depsFlags.install, "install", false, "Install missing tools")
	f.BoolVar(&depsFlags.force, "force", false, "Reinstall tools even when present (implies --install)")
}

func runDeps(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	tools, err := externalTools(args)
	if err != nil {
		return err
	}
	if len(tools) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No registered collector needs an external tool.")
		return nil
	}

	ctx, cancel := rootContextWithSignals(cmd.Context())
	defer cancel()

	inst := installer.New(a.logger)
	var results []installer.Result
	if depsFlags.install || depsFlags.force {
		results = inst.InstallAll(ctx, tools, depsFlags.force)
	} else {
		results = inst.CheckAll(ctx, tools)
	}

	data := pterm.TableData{{"Collector", "Binary", "Status", "Version", "Detail"}}
	failed := 0
	for _, res := range results {
		detail := res.Path
		switch {
		case res.Error != nil:
			detail = res.Error.Error()
			failed++
		case res.Status == installer.StatusMissing:
			detail = installer.Hint(res.Tool)
		}
		data = append(data, []string{res.Tool.Collector, res.Tool.Binary, string(res.Status), res.Version, detail})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)

	if failed > 0 {
		return fmt.Errorf("%d tool(s) could not be installed", failed)
	}
	return nil
}

// externalTools construye la lista de herramientas a partir de los metadatos
// de los colectores registrados, opcionalmente filtrada por nombre.
func externalTools(names []string) ([]installer.Tool, error) {
	reg := registry.Global()

	if len(names) == 0 {
		names = reg.List()
	}
	sort.Strings(names)

	var tools []installer.Tool
	for _, name := range names {
		meta, ok := reg.GetMetadata(strings.ToLower(name))
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCollector, name)
		}
		if meta.Binary == "" {
			continue
		}
		tools = append(tools, installer.Tool{
			Collector: meta.Name,
			Binary:    meta.Binary,
			Package:   meta.Package,
		})
	}
	return tools, nil
}
