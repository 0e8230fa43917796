// cmd/phineas/cmd_collectors.go
package main

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"phineas/internal/core/domain"
	"phineas/internal/core/ports"
	"phineas/internal/platform/registry"
)

var collectorsCmd = &cobra.Command{
	Use:     "collectors",
	Aliases: []string{"plugins"},
	Short:   "List registered collectors and whether they can run here",
	Args:    cobra.NoArgs,
	RunE:    runCollectors,
}

var collectorsFlags struct {
	target string
}

func init() {
	collectorsCmd.Flags().StringVarP(&collectorsFlags.target, "target", "t", "",
		"Only list collectors that accept this target (email, domain or username)")
}

func runCollectors(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	var kind domain.TargetKind
	if collectorsFlags.target != "" {
		target, err := domain.NewTarget(collectorsFlags.target)
		if err != nil {
			return err
		}
		kind = target.Kind
	}

	creds := ports.Credentials(a.cfg.Credentials())
	data := pterm.TableData{{"Name", "Type", "Targets", "Produces", "Ready", "Description"}}
	for _, meta := range registry.Global().GetAllMetadata() {
		if kind != "" && !meta.Supports(kind) {
			continue
		}
		data = append(data, []string{
			meta.Name,
			meta.Type.String(),
			joinKinds(meta.TargetKinds),
			joinKinds(meta.Produces),
			readiness(meta, creds),
			meta.Description,
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}

// readiness indica si falta la clave de API o el binario externo.
func readiness(meta ports.CollectorMetadata, creds ports.Credentials) string {
	if meta.RequiresAuth {
		if _, ok := creds.Get(meta.CredentialKey); !ok {
			return "missing key " + meta.CredentialKey
		}
	}
	if meta.Binary != "" {
		if _, err := exec.LookPath(meta.Binary); err != nil {
			return "missing " + meta.Binary
		}
	}
	return "yes"
}

func joinKinds[T ~string](kinds []T) string {
	if len(kinds) == 0 {
		return "any"
	}
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

