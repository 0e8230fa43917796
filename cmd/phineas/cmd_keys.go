// cmd/phineas/cmd_keys.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"phineas/internal/core/ports"
	"phineas/internal/platform/config"
	"phineas/internal/platform/registry"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Show which API keys collectors need and which are configured",
	Args:  cobra.NoArgs,
	RunE:  runKeys,
}

func runKeys(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	creds := ports.Credentials(a.cfg.Credentials())

	needed := 0
	for _, meta := range registry.Global().GetAllMetadata() {
		if !meta.RequiresAuth {
			continue
		}
		needed++
		state := "missing"
		if _, ok := creds.Get(meta.CredentialKey); ok {
			state = "configured"
		}
		fmt.Fprintf(out, "%-16s %-16s %s (env %s%s_API_KEY)\n",
			meta.Name, meta.CredentialKey, state, config.EnvPrefix, envName(meta.CredentialKey))
	}
	if needed == 0 {
		fmt.Fprintln(out, "No registered collector needs an API key.")
	}

	if services := a.cfg.ConfiguredServices(); len(services) > 0 {
		fmt.Fprintf(out, "\nConfigured services: %v\n", services)
	}
	return nil
}
