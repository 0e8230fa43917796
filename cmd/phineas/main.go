// cmd/phineas/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phineas/internal/platform/config"

	// Import collectors for auto-registration via init()
	_ "phineas/internal/collectors/haveibeenpwned"
	_ "phineas/internal/collectors/holehe"
	_ "phineas/internal/collectors/sherlock"
	_ "phineas/internal/collectors/sublist3r"
	_ "phineas/internal/collectors/theharvester"
	_ "phineas/internal/collectors/wayback"
)

var (
	// Rellenables con -ldflags en build
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "phineas",
	Short: "OSINT collection workflows over emails, domains and usernames",
	Long: "PHINEAS runs workflows of OSINT collectors against a target, aggregates\n" +
		"their findings with per-source confidence and keeps a history of runs.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(collectorsCmd)
	rootCmd.AddCommand(workflowsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}
