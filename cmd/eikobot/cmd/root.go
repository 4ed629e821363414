// Package cmd implements the eikobot CLI, grounded on the teacher's
// cmd/dwscript/cmd package: one file per subcommand, a shared rootCmd wired
// up in init(), cobra's RunE signature for every command that can fail.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "eikobot",
	Short: "Desired-state infrastructure orchestrator",
	Long: `Eikobot compiles Eiko (.eiko) source into a resource graph and
deploys it against real infrastructure through host-language plugins.

Workflow: write .eiko modules declaring resources, compile them into a
task graph, then deploy that graph with bounded concurrency against
whatever handlers your plugins register.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}
