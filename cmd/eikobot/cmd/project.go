package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage an Eikobot project",
}

var projectInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a new eiko.toml in the current directory",
	RunE:  runProjectInit,
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectInitCmd)
}

var defaultEikoToml = `[eiko]
version = "` + Version + `"

[eiko.project]
dry_run = false
requires = []
ssh_timeout = 30
`

func runProjectInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat("eiko.toml"); err == nil {
		return fmt.Errorf("eiko.toml already exists in this directory")
	}
	if err := os.WriteFile("eiko.toml", []byte(defaultEikoToml), 0o644); err != nil {
		return fmt.Errorf("writing eiko.toml: %w", err)
	}
	fmt.Println("Wrote eiko.toml")
	return nil
}
