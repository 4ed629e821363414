package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/kazaamjt/eikobot/internal/config"
	"github.com/kazaamjt/eikobot/internal/deploy"
	"github.com/kazaamjt/eikobot/internal/diag"
	"github.com/kazaamjt/eikobot/internal/plugin"
)

var (
	deployFile    string
	deployDryRun  bool
	deployDebug   bool
	deployWorkers int
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Compile and deploy an Eiko module",
	Long: `Deploy compiles the entrypoint the same way "compile" does, then
hands the resulting task graph to the deployer, which drives every task
through its CRUD state machine with bounded concurrency.`,
	RunE: runDeploy,
}

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().StringVarP(&deployFile, "file", "f", "", "entrypoint .eiko file (required)")
	deployCmd.Flags().BoolVar(&deployDryRun, "dry-run", false, "only run read(); report changes without applying them")
	deployCmd.Flags().BoolVar(&deployDebug, "debug", false, "enable debug-level deploy logging")
	deployCmd.Flags().IntVar(&deployWorkers, "parallelism", 4, "maximum number of tasks running concurrently")
	deployCmd.MarkFlagRequired("file")
}

func runDeploy(cmd *cobra.Command, args []string) error {
	registry := plugin.NewRegistry()
	graph, _, errs := compileModule(deployFile, registry)
	if len(errs) > 0 {
		printDiagnostics(errs, false)
		return fmt.Errorf("compilation failed with %d error(s)", len(errs))
	}

	// spec.md §6: `[eiko.project] dry_run`/`ssh_timeout` from an eiko.toml in
	// the working directory apply to the deploy (compile does not read the
	// file), but an explicit --dry-run flag always wins over the file — a
	// human override at the command line shouldn't be silently undone by a
	// checked-in manifest.
	dryRun := deployDryRun
	var cmdTimeout time.Duration
	if _, err := os.Stat("eiko.toml"); err == nil {
		cfg, err := config.Load("eiko.toml")
		if err != nil {
			return fmt.Errorf("reading eiko.toml: %w", err)
		}
		if !cmd.Flags().Changed("dry-run") {
			dryRun = cfg.Project.DryRun
		}
		if cfg.Project.SSHTimeout > 0 {
			cmdTimeout = time.Duration(cfg.Project.SSHTimeout) * time.Second
		}
	}

	d := deploy.New(graph, registry, deployWorkers, dryRun)
	d.CommandTimeout = cmdTimeout
	if deployDebug {
		d.Logger.SetLevel(diag.LevelDebug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	states, _ := d.Run(ctx)

	failed := 0
	for _, st := range states {
		fmt.Printf("%-40s %s\n", st.Task.Index, st.Status)
		if dryRun {
			names := make([]string, 0, len(st.Changes))
			for name := range st.Changes {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  ~ %s = %s\n", name, st.Changes[name])
			}
		}
		if st.Status == deploy.Failed {
			failed++
			if st.Err != nil {
				fmt.Printf("  %s\n", st.Err)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("deploy finished with %d failed task(s)", failed)
	}
	return nil
}
