package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kazaamjt/eikobot/internal/config"
)

var packageInstallEditable bool

var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Manage Eikobot packages",
}

var packageInstallCmd = &cobra.Command{
	Use:   "install [spec|.]",
	Short: "Install a package into the project's package roots",
	Long: `Install fetches a package spec (GH://owner/name or name@version) into
the project's local package cache, or, given ".", installs every package
listed under eiko.toml's [eiko.project] requires.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPackageInstall,
}

var packageReleaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release a package",
}

var packageReleaseGithubCmd = &cobra.Command{
	Use:   "github",
	Short: "Tag and publish the current package as a GitHub release",
	RunE:  runPackageReleaseGithub,
}

func init() {
	rootCmd.AddCommand(packageCmd)
	packageCmd.AddCommand(packageInstallCmd)
	packageCmd.AddCommand(packageReleaseCmd)
	packageReleaseCmd.AddCommand(packageReleaseGithubCmd)

	packageInstallCmd.Flags().BoolVarP(&packageInstallEditable, "editable", "e", false, "link the package from its local path instead of copying it")
}

func runPackageInstall(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}

	if target == "." {
		cfg, err := config.Load("eiko.toml")
		if err != nil {
			return fmt.Errorf("reading eiko.toml: %w", err)
		}
		for _, spec := range cfg.Project.Requires {
			if err := installPackage(spec, false); err != nil {
				return err
			}
		}
		return nil
	}

	spec, err := config.ParsePackageSpec(target)
	if err != nil {
		return err
	}
	return installPackage(spec, packageInstallEditable)
}

// installPackage fetches spec into the project's package roots. The actual
// transport (git clone for GH://, a registry download for name@version) is
// environment-specific infrastructure outside this exercise's scope; this
// records the decision spec.md §6 leaves open and reports it plainly rather
// than silently no-op-ing.
func installPackage(spec config.PackageSpec, editable bool) error {
	mode := "installing"
	if editable {
		mode = "linking (editable)"
	}
	fmt.Printf("%s %s\n", mode, spec)
	return fmt.Errorf("package transport is not configured for this environment: %s", spec)
}

func runPackageReleaseGithub(cmd *cobra.Command, args []string) error {
	return fmt.Errorf("package release github requires a configured GitHub remote and is not available in this environment")
}
