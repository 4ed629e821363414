// Package config parses spec.md §6's project configuration file, eiko.toml.
// Grounded on the teacher's go.mod, which already carries BurntSushi/toml —
// no file in the teacher itself parses TOML (DWScript has no project
// manifest), so this package is new, but the dependency choice follows
// directly from what the teacher's own stack already commits to.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Project is spec.md §6's `[eiko.project]` table.
type Project struct {
	DryRun     bool          `toml:"dry_run"`
	Requires   []PackageSpec `toml:"requires"`
	SSHTimeout int           `toml:"ssh_timeout"`
}

// Config is the full decoded eiko.toml.
type Config struct {
	Eiko struct {
		Version string `toml:"version"`
	}
	Project Project
}

// Load reads and decodes path as an eiko.toml project manifest.
func Load(path string) (*Config, error) {
	var raw struct {
		Eiko struct {
			Version string `toml:"version"`
			Project struct {
				DryRun     bool     `toml:"dry_run"`
				Requires   []string `toml:"requires"`
				SSHTimeout int      `toml:"ssh_timeout"`
			} `toml:"project"`
		} `toml:"eiko"`
	}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := &Config{}
	cfg.Eiko.Version = raw.Eiko.Version
	cfg.Project.DryRun = raw.Eiko.Project.DryRun
	cfg.Project.SSHTimeout = raw.Eiko.Project.SSHTimeout
	for _, r := range raw.Eiko.Project.Requires {
		spec, err := ParsePackageSpec(r)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: requires entry %q: %w", path, r, err)
		}
		cfg.Project.Requires = append(cfg.Project.Requires, spec)
	}
	return cfg, nil
}

// PackageSpec is one entry of `[eiko.project] requires`, spec.md §6: "Package
// specs accept GH://owner/name and name@version forms."
type PackageSpec struct {
	// Source is "github" or "registry".
	Source string
	Owner  string // only set for Source == "github"
	Name   string
	// Version is the pinned version for a registry spec; empty (latest) or a
	// branch/ref for a github spec.
	Version string
}

func (p PackageSpec) String() string {
	if p.Source == "github" {
		return fmt.Sprintf("GH://%s/%s", p.Owner, p.Name)
	}
	if p.Version == "" {
		return p.Name
	}
	return fmt.Sprintf("%s@%s", p.Name, p.Version)
}

// ParsePackageSpec parses one of spec.md §6's two accepted forms.
func ParsePackageSpec(s string) (PackageSpec, error) {
	if rest, ok := strings.CutPrefix(s, "GH://"); ok {
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return PackageSpec{}, fmt.Errorf("invalid GH:// package spec %q, expected GH://owner/name", s)
		}
		name, version, _ := strings.Cut(parts[1], "@")
		return PackageSpec{Source: "github", Owner: parts[0], Name: name, Version: version}, nil
	}

	name, version, hasVersion := strings.Cut(s, "@")
	if name == "" {
		return PackageSpec{}, fmt.Errorf("invalid package spec %q", s)
	}
	if !hasVersion {
		return PackageSpec{Source: "registry", Name: name}, nil
	}
	return PackageSpec{Source: "registry", Name: name, Version: version}, nil
}
