package config

import "testing"

func TestParsePackageSpec_GitHub(t *testing.T) {
	spec, err := ParsePackageSpec("GH://kazaamjt/eikobot-aws")
	if err != nil {
		t.Fatalf("ParsePackageSpec: %s", err)
	}
	if spec.Source != "github" || spec.Owner != "kazaamjt" || spec.Name != "eikobot-aws" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestParsePackageSpec_GitHubWithRef(t *testing.T) {
	spec, err := ParsePackageSpec("GH://kazaamjt/eikobot-aws@v1.2.0")
	if err != nil {
		t.Fatalf("ParsePackageSpec: %s", err)
	}
	if spec.Version != "v1.2.0" {
		t.Fatalf("expected version v1.2.0, got %q", spec.Version)
	}
}

func TestParsePackageSpec_NameVersion(t *testing.T) {
	spec, err := ParsePackageSpec("eikobot-aws@2.0.1")
	if err != nil {
		t.Fatalf("ParsePackageSpec: %s", err)
	}
	if spec.Source != "registry" || spec.Name != "eikobot-aws" || spec.Version != "2.0.1" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestParsePackageSpec_NameOnly(t *testing.T) {
	spec, err := ParsePackageSpec("eikobot-aws")
	if err != nil {
		t.Fatalf("ParsePackageSpec: %s", err)
	}
	if spec.Version != "" {
		t.Fatalf("expected no version, got %q", spec.Version)
	}
}

func TestParsePackageSpec_Invalid(t *testing.T) {
	for _, s := range []string{"GH://onlyowner", "GH:///name", "", "@1.0"} {
		if _, err := ParsePackageSpec(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}
