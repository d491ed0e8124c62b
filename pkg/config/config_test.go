package config

import (
	"testing"

	"github.com/nalgeon/be"

	"github.com/xplshn/gmc/pkg/cli"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	be.Equal(t, cfg.IsWarningEnabled(WarnUnused), true)
	be.Equal(t, cfg.IsWarningEnabled(WarnShadow), false)
	be.Equal(t, cfg.IsFeatureEnabled(FeatParallel), false)
	be.Equal(t, cfg.IsFeatureEnabled(FeatAnnotate), true)
}

func TestSetAllWarnings(t *testing.T) {
	cfg := NewConfig()
	cfg.SetAllWarnings(true)
	be.Equal(t, cfg.IsWarningEnabled(WarnShadow), true)
	cfg.SetAllWarnings(false)
	be.Equal(t, cfg.IsWarningEnabled(WarnUnused), false)
}

func TestNameMaps(t *testing.T) {
	cfg := NewConfig()
	be.Equal(t, cfg.WarningMap["shadow"], WarnShadow)
	be.Equal(t, cfg.FeatureMap["parallel-check"], FeatParallel)
}

func TestFlagGroups(t *testing.T) {
	cfg := NewConfig()
	fs := cli.NewFlagSet("test")
	warnings, features := cfg.SetupFlagGroups(fs)
	be.Equal(t, len(warnings), int(WarnCount))
	be.Equal(t, len(features), int(FeatCount))

	err := fs.Parse([]string{"-Wshadow", "-Fparallel-check", "-Wno-unused-variable"})
	be.Err(t, err, nil)
	be.Equal(t, *warnings[WarnShadow].Enabled, true)
	be.Equal(t, *warnings[WarnUnused].Disabled, true)
	be.Equal(t, *features[FeatParallel].Enabled, true)
}
