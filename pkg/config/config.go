package config

import (
	"github.com/xplshn/gmc/pkg/cli"
)

type Feature int

const (
	FeatParallel Feature = iota
	FeatAnnotate
	FeatCount
)

type Warning int

const (
	WarnUnused Warning = iota
	WarnShadow
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning
}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
	}

	features := map[Feature]Info{
		FeatParallel: {"parallel-check", false, "Check function bodies concurrently."},
		FeatAnnotate: {"annotate", true, "Write resolved types back onto AST nodes."},
	}

	warnings := map[Warning]Info{
		WarnUnused: {"unused-variable", true, "Warn about local variables that are never used."},
		WarnShadow: {"shadow", false, "Warn when a declaration hides one from an outer scope."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

func (c *Config) SetAllWarnings(enabled bool) {
	for i := Warning(0); i < WarnCount; i++ {
		c.SetWarning(i, enabled)
	}
}

// SetupFlagGroups registers -W<warning>/-Wno-<warning> and -F<feature>/
// -Fno-<feature> flag groups and returns the entry slices, indexed by the
// Warning and Feature enums, for the caller to apply after parsing.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	warningFlags := make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warningFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description,
			Enabled: new(bool), Disabled: new(bool),
		}
	}
	fs.AddFlagGroup("Warnings", "Diagnostic categories", "warning", "Available warnings:", warningFlags)

	featureFlags := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		featureFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description,
			Enabled: new(bool), Disabled: new(bool),
		}
	}
	fs.AddFlagGroup("Features", "Checker behavior toggles", "feature", "Available features:", featureFlags)

	return warningFlags, featureFlags
}
