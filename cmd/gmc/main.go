package main

import (
	"fmt"
	"os"

	"github.com/xplshn/gmc/pkg/ast"
	"github.com/xplshn/gmc/pkg/checker"
	"github.com/xplshn/gmc/pkg/cli"
	"github.com/xplshn/gmc/pkg/config"
	"github.com/xplshn/gmc/pkg/diag"
	"github.com/xplshn/gmc/pkg/lexer"
	"github.com/xplshn/gmc/pkg/parser"
	"golang.org/x/term"
)

func main() {
	cfg := config.NewConfig()

	app := cli.NewApp("gmc")
	app.Synopsis = "[options] <file.c>..."
	app.Description = "Semantic checker for a small C subset. Parses the given files and reports every lvalue, pointer and assignability violation it finds, without stopping at the first one."
	app.Authors = []string{"xplshn"}
	app.Repository = "https://github.com/xplshn/gmc"

	var noColor bool
	app.FlagSet.Bool(&noColor, "no-color", "", false, "Disable colored diagnostics")
	warningFlags, featureFlags := cfg.SetupFlagGroups(app.FlagSet)

	app.Action = func(args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("no input files")
		}
		applyFlagGroups(cfg, warningFlags, featureFlags)
		color := !noColor && term.IsTerminal(int(os.Stderr.Fd()))
		return run(cfg, args, color)
	}

	if err := app.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gmc: %v\n", err)
		os.Exit(1)
	}
}

// applyFlagGroups copies the parsed -W/-F group flags into the config.
// Disabling wins over enabling when both are given.
func applyFlagGroups(cfg *config.Config, warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range warningFlags {
		if *entry.Enabled {
			cfg.SetWarning(config.Warning(i), true)
		}
		if *entry.Disabled {
			cfg.SetWarning(config.Warning(i), false)
		}
	}
	for i, entry := range featureFlags {
		if *entry.Enabled {
			cfg.SetFeature(config.Feature(i), true)
		}
		if *entry.Disabled {
			cfg.SetFeature(config.Feature(i), false)
		}
	}
}

func run(cfg *config.Config, paths []string, color bool) error {
	sources := diag.NewSourceMap()
	bag := diag.NewBag()

	var decls []*ast.Node
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("could not read %s: %w", path, err)
		}
		runes := []rune(string(content))
		fileIndex := sources.Add(path, runes)
		tokens := lexer.NewLexer(runes, fileIndex, bag).Tokenize()
		decls = append(decls, parser.NewParser(tokens, bag).Parse()...)
	}

	checker.NewChecker(cfg, bag).Check(decls)

	printer := &diag.Printer{Sources: sources, Color: color}
	printer.PrintAll(os.Stderr, bag.Diagnostics())

	if bag.HasErrors() {
		return fmt.Errorf("%d error(s) found", bag.ErrorCount())
	}
	return nil
}
