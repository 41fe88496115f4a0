package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsplice/internal/builder"
	"github.com/dgallion1/docsplice/internal/config"
	"github.com/dgallion1/docsplice/internal/include"
)

var buildFlags struct {
	out         string
	snippetsDir string
	element     string
	attr        string
	strict      bool
	concurrency int
	deps        bool
}

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Expand snippet markers in documents",
	Long: `Expand snippet markers in every .md/.mdx file under a directory
(or in a single file) and write the results, mirroring the source
layout, into the output directory.

A marker that cannot be resolved is reported and left in place; the
rest of the document still builds. With --strict, any reported warning
or error fails the command.

Examples:
  # Expand everything under the configured docs directory
  docsplice build

  # Expand one tree into a custom output directory
  docsplice build docs/ --out public/

  # Fail the CI job on any snippet problem
  docsplice build docs/ --strict

  # Print which snippet files each document pulled in
  docsplice build docs/ --deps`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildFlags.out, "out", "o", "", "output directory")
	buildCmd.Flags().StringVar(&buildFlags.snippetsDir, "snippets-dir", "", "directory snippet references resolve against")
	buildCmd.Flags().StringVar(&buildFlags.element, "element", "", "marker element name")
	buildCmd.Flags().StringVar(&buildFlags.attr, "attr", "", "marker attribute naming the snippet file")
	buildCmd.Flags().BoolVar(&buildFlags.strict, "strict", false, "treat expansion warnings and errors as build failures")
	buildCmd.Flags().IntVar(&buildFlags.concurrency, "concurrency", 0, "documents processed in parallel")
	buildCmd.Flags().BoolVar(&buildFlags.deps, "deps", false, "print registered snippet dependencies per document")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if buildFlags.out != "" {
		cfg.OutDir = buildFlags.out
	}
	if buildFlags.snippetsDir != "" {
		cfg.SnippetsDir = buildFlags.snippetsDir
	}
	if buildFlags.element != "" {
		cfg.ElementName = buildFlags.element
	}
	if buildFlags.attr != "" {
		cfg.FileAttribute = buildFlags.attr
	}
	if buildFlags.concurrency > 0 {
		cfg.Concurrency = buildFlags.concurrency
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict = buildFlags.strict
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := newLogger()
	engine := include.NewEngine(include.Options{
		SnippetsDir:   cfg.SnippetsDir,
		ElementName:   cfg.ElementName,
		FileAttribute: cfg.FileAttribute,
		MaxDepth:      cfg.MaxDepth,
		MaxFetchBytes: cfg.MaxFetchBytes,
		Reporter:      &include.SlogReporter{Log: log},
		HTTPClient:    &http.Client{Timeout: cfg.FetchTimeout},
	})
	b := builder.New(engine, log, builder.Options{
		OutDir:      cfg.OutDir,
		Concurrency: cfg.Concurrency,
	})

	target := cfg.DocsDir
	if len(args) == 1 {
		target = args[0]
	}
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}

	ctx := cmd.Context()
	var (
		stats   builder.Stats
		reports []builder.DocReport
	)
	if info.IsDir() {
		stats, reports, err = b.Build(ctx, target)
	} else {
		var rep builder.DocReport
		stats, rep, err = b.BuildFile(ctx, target)
		reports = []builder.DocReport{rep}
	}
	if err != nil {
		return err
	}

	if buildFlags.deps {
		for _, rep := range reports {
			for _, dep := range rep.Deps {
				fmt.Printf("%s: %s\n", rep.Path, dep)
			}
		}
	}

	log.Info("build complete",
		"docs", stats.Docs,
		"failed", stats.Failed,
		"snippets", stats.Expanded,
		"warnings", stats.Warnings,
		"errors", stats.Errors,
	)

	if stats.Failed > 0 {
		return fmt.Errorf("%d document(s) failed to build", stats.Failed)
	}
	if cfg.Strict && stats.Warnings+stats.Errors > 0 {
		return fmt.Errorf("strict mode: %d warning(s) and %d error(s) reported", stats.Warnings, stats.Errors)
	}
	return nil
}
