package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsplice/internal/config"
	"github.com/dgallion1/docsplice/internal/importer"
)

var importFlags struct {
	out         string
	snippetsDir string
	pdftotext   bool
}

var importCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "Convert an external document into a snippet",
	Long: `Convert an external document into a markdown snippet file in the
snippets directory. The source may be a local file or an http(s) URL.

Supported formats: html, htm, docx, pdf, csv, txt, and markdown
(copied as-is). Remote sources without a recognizable extension are
treated according to their Content-Type, defaulting to HTML.

Examples:
  docsplice import https://example.com/changelog.html
  docsplice import spec.docx --out api-spec.md
  docsplice import data.csv --snippets-dir docs/_snippets`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importFlags.out, "out", "o", "", "output filename (derived from the source when empty)")
	importCmd.Flags().StringVar(&importFlags.snippetsDir, "snippets-dir", "", "directory imported snippets are written to")
	importCmd.Flags().BoolVar(&importFlags.pdftotext, "pdftotext", false, "fall back to the pdftotext tool for unreadable PDFs")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if importFlags.snippetsDir != "" {
		cfg.SnippetsDir = importFlags.snippetsDir
	}

	im := importer.New(cfg.SnippetsDir, newLogger())
	im.PdftotextFallback = importFlags.pdftotext

	out, err := im.Import(cmd.Context(), args[0], importFlags.out)
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}
	fmt.Println(out)
	return nil
}
