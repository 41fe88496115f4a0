package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docsplice/internal/config"
	"github.com/dgallion1/docsplice/internal/include"
	"github.com/dgallion1/docsplice/internal/web"
)

var serveFlags struct {
	addr        string
	docsDir     string
	snippetsDir string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a live preview of the documentation",
	Long: `Serve the documentation tree over HTTP. Every request re-reads the
source file and expands its snippet markers, so edits show up on
refresh without rebuilding.

Endpoints:
  /docs/*   rendered pages (and raw assets)
  /health   liveness probe
  /metrics  Prometheus metrics

Examples:
  docsplice serve
  docsplice serve --addr :3000 --docs-dir docs/`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "listen address")
	serveCmd.Flags().StringVar(&serveFlags.docsDir, "docs-dir", "", "documentation root to serve")
	serveCmd.Flags().StringVar(&serveFlags.snippetsDir, "snippets-dir", "", "directory snippet references resolve against")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if serveFlags.addr != "" {
		cfg.Addr = serveFlags.addr
	}
	if serveFlags.docsDir != "" {
		cfg.DocsDir = serveFlags.docsDir
	}
	if serveFlags.snippetsDir != "" {
		cfg.SnippetsDir = serveFlags.snippetsDir
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
	srv := web.NewServer(engine, log, cfg.DocsDir)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting preview server", "addr", cfg.Addr, "docs", cfg.DocsDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
