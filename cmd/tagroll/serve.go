package main

import (
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"tagroll/internal/server"

	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only HTTP API over the deployment history",
	Long: `Serve the deployment history over HTTP for dashboards and CI checks.

Endpoints:
  GET /healthz
  GET /api/status
  GET /api/history?limit=N

The API is read-only; rollbacks stay on the CLI.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Listen address (default from config, 127.0.0.1:8335)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	addr := serveListen
	if addr == "" {
		addr = a.cfg.Listen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(a.controller, slog.Default(), a.cfg.Limit)
	if err := srv.Start(ctx, addr); err != nil && err != http.ErrServerClosed {
		return fail(err)
	}
	return nil
}
