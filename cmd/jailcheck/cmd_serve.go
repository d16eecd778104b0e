package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"jailcheck/internal/custody/handler"
	"jailcheck/internal/platform/httpserver"
	"jailcheck/internal/platform/logger"
)

var serveFlags struct {
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the custody-check HTTP API",
	Long: `Start the HTTP API:

  POST /custody-checks        run a check (body: source_file, defendants)
  GET  /custody-checks        list recent runs (?limit=N)
  GET  /custody-checks/{id}   fetch one run
  GET  /healthz
  GET  /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "Listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.addr != "" {
		cfg.Server.Addr = serveFlags.addr
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log)

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	router := handler.NewRouter(
		handler.New(a.service, log, cfg.Server.RequestTimeout),
		log,
		a.registry,
		a.health...,
	)
	srv := httpserver.New(cfg.Server, router)

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.Addr, err)
	}
	return httpserver.Run(ctx, srv, ln, cfg.Server.ShutdownTimeout, log)
}
