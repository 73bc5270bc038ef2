package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/image-compare/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Image Compare HTTP API.

Endpoints:
  GET  /api/v1/health
  GET  /api/search?q=<query>&pages=<n>&filter=<text>
  GET  /api/compare?q=<query>&imageUrl=<url>&pages=<n>&sort=similarity
  POST /api/v1/compare        {"imageUrl": "...", "candidates": [...]}
  GET  /api/v1/fingerprint?url=<url>`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	svc := loadServices(cmd)

	if port := mustGetInt(cmd, "port"); port > 0 {
		svc.cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		svc.cfg.Web.Host = host
	}
	if svc.cfg.Search.APIKey == "" {
		svc.log.Warn("SCRAPERAPI_KEY is not set, search endpoints will fail")
	}

	server := web.NewServer(svc.cfg, web.Services{
		Searcher:      svc.searcher,
		Comparer:      svc.batch(0, nil),
		Fingerprinter: svc.engine,
	}, svc.log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Image Compare API on http://%s:%d\n", svc.cfg.Web.Host, svc.cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
