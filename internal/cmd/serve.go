package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/appforge/internal/backend"
	"github.com/felixgeelhaar/appforge/internal/health"
	"github.com/felixgeelhaar/appforge/internal/pipeline"
	"github.com/felixgeelhaar/appforge/internal/server"
	"github.com/felixgeelhaar/appforge/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the generation server",
	Long: `Start the HTTP generation server.

Endpoints:
  POST /api/generate      - Streaming generation (progress frames + result)
  POST /api/generate/sync - Synchronous generation (result only)
  GET  /health/live       - Liveness probe
  GET  /health/ready      - Readiness probe
  GET  /health/startup    - Startup probe
  GET  /healthz           - Backward-compatible readiness endpoint

The server drains connections gracefully on SIGTERM or SIGINT.

Example:
  # Serve on the configured address
  appforge serve

  # Override the listen address
  appforge serve --address :9090`,
	RunE: runServe,
}

var (
	serveAddress         string
	serveShutdownTimeout time.Duration
)

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "Listen address (overrides the project file)")
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 0, "Maximum time to drain connections during shutdown")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	serverCfg := cfg.Server
	if serveAddress != "" {
		serverCfg.Address = serveAddress
	}
	if serveShutdownTimeout > 0 {
		serverCfg.ShutdownTimeout = serveShutdownTimeout
	}

	bc, err := backend.New(cfg.DefaultBackend())
	if err != nil {
		return err
	}
	defer bc.Close()

	info := version.GetInfo()
	pm := health.NewProbeManager(info.Version)
	pm.AddChecker(health.NewBackendChecker(bc))

	srv := server.NewServer(pipeline.New(bc), pm, serverCfg)

	fmt.Printf("appforge %s\n", info.Version)
	fmt.Printf("Serving on %s (backend: %s)\n", serverCfg.Address, bc.Name())
	fmt.Printf("Press Ctrl+C to stop\n\n")

	// The command context already carries signal cancellation from main.
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-cmd.Context().Done():
		fmt.Println("\nInitiating graceful shutdown...")

		drain := serverCfg.ShutdownTimeout
		if drain == 0 {
			drain = 30 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), drain+5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}
