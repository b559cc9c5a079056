package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the Face Compare HTTP API.
The API exposes the login gate, image selection, comparison submission with
live progress over server-sent events, and the result report.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("allowed-origins", "", "Comma-separated origins allowed for CORS")
}

// resolveServeHostPort resolves port, host and allowed origins from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	origins := mustGetString(cmd, "allowed-origins")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	if origins == "" {
		origins = os.Getenv("WEB_ALLOWED_ORIGINS")
	}
	return port, host, origins
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := newLogger()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	controller := newController(cfg, client, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gate, closeStore, err := openGate(ctx, cfg, controller, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	port, host, origins := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, origins, controller, gate)

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

	fmt.Printf("Starting Face Compare API on http://%s:%d\n", host, port)
	fmt.Printf("Comparison service: %s\n", cfg.Service.URL)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
