package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/patternlab/patternlab/internal/config"
	"github.com/patternlab/patternlab/internal/logging"
	"github.com/patternlab/patternlab/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the playground server",
	Long: `Start the playground HTTP server.

Examples:
  patternlab serve                       # Defaults: localhost:8090
  patternlab serve --port 9000           # Custom port
  patternlab serve --patterns demos.yml  # Overlay pattern texts
  PATTERNLAB_SERVER_PORT=9000 patternlab serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8090, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().StringSlice("allowed-origins", nil, "Origins allowed in production")
	serveCmd.Flags().String("environment", "development", "Environment (development, staging, production)")
	serveCmd.Flags().Duration("session-ttl", 30*time.Minute, "Idle visitor session lifetime")
	serveCmd.Flags().String("patterns", "", "Patterns overlay YAML file")
	serveCmd.Flags().Bool("watch-patterns", false, "Reload the overlay file on change")
	serveCmd.Flags().Int("rate-limit", 60, "Requests per minute per client IP")

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.allowed_origins", serveCmd.Flags().Lookup("allowed-origins"))
	_ = viper.BindPFlag("server.environment", serveCmd.Flags().Lookup("environment"))
	_ = viper.BindPFlag("playground.session_ttl", serveCmd.Flags().Lookup("session-ttl"))
	_ = viper.BindPFlag("patterns.file", serveCmd.Flags().Lookup("patterns"))
	_ = viper.BindPFlag("patterns.watch", serveCmd.Flags().Lookup("watch-patterns"))
	_ = viper.BindPFlag("ratelimit.requests_per_minute", serveCmd.Flags().Lookup("rate-limit"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
