package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"veritrack/internal/api"
	"veritrack/internal/pipeline"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	Long: `Serve starts the HTTP API over a long-lived in-memory research
session: sources posted over multiple requests are merged round by
round, and claims can be verified and reported on at any point.

The session lives for the lifetime of the process.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&oracleProvider, "oracle-provider", "openai", "analysis provider (openai, anthropic, ollama)")
	serveCmd.Flags().StringVar(&oracleModel, "oracle-model", "", "analysis model name (provider default when empty)")
	serveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable oracle response caching")
	serveCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory for the disk cache layer (memory-only when empty)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Server.Addr = serveAddr

	p, err := pipeline.FromConfig(cfg, logger)
	if err != nil {
		return err
	}

	app := api.NewApp(p, logger)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}
