package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-idm-console/internal/config"
	httpserver "github.com/tendant/simple-idm-console/internal/http"
	"github.com/tendant/simple-idm-console/pkg/auth"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP console backend",
	Long: `Serve the session detail and revoke endpoints consumed by the browser
console. Operators authenticate with an HS256 bearer token signed with
CONSOLE_JWT_SECRET.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	operators, err := auth.NewOperatorService(auth.OperatorConfig{
		JWTSecret: []byte(cfg.ConsoleJWTSecret),
		Issuer:    cfg.ConsoleJWTIssuer,
	})
	if err != nil {
		return err
	}

	comps, err := buildComponents(ctx, cfg, "idm-console", logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          logger,
		Console:         comps.Service,
		Operators:       operators,
		Metrics:         comps.Metrics.Handler(),
		RequestObserver: comps.Metrics,
		DefaultUILocale: cfg.DefaultUILocale,
		RateLimitConfig: cfg.RateLimit,
		SecurityHeaders: cfg.SecurityHeaders,
		Validation:      cfg.Validation,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}
