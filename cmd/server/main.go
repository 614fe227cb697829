package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/upclookup/backend/config"
	httpDelivery "github.com/upclookup/backend/internal/delivery/http"
	"github.com/upclookup/backend/internal/domain"
	"github.com/upclookup/backend/internal/infrastructure/upstream"
	"github.com/upclookup/backend/internal/usecase"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "upclookup",
		Short:         "Serve static files and proxy barcode lookups",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServer,
	}

	root.Flags().String("port", "", "listening port")
	root.Flags().String("static-dir", "", "directory served for non-API paths")

	pf := root.PersistentFlags()
	pf.String("environment", "", "runtime environment (development, production)")
	pf.String("upstream-url", "", "base URL of the lookup source")
	pf.Duration("timeout", 0, "upstream request timeout")
	pf.Bool("insecure-skip-verify", false, "skip upstream TLS certificate verification (development only)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (console, json)")

	root.AddCommand(newLookupCmd())
	return root
}

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <barcode>",
		Short: "Look up one barcode and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			setupLogger(cfg.Log)

			service := usecase.NewLookupService(newUpstreamClient(cfg), usecase.LookupServiceConfig{
				EnableDebugLogging: cfg.Log.Level == "debug",
			})

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			result, err := service.Lookup(cmd.Context(), args[0])
			if err != nil {
				_ = enc.Encode(domain.LookupFailure{Error: err.Error()})
				return err
			}
			return enc.Encode(result)
		},
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogger(cfg.Log)

	log.Info().
		Str("version", httpDelivery.Version).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("static_dir", cfg.Server.StaticDir).
		Msg("Starting UPC lookup backend")

	upstreamClient := newUpstreamClient(cfg)

	// Enable debug mode in development environment
	debug := cfg.Server.Environment == "development"
	if debug {
		upstreamClient.SetDebug(true)
		log.Debug().Msg("upstream client debug mode enabled")
	}

	log.Info().
		Str("base_url", cfg.Upstream.BaseURL).
		Dur("timeout", cfg.Upstream.Timeout).
		Bool("insecure_skip_verify", cfg.Upstream.InsecureSkipVerify).
		Msg("Upstream configured")

	lookupService := usecase.NewLookupService(upstreamClient, usecase.LookupServiceConfig{
		EnableDebugLogging: debug,
	})

	handler := httpDelivery.NewHandler(lookupService)
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("Failed to start server")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Dur("grace", cfg.Server.ShutdownTimeout).Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}

func newUpstreamClient(cfg *config.Config) *upstream.Client {
	return upstream.NewClient(upstream.ClientConfig{
		BaseURL:            cfg.Upstream.BaseURL,
		SearchPath:         cfg.Upstream.SearchPath,
		UserAgent:          cfg.Upstream.UserAgent,
		Timeout:            cfg.Upstream.Timeout,
		InsecureSkipVerify: cfg.Upstream.InsecureSkipVerify,
		MaxBodyBytes:       cfg.Upstream.MaxBodyBytes,
	})
}

// setupLogger configures the global zerolog logger
func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
