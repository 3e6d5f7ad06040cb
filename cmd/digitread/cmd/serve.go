package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/MeKo-Tech/digitread/internal/server"
	"github.com/MeKo-Tech/digitread/internal/version"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP recognition server",
		Long: `Start an HTTP server exposing digit recognition.

Endpoints:
  GET  /health      server and model status
  GET  /models      available classifiers
  POST /model/load  load or switch the classifier
  POST /predict     recognize an uploaded image
  GET  /ws          streaming recognition over WebSocket
  GET  /metrics     Prometheus metrics

The classifier is loaded on the first request unless --eager is set.

Examples:
  digitread serve
  digitread serve --host 0.0.0.0 --port 9090 --eager
  digitread serve --rate-limit-enabled --requests-per-minute 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), a)
		},
	}

	f := cmd.Flags()
	f.StringP("host", "H", "localhost", "server host")
	f.IntP("port", "p", 8080, "server port")
	f.String("cors-origin", "*", "CORS allowed origin")
	f.Int("max-upload-size", 10, "maximum upload size in MB")
	f.Int("timeout", 30, "request timeout in seconds")
	f.Int("shutdown-timeout", 10, "graceful shutdown timeout in seconds")
	f.Bool("eager", false, "load the classifier at startup")
	f.Bool("rate-limit-enabled", false, "enable per-client rate limiting")
	f.Int("requests-per-minute", 60, "requests per minute per client (0 = unlimited)")
	f.Int("requests-per-hour", 1000, "requests per hour per client (0 = unlimited)")
	f.Int("max-requests-per-day", 10000, "requests per day per client (0 = unlimited)")
	f.Int64("max-data-per-day-mb", 1024, "uploaded MB per day per client (0 = unlimited)")
	addModelFlag(a, cmd)
	a.bind(cmd,
		flagBinding{"server.host", "host"},
		flagBinding{"server.port", "port"},
		flagBinding{"server.cors_origin", "cors-origin"},
		flagBinding{"server.max_upload_mb", "max-upload-size"},
		flagBinding{"server.timeout_sec", "timeout"},
		flagBinding{"server.shutdown_timeout", "shutdown-timeout"},
		flagBinding{"model.eager", "eager"},
		flagBinding{"server.rate_limit.enabled", "rate-limit-enabled"},
		flagBinding{"server.rate_limit.requests_per_minute", "requests-per-minute"},
		flagBinding{"server.rate_limit.requests_per_hour", "requests-per-hour"},
		flagBinding{"server.rate_limit.max_requests_per_day", "max-requests-per-day"},
		flagBinding{"server.rate_limit.max_data_per_day_mb", "max-data-per-day-mb"},
	)
	return cmd
}

// newServer builds the recognition server. Without eager loading the
// classifier is only selected, so a missing artifact surfaces as 503 on the
// first request instead of a startup failure.
func (a *app) newServer() (*server.Server, error) {
	cfg := a.cfg
	kind, err := models.ParseKind(cfg.Model.Kind)
	if err != nil {
		return nil, err
	}
	store := models.NewStore(cfg.ToStoreConfig())
	if cfg.Model.Eager {
		bundle, err := store.Load(kind, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load model: %w", err)
		}
		slog.Info("Model loaded", "kind", bundle.Kind, "name", bundle.Name, "path", bundle.Path)
	} else {
		store.Select(kind, "")
	}

	pl, err := pipeline.New(cfg.ToPipelineConfig(), store)
	if err != nil {
		return nil, err
	}

	sc := cfg.Server
	return server.NewServer(server.Config{
		Host:                sc.Host,
		Port:                sc.Port,
		CORSOrigin:          sc.CORSOrigin,
		MaxUploadMB:         int64(sc.MaxUploadMB),
		TimeoutSec:          sc.TimeoutSec,
		ShutdownTimeoutSec:  sc.ShutdownTimeout,
		ConfidencePrecision: cfg.Output.ConfidencePrecision,
		Version:             version.Version,
		RateLimit: server.RateLimitConfig{
			Enabled:           sc.RateLimit.Enabled,
			RequestsPerMinute: sc.RateLimit.RequestsPerMinute,
			RequestsPerHour:   sc.RateLimit.RequestsPerHour,
			MaxRequestsPerDay: sc.RateLimit.MaxRequestsPerDay,
			MaxDataPerDay:     sc.RateLimit.MaxDataPerDayMB * 1024 * 1024,
		},
	}, pl, store)
}

func runServe(ctx context.Context, a *app) error {
	srv, err := a.newServer()
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	sc := a.cfg.Server
	timeout := time.Duration(sc.TimeoutSec) * time.Second
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", sc.Host, sc.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		// Recognition itself is bounded by the handler timeout; the margin
		// leaves room to write the response.
		WriteTimeout: timeout + 5*time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting digit recognition server", "host", sc.Host, "port", sc.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	}

	slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", sc.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(sc.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return err
	}
	slog.Info("Graceful shutdown completed")
	return nil
}
