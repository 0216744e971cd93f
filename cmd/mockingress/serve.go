package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zsiec/mockingress/internal/config"
	"github.com/zsiec/mockingress/internal/dashboard"
	"github.com/zsiec/mockingress/internal/metrics"
	"github.com/zsiec/mockingress/internal/queue"
	"github.com/zsiec/mockingress/internal/server"
	"github.com/zsiec/mockingress/pkg/version"
)

func newServeCommand() *cobra.Command {
	var (
		port         int
		showDash     bool
		dashInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mock ingestion endpoint until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log, showDash, dashInterval)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port, overrides server.port (0 picks a free port)")
	cmd.Flags().BoolVar(&showDash, "dashboard", false, "Show a live terminal dashboard")
	cmd.Flags().DurationVar(&dashInterval, "dashboard-interval", 500*time.Millisecond, "Dashboard refresh interval")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger, showDash bool, dashInterval time.Duration) error {
	log.WithField("version", version.GetInfo().Short()).Info("Starting mock ingestion server")

	q, err := queue.New(ctx, &cfg.Queue, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := q.Close(); err != nil {
			log.WithError(err).Error("Failed to close request queue")
		}
	}()

	if cfg.Metrics.Enabled {
		metricsSrv := startMetricsServer(cfg.Metrics, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	srv := server.New(&cfg.Server, &cfg.Licensing, q, log)

	if !showDash {
		if err := srv.Serve(ctx); err != nil {
			return err
		}
		log.Info("Server shutdown complete")
		return nil
	}

	// Log lines would tear the terminal UI; only file output survives.
	if cfg.Logging.Output == "stdout" || cfg.Logging.Output == "stderr" {
		log.SetOutput(io.Discard)
	}

	baseURL, err := srv.Start(cfg.Server.Port)
	if err != nil {
		return err
	}

	dashErr := dashboard.Run(ctx, dashboard.NewHTTPFetcher(baseURL, nil), baseURL, dashInterval)
	if err := srv.Stop(); err != nil {
		return err
	}
	return dashErr
}

func startMetricsServer(cfg config.MetricsConfig, log *logrus.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("Starting metrics server")
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server error")
		}
	}()

	return srv
}
