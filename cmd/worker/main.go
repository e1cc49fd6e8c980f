package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/agentdesk/internal/activity"
	"github.com/edvin/agentdesk/internal/config"
	"github.com/edvin/agentdesk/internal/db"
	"github.com/edvin/agentdesk/internal/directory"
	"github.com/edvin/agentdesk/internal/logging"
	"github.com/edvin/agentdesk/internal/metrics"
	"github.com/edvin/agentdesk/internal/notify"
	"github.com/edvin/agentdesk/internal/store"
	"github.com/edvin/agentdesk/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("worker"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	tc, err := temporalclient.Dial(temporalclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	w := worker.New(tc, workflow.TaskQueue, worker.Options{})

	dir := directory.NewClient(cfg.DirectoryURL, cfg.DirectoryServiceKey, cfg.DirectoryTimeout, cfg.DirectoryPageSize)
	w.RegisterActivity(activity.NewProvisioning(logger, dir, store.NewAgentStore(pool), newSender(cfg, logger), cfg.LoginURL))
	w.RegisterWorkflow(workflow.ProvisionAgentWorkflow)

	metricsServer := metrics.NewServer(cfg.MetricsAddr, pool.Ping)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info().Str("task_queue", workflow.TaskQueue).Msg("starting temporal worker")
		if err := w.Start(); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
		<-gctx.Done()
		w.Stop()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("worker failed")
	}
	logger.Info().Msg("worker stopped")
}

func newSender(cfg *config.Config, logger zerolog.Logger) notify.Sender {
	if cfg.NotifyConfigured() {
		return notify.NewHTTPSender(cfg.NotifyAPIURL, cfg.NotifyAPIKey, cfg.NotifyFrom, cfg.NotifyTimeout)
	}
	logger.Warn().Msg("NOTIFY_API_URL not set, welcome messages will not be sent")
	return nil
}
