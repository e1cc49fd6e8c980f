package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/agentdesk/internal/api"
	"github.com/edvin/agentdesk/internal/config"
	"github.com/edvin/agentdesk/internal/core"
	"github.com/edvin/agentdesk/internal/db"
	"github.com/edvin/agentdesk/internal/directory"
	"github.com/edvin/agentdesk/internal/logging"
	"github.com/edvin/agentdesk/internal/metrics"
	"github.com/edvin/agentdesk/internal/notify"
	"github.com/edvin/agentdesk/internal/provision"
	"github.com/edvin/agentdesk/internal/store"
	"github.com/edvin/agentdesk/migrations"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("provisioning-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg, "provisioning-api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *migrateFlag {
		logger.Info().Msg("running database migrations")
		if err := db.RunMigrations(ctx, cfg.DatabaseURL, migrations.FS, logger); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	svc := provision.NewService(logger, newDirectory(cfg, logger), store.NewAgentStore(pool), newSender(cfg, logger), cfg.LoginURL)

	var tc temporalclient.Client
	if cfg.TemporalAddress != "" {
		tc, err = temporalclient.Dial(temporalclient.Options{HostPort: cfg.TemporalAddress})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to temporal")
		}
		defer tc.Close()
	} else {
		logger.Info().Msg("TEMPORAL_ADDRESS not set, async provisioning disabled")
	}

	agents := core.NewAgentService(svc, store.NewAgentStore(pool), tc)
	srv := api.NewServer(logger, pool, agents, tc)

	// Provisioning calls two external services in sequence, so writes get
	// more room than the default.
	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting provisioning API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}

func newDirectory(cfg *config.Config, logger zerolog.Logger) provision.Directory {
	if cfg.DevMode && cfg.DirectoryURL == "" {
		logger.Warn().Msg("dev mode: using in-memory identity directory")
		return directory.NewMemory()
	}
	return directory.NewClient(cfg.DirectoryURL, cfg.DirectoryServiceKey, cfg.DirectoryTimeout, cfg.DirectoryPageSize)
}

func newSender(cfg *config.Config, logger zerolog.Logger) notify.Sender {
	switch {
	case cfg.NotifyConfigured():
		return notify.NewHTTPSender(cfg.NotifyAPIURL, cfg.NotifyAPIKey, cfg.NotifyFrom, cfg.NotifyTimeout)
	case cfg.DevMode:
		return notify.NewLogSender(logger)
	}
	logger.Warn().Msg("NOTIFY_API_URL not set, welcome messages will not be sent")
	return nil
}
