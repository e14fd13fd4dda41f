package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/siddharthpatel001/client-health-monitor/internal/config"
	"github.com/siddharthpatel001/client-health-monitor/internal/httpapi"
	"github.com/siddharthpatel001/client-health-monitor/internal/logging"
	"github.com/siddharthpatel001/client-health-monitor/internal/notify"
	"github.com/siddharthpatel001/client-health-monitor/internal/probe"
	"github.com/siddharthpatel001/client-health-monitor/internal/repo"
	"github.com/siddharthpatel001/client-health-monitor/internal/repo/memory"
	"github.com/siddharthpatel001/client-health-monitor/internal/repo/postgres"
	"github.com/siddharthpatel001/client-health-monitor/internal/repo/sqlite"
	"github.com/siddharthpatel001/client-health-monitor/internal/scheduler"
)

const (
	pingTimeout    = 1 * time.Second
	sshPort        = 22
	sshTimeout     = 2 * time.Second
	servicePort    = 8083
	serviceTimeout = 3 * time.Second

	shutdownGrace = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.FromEnv(ctx)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	// Storage unavailability at startup is the one fatal condition.
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store (%s): %w", cfg.DatabaseDriver, err)
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Warn("store_close_error", zap.Error(cerr))
		}
	}()

	suite := probe.NewSuite(
		probe.NewPingChecker(pingTimeout, cfg.PingPrivileged),
		probe.NewTCPChecker(sshPort, sshTimeout),
		probe.NewServiceChecker(servicePort, serviceTimeout),
	)

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		return err
	}

	monitor := scheduler.NewMonitor(
		logger, store, suite, notifier,
		cfg.AlertCooldown(), cfg.PollInterval, cfg.MaxConcurrentChecks,
	)
	go monitor.Run(ctx)

	api := httpapi.NewServer(logger, store, monitor, cfg.AlertCooldown(), cfg.AddRPM, cfg.DeleteRPM)
	srv := &http.Server{Addr: cfg.Addr, Handler: api.Router()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutdown_start")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()

	var teardown error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		teardown = multierr.Append(teardown, fmt.Errorf("http shutdown: %w", err))
	}
	logger.Info("shutdown_done")
	return teardown
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.ClientStore, func() error, error) {
	switch cfg.DatabaseDriver {
	case "sqlite":
		s, err := sqlite.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "postgres":
		s, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { s.Close(); return nil }, nil
	case "memory":
		return memory.New(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
}

func buildNotifier(cfg config.Config, logger *zap.Logger) (notify.Notifier, error) {
	var chain notify.Multi

	if cfg.SenderEmail != "" {
		email, err := notify.NewEmail(cfg.SMTPHost, cfg.SMTPPort, cfg.SenderEmail, cfg.SenderPassword)
		if err != nil {
			return nil, fmt.Errorf("email notifier: %w", err)
		}
		chain = append(chain, email)
	} else {
		logger.Warn("email_alerts_disabled_no_sender")
	}

	if wh := notify.NewWebhook(cfg.AlertWebhookURL); wh != nil {
		chain = append(chain, wh)
	}

	return chain, nil
}
