package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/timecapsule/capsule-engine/internal/activity"
	"github.com/timecapsule/capsule-engine/internal/config"
	"github.com/timecapsule/capsule-engine/internal/infra/postgresql"
	"github.com/timecapsule/capsule-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/timecapsule/capsule-engine/internal/infra/redis"
	"github.com/timecapsule/capsule-engine/internal/mailer"
	"github.com/timecapsule/capsule-engine/internal/observability"
	"github.com/timecapsule/capsule-engine/internal/repository"
	"github.com/timecapsule/capsule-engine/internal/scheduler"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.MailRatePerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	mail, err := mailer.NewRelayMailer(cfg.MailRelayURL, cfg.MailFrom)
	if err != nil {
		logger.Fatal("mail relay initialization failed", zap.Error(err))
	}

	capsules := repository.NewGormCapsuleRepo(db)
	activities := repository.NewGormActivityRepo(db)
	recorder := activity.NewStoreRecorder(activities, logger)

	metrics := observability.NewMetrics()

	engine, err := scheduler.NewRetryEngine(
		capsules,
		mail,
		limiter,
		recorder,
		cfg.AppURL,
		cfg.MaxRetries,
		time.Duration(cfg.RetryDelayMillis)*time.Millisecond,
		logger,
	)
	if err != nil {
		logger.Fatal("retry engine initialization failed", zap.Error(err))
	}
	engine.SetMetrics(metrics)

	delivery, err := scheduler.NewDeliveryRunner(capsules, engine, recorder, cfg.BatchSize, logger)
	if err != nil {
		logger.Fatal("delivery runner initialization failed", zap.Error(err))
	}
	delivery.SetMetrics(metrics)

	reminder, err := scheduler.NewReminderRunner(
		capsules,
		mail,
		limiter,
		recorder,
		cfg.AppURL,
		cfg.ReminderScanLimit,
		logger,
	)
	if err != nil {
		logger.Fatal("reminder runner initialization failed", zap.Error(err))
	}
	reminder.SetMetrics(metrics)

	supervisor, err := scheduler.NewSupervisor(delivery, reminder, cfg.DeliveryCron, cfg.ReminderCron, logger)
	if err != nil {
		logger.Fatal("supervisor initialization failed", zap.Error(err))
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server listening", zap.Int("port", cfg.MetricsPort))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := supervisor.Start(ctx); err != nil {
		logger.Fatal("scheduler start failed", zap.Error(err))
	}

	logger.Info("capsule engine started",
		zap.String("deliverySchedule", cfg.DeliveryCron),
		zap.String("reminderSchedule", cfg.ReminderCron),
	)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	supervisor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown failed", zap.Error(err))
	}

	logger.Info("capsule engine stopped")
}
