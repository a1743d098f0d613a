package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/dispatch-recon/internal/app"
	jobmetrics "github.com/odyssey-erp/dispatch-recon/internal/jobs"
	"github.com/odyssey-erp/dispatch-recon/internal/observability"
	"github.com/odyssey-erp/dispatch-recon/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	dispatchApp, err := app.NewDispatch(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("init dispatch", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dispatchApp.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	warmupJob := jobs.NewCacheWarmupJob(dispatchApp.Handler, logger, jobmetrics.NewMetrics(metrics.Registerer()))
	warmupTask, err := jobs.NewCacheWarmupTask(jobs.CacheWarmupPayload{Reason: "schedule"})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	var cron []jobs.CronRegistration
	if cfg.WarmupCron != "" && cfg.DispatchCacheTTL > 0 {
		cron = append(cron, jobs.CronRegistration{Spec: cfg.WarmupCron, Task: warmupTask})
	} else {
		logger.Info("cache warmup schedule disabled")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDispatchCacheWarmup, Handler: warmupJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := app.NewMetricsServer(cfg, metrics)
	go func() {
		logger.Info("starting metrics server", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
	}()

	logger.Info("starting worker", slog.Int("schedules", len(cron)))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
