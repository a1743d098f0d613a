package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/dispatch-recon/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Warmer refreshes cached dispatch views.
type Warmer interface {
	Warm(ctx context.Context) error
}

// CacheWarmupJob invalidates the dispatch cache and reloads the default views.
type CacheWarmupJob struct {
	Warmer  Warmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewCacheWarmupJob wires dependencies for the warmup handler.
func NewCacheWarmupJob(warmer Warmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheWarmupJob {
	return &CacheWarmupJob{Warmer: warmer, Logger: logger, Metrics: metrics, Timeout: 2 * time.Minute}
}

// Handle processes TaskDispatchCacheWarmup tasks.
func (j *CacheWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Warmer == nil {
		return errors.New("cache warmup: handler not configured")
	}
	var payload CacheWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Reason == "" {
		payload.Reason = "schedule"
	}

	tracker := j.metrics().Track(TaskDispatchCacheWarmup)
	logger := j.logger().With(slog.String("reason", payload.Reason))
	logger.Info("starting cache warmup")

	runCtx := ctx
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := j.Warmer.Warm(runCtx); err != nil {
		logger.Error("cache warmup", slog.Any("error", err))
		return tracker.End(err)
	}
	j.metrics().AddWarmed("list", 1)
	j.metrics().AddWarmed("summary", 1)
	logger.Info("completed cache warmup", slog.Duration("duration", time.Since(start)))
	return tracker.End(nil)
}

func (j *CacheWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDispatchCacheWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDispatchCacheWarmup))
}

func (j *CacheWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
