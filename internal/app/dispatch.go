package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/dispatch-recon/internal/dispatch"
	dispatchhttp "github.com/odyssey-erp/dispatch-recon/internal/dispatch/http"
	"github.com/odyssey-erp/dispatch-recon/internal/observability"
	"github.com/odyssey-erp/dispatch-recon/internal/platform/cache"
	"github.com/odyssey-erp/dispatch-recon/internal/platform/remote"
)

// Dispatch bundles the reconciliation handler with the resources it owns.
type Dispatch struct {
	Handler *dispatchhttp.Handler
	redis   *redis.Client
}

// NewDispatch wires the record store client, the reconciliation service and
// the optional response cache. A Redis outage disables caching instead of
// failing startup.
func NewDispatch(ctx context.Context, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) (*Dispatch, error) {
	opts := []remote.Option{}
	if metrics != nil {
		opts = append(opts, remote.WithObserver(metrics))
	}
	client, err := remote.NewClient(cfg.RemoteConfig(), opts...)
	if err != nil {
		return nil, fmt.Errorf("app: remote client: %w", err)
	}
	service := dispatch.NewService(client, logger, cfg.DispatchConfig())

	d := &Dispatch{}
	var responseCache *dispatchhttp.Cache
	if cfg.DispatchCacheTTL > 0 {
		rc, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("dispatch cache disabled", slog.Any("error", err))
		} else {
			d.redis = rc
			responseCache = dispatchhttp.NewCache(rc, cfg.DispatchCacheTTL, logger)
		}
	}
	d.Handler = dispatchhttp.NewHandler(logger, service, responseCache, cfg.DispatchRequestTimeout)
	return d, nil
}

// Close releases the cache connection.
func (d *Dispatch) Close() error {
	if d == nil || d.redis == nil {
		return nil
	}
	return d.redis.Close()
}
