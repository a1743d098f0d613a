package dispatchhttp

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/dispatch-recon/internal/dispatch"
)

// Warm invalidates cached responses and precomputes the default list page and
// summary so the first dashboard load after a refresh is served from cache.
func (h *Handler) Warm(ctx context.Context) error {
	if err := h.cache.Bump(ctx); err != nil {
		return fmt.Errorf("dispatch: bump cache: %w", err)
	}
	if _, err := h.list(ctx, dispatch.ListQuery{Page: defaultPage, Limit: defaultLimit}); err != nil {
		return fmt.Errorf("dispatch: warm list: %w", err)
	}
	if _, err := h.summary(ctx, dispatch.Filters{}); err != nil {
		return fmt.Errorf("dispatch: warm summary: %w", err)
	}
	return nil
}
