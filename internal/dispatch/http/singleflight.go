package dispatchhttp

import "context"

// collapse runs fn once per key among concurrent callers. fn runs detached
// from any single caller's cancellation; each caller still stops waiting when
// its own ctx ends.
func (h *Handler) collapse(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error, bool) {
	resultChan := h.flight.DoChan(key, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
		defer cancel()
		return fn(runCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}
