// Package dispatchhttp exposes the dispatch reconciliation views over HTTP.
package dispatchhttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/dispatch-recon/internal/dispatch"
	"github.com/odyssey-erp/dispatch-recon/internal/platform/httpx"
)

const defaultRequestTimeout = 30 * time.Second

// Service is the reconciliation contract used by the handler.
type Service interface {
	List(ctx context.Context, q dispatch.ListQuery) (dispatch.ListResult, error)
	Summary(ctx context.Context, f dispatch.Filters) (dispatch.SummaryResult, error)
	Itemized(ctx context.Context, f dispatch.Filters) (dispatch.ItemizedResult, error)
	Detail(ctx context.Context, ref string) (dispatch.InvoiceDetail, error)
}

// Handler serves the dispatch endpoints.
type Handler struct {
	logger   *slog.Logger
	service  Service
	cache    *Cache
	validate *validator.Validate
	flight   singleflight.Group
	timeout  time.Duration
	now      func() time.Time
}

// NewHandler constructs the dispatch HTTP handler. cache may be nil.
func NewHandler(logger *slog.Logger, service Service, cache *Cache, timeout time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Handler{
		logger:   logger,
		service:  service,
		cache:    cache,
		validate: newValidator(),
		timeout:  timeout,
		now:      time.Now,
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := h.listQuery(w, r)
	res, err := h.list(r.Context(), q)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	f := h.filters(w, r)
	res, err := h.summary(r.Context(), f)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) handleItems(w http.ResponseWriter, r *http.Request) {
	f := h.filters(w, r)
	res, err := h.itemized(r.Context(), f)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) handleItemsCSV(w http.ResponseWriter, r *http.Request) {
	f := h.filters(w, r)
	res, err := h.itemized(r.Context(), f)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("dispatch-items-%s-%s.csv", orOpen(res.Range.From), orOpen(res.Range.To))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if err := writeItemsCSV(w, res); err != nil {
		h.logger.Error("stream items csv", slog.Any("error", err))
	}
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(chi.URLParam(r, "ref"))
	if ref == "" {
		h.respondError(w, r, dispatch.ErrInvoiceNotFound)
		return
	}
	res, err := load(h, r.Context(), []string{"detail", ref}, func(ctx context.Context) (dispatch.InvoiceDetail, error) {
		return h.service.Detail(ctx, ref)
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) list(ctx context.Context, q dispatch.ListQuery) (dispatch.ListResult, error) {
	parts := []string{"list", h.scopeKey(q.Filters), strconv.Itoa(q.Page), strconv.Itoa(q.Limit)}
	return load(h, ctx, parts, func(ctx context.Context) (dispatch.ListResult, error) {
		return h.service.List(ctx, q)
	})
}

func (h *Handler) summary(ctx context.Context, f dispatch.Filters) (dispatch.SummaryResult, error) {
	return load(h, ctx, []string{"summary", h.scopeKey(f)}, func(ctx context.Context) (dispatch.SummaryResult, error) {
		return h.service.Summary(ctx, f)
	})
}

func (h *Handler) itemized(ctx context.Context, f dispatch.Filters) (dispatch.ItemizedResult, error) {
	return load(h, ctx, []string{"items", h.scopeKey(f)}, func(ctx context.Context) (dispatch.ItemizedResult, error) {
		return h.service.Itemized(ctx, f)
	})
}

// scopeKey identifies a filter set. Queries without a date bound resolve to
// the current month, so the month is part of their key.
func (h *Handler) scopeKey(f dispatch.Filters) string {
	key := filterKey(f)
	if f.From == "" && f.To == "" {
		key += "&month=" + h.now().Format("2006-01")
	}
	return key
}

// load collapses concurrent identical requests and serves them through the
// response cache.
func load[T any](h *Handler, ctx context.Context, parts []string, loader func(context.Context) (T, error)) (T, error) {
	var zero T
	key, err := h.cache.BuildKey(ctx, append([]string{"dispatch"}, parts...)...)
	if err != nil {
		h.logger.Warn("cache version unavailable", slog.Any("error", err))
		key = strings.Join(append([]string{"dispatch"}, parts...), ":")
	}
	cache := h.cache
	if err != nil {
		cache = nil
	}
	val, err, _ := h.collapse(ctx, key, func(ctx context.Context) (any, error) {
		var out T
		err := cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			return loader(ctx)
		})
		return out, err
	})
	if err != nil {
		return zero, err
	}
	return val.(T), nil
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		h.logger.Debug("client went away", slog.String("path", r.URL.Path))
		return
	case errors.Is(err, dispatch.ErrInvoiceNotFound):
		err = fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, dispatch.ErrSourceUnavailable):
		h.logger.Error("invoice source unavailable", slog.String("path", r.URL.Path), slog.Any("error", err))
		err = fmt.Errorf("%w: invoice headers could not be read", httpx.ErrUpstream)
	case errors.Is(err, httpx.ErrValidation):
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("request timed out", slog.String("path", r.URL.Path))
	default:
		h.logger.Error("dispatch request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func orOpen(date string) string {
	if date == "" {
		return "open"
	}
	return date
}
