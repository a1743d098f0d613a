// Package dispatch reconciles sales invoices against dispatch plans and
// classifies each invoice into a delivery lifecycle stage.
//
// Every call re-reads the upstream collections; nothing is cached or
// persisted here.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/dispatch-recon/internal/platform/remote"
)

const defaultVATRate = 0.12

// Config tunes the service.
type Config struct {
	Collections Collections
	// VATRate is the VAT-inclusive rate used by detail summaries.
	VATRate float64
}

// Service runs the reconciliation pipelines.
type Service struct {
	fetcher Fetcher
	logger  *slog.Logger
	cols    Collections
	vatRate decimal.Decimal
	now     func() time.Time
}

// NewService wires a Fetcher into a Service.
func NewService(fetcher Fetcher, logger *slog.Logger, cfg Config) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	rate := cfg.VATRate
	if rate <= 0 {
		rate = defaultVATRate
	}
	return &Service{
		fetcher: fetcher,
		logger:  logger,
		cols:    cfg.Collections.withDefaults(),
		vatRate: decimal.NewFromFloat(rate),
		now:     time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// snapshot holds one pass worth of source collections.
type snapshot struct {
	headers    source[InvoiceHeader]
	customers  source[Customer]
	salesmen   source[Salesman]
	operations source[Operation]
	links      source[LinkRecord]
	plans      source[Plan]
}

// List returns one page of the filtered rows with aggregations over all of them.
func (s *Service) List(ctx context.Context, q ListQuery) (ListResult, error) {
	rows, rng, err := s.filteredRows(ctx, q.Filters)
	if err != nil {
		return ListResult{}, err
	}
	data, meta := Paginate(rows, q.Page, q.Limit)
	return ListResult{
		Data:         data,
		Meta:         meta,
		Aggregations: Aggregate(rows),
		Range:        rng,
	}, nil
}

// Summary returns only the aggregations, for chart consumers.
func (s *Service) Summary(ctx context.Context, f Filters) (SummaryResult, error) {
	rows, rng, err := s.filteredRows(ctx, f)
	if err != nil {
		return SummaryResult{}, err
	}
	return SummaryResult{Aggregations: Aggregate(rows), Range: rng}, nil
}

// EffectiveFilters applies the default date range: the current month when
// neither bound is given. A single given bound leaves the other side open.
func (s *Service) EffectiveFilters(f Filters) (Filters, Range) {
	if f.From == "" && f.To == "" {
		rng := DefaultRange(s.now())
		f.From, f.To = rng.From, rng.To
	}
	return f, Range{From: f.From, To: f.To}
}

func (s *Service) filteredRows(ctx context.Context, f Filters) ([]Row, Range, error) {
	f, rng := s.EffectiveFilters(f)
	ctx, logger := s.beginRun(ctx, "list")

	snap, err := s.loadSnapshot(ctx, logger)
	if err != nil {
		return nil, rng, err
	}

	lookups := Lookups{
		Customers:  CustomerIndex(snap.customers.records),
		Salesmen:   SalesmanIndex(snap.salesmen.records),
		Operations: OperationIndex(snap.operations.records),
	}
	labels := ResolveLinkage(snap.links.records, PlanIndex(snap.plans.records), nil)
	rows := Filter(Project(snap.headers.records, lookups, labels), f)
	SortRows(rows)

	logger.Debug("reconciled invoices",
		slog.Int("headers", len(snap.headers.records)),
		slog.Int("links", len(snap.links.records)),
		slog.Int("plans", len(snap.plans.records)),
		slog.Int("rows", len(rows)))
	return rows, rng, nil
}

// beginRun tags ctx and the logger with a fresh run id.
func (s *Service) beginRun(ctx context.Context, pipeline string) (context.Context, *slog.Logger) {
	run := uuid.NewString()
	ctx = remote.ContextWithRequestID(ctx, run)
	return ctx, s.logger.With(slog.String("pipeline", pipeline), slog.String("run_id", run))
}

// loadSnapshot reads all list sources concurrently.
func (s *Service) loadSnapshot(ctx context.Context, logger *slog.Logger) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.headers = fetch[InvoiceHeader](gctx, s.fetcher, logger, s.cols.Invoices, remote.Query{Fields: headerFields})
		return nil
	})
	g.Go(func() error {
		snap.customers = fetch[Customer](gctx, s.fetcher, logger, s.cols.Customers, remote.Query{})
		return nil
	})
	g.Go(func() error {
		snap.salesmen = fetch[Salesman](gctx, s.fetcher, logger, s.cols.Salesmen, remote.Query{})
		return nil
	})
	g.Go(func() error {
		snap.operations = fetch[Operation](gctx, s.fetcher, logger, s.cols.Operations, remote.Query{})
		return nil
	})
	g.Go(func() error {
		snap.links = fetch[LinkRecord](gctx, s.fetcher, logger, s.cols.Links, remote.Query{})
		return nil
	})
	g.Go(func() error {
		snap.plans = fetch[Plan](gctx, s.fetcher, logger, s.cols.Plans, remote.Query{Fields: []string{"id", "doc_no"}})
		return nil
	})
	if err := g.Wait(); err != nil {
		return snap, err
	}
	if err := ctx.Err(); err != nil {
		return snap, wrapCtx("load sources", err)
	}
	if snap.headers.unavailable() {
		return snap, sourceUnavailable(snap.headers.err)
	}
	return snap, nil
}

func wrapCtx(stage string, err error) error {
	return fmt.Errorf("dispatch: %s: %w", stage, err)
}
