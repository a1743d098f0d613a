package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/odyssey-erp/dispatch-recon/internal/platform/remote"
)

// scopeChunk bounds the number of ids sent in one _in filter.
const scopeChunk = 200

// Fetcher reads whole collections; *remote.Client implements it.
type Fetcher interface {
	FetchAll(ctx context.Context, collection string, q remote.Query) remote.Result
}

// Collections names the upstream collections read by the service.
type Collections struct {
	Invoices   string
	Customers  string
	Salesmen   string
	Operations string
	Links      string
	Plans      string
	Lines      string
	Products   string
	Units      string
}

// DefaultCollections returns the stock collection names.
func DefaultCollections() Collections {
	return Collections{
		Invoices:   "sales_invoices",
		Customers:  "customers",
		Salesmen:   "salesmen",
		Operations: "operations",
		Links:      "dispatch_plan_invoices",
		Plans:      "dispatch_plans",
		Lines:      "sales_invoice_details",
		Products:   "products",
		Units:      "units",
	}
}

func (c Collections) withDefaults() Collections {
	def := DefaultCollections()
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	return Collections{
		Invoices:   pick(c.Invoices, def.Invoices),
		Customers:  pick(c.Customers, def.Customers),
		Salesmen:   pick(c.Salesmen, def.Salesmen),
		Operations: pick(c.Operations, def.Operations),
		Links:      pick(c.Links, def.Links),
		Plans:      pick(c.Plans, def.Plans),
		Lines:      pick(c.Lines, def.Lines),
		Products:   pick(c.Products, def.Products),
		Units:      pick(c.Units, def.Units),
	}
}

// source is one decoded collection read.
type source[T any] struct {
	records  []T
	complete bool
	err      error
}

// unavailable reports a read that produced nothing and did not finish.
func (s source[T]) unavailable() bool {
	return !s.complete && len(s.records) == 0
}

func fetch[T any](ctx context.Context, f Fetcher, logger *slog.Logger, collection string, q remote.Query) source[T] {
	res := f.FetchAll(ctx, collection, q)
	records, skipped := remote.Decode[T](res.Records)
	if !res.Complete {
		logger.Warn("source incomplete",
			slog.String("collection", collection),
			slog.Int("records", len(records)),
			slog.Any("error", res.Err))
	}
	if skipped > 0 {
		logger.Warn("malformed records skipped", slog.String("collection", collection), slog.Int("skipped", skipped))
	}
	return source[T]{records: records, complete: res.Complete, err: res.Err}
}

// fetchIn reads the records whose field matches one of ids, chunking the
// filter. Chunks are read one after another. Ids containing a comma are
// read one at a time with an equality filter.
func fetchIn[T any](ctx context.Context, f Fetcher, logger *slog.Logger, collection, field string, ids []string) source[T] {
	listed, single := remote.SplitListable(ids)
	queries := make([]remote.Query, 0, len(listed)/scopeChunk+1+len(single))
	for start := 0; start < len(listed); start += scopeChunk {
		end := start + scopeChunk
		if end > len(listed) {
			end = len(listed)
		}
		queries = append(queries, remote.Query{}.In(field, listed[start:end]))
	}
	for _, id := range single {
		queries = append(queries, remote.Query{}.Eq(field, id))
	}

	out := source[T]{complete: true}
	for _, q := range queries {
		part := fetch[T](ctx, f, logger, collection, q)
		out.records = append(out.records, part.records...)
		if !part.complete {
			out.complete = false
			out.err = part.err
		}
		if ctx.Err() != nil {
			out.complete = false
			out.err = ctx.Err()
			break
		}
	}
	return out
}

// sourceUnavailable wraps ErrSourceUnavailable, naming cause when there is one.
func sourceUnavailable(cause error) error {
	if cause == nil {
		return ErrSourceUnavailable
	}
	return fmt.Errorf("%w: %v", ErrSourceUnavailable, cause)
}

func idStrings(ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			out = append(out, strconv.FormatInt(id, 10))
		}
	}
	return out
}
