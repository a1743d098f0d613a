package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/dispatch-recon/internal/platform/remote"
)

// DetailHeader is the projected invoice plus detail-only fields.
type DetailHeader struct {
	Row
	CustomerAddress   string `json:"customerAddress"`
	TransactionStatus string `json:"transactionStatus"`
}

// Summary restates the invoice's monetary fields.
type Summary struct {
	Gross    float64 `json:"gross"`
	Discount float64 `json:"discount"`
	Vatable  float64 `json:"vatable"`
	Net      float64 `json:"net"`
	VAT      float64 `json:"vat"`
	Total    float64 `json:"total"`
	Balance  float64 `json:"balance"`
}

// InvoiceDetail is the single-invoice view.
type InvoiceDetail struct {
	Header  DetailHeader `json:"header"`
	Lines   []LineItem   `json:"lines"`
	Summary Summary      `json:"summary"`
}

// Detail loads one invoice by invoice number, falling back to its numeric id.
func (s *Service) Detail(ctx context.Context, ref string) (InvoiceDetail, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return InvoiceDetail{}, ErrInvoiceNotFound
	}
	ctx, logger := s.beginRun(ctx, "detail")

	header, err := s.findHeader(ctx, logger, ref)
	if err != nil {
		return InvoiceDetail{}, err
	}
	invoiceID := int64(header.ID)
	idScope := []string{strconv.FormatInt(invoiceID, 10)}

	var (
		customers  source[Customer]
		salesmen   source[Salesman]
		operations source[Operation]
		links      source[LinkRecord]
		lines      []InvoiceLine
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if code := header.CustomerCode.String(); code != "" {
			customers = fetch[Customer](gctx, s.fetcher, logger, s.cols.Customers, remote.Query{}.Eq("customer_code", code))
		}
		return nil
	})
	g.Go(func() error {
		if header.SalesmanID != 0 {
			salesmen = fetch[Salesman](gctx, s.fetcher, logger, s.cols.Salesmen, remote.Query{}.Eq("id", strconv.FormatInt(int64(header.SalesmanID), 10)))
		}
		return nil
	})
	g.Go(func() error {
		operations = fetch[Operation](gctx, s.fetcher, logger, s.cols.Operations, remote.Query{})
		return nil
	})
	g.Go(func() error {
		links = fetchIn[LinkRecord](gctx, s.fetcher, logger, s.cols.Links, "invoice_id", idScope)
		return nil
	})
	g.Go(func() error {
		var nos []string
		if no := header.InvoiceNo.String(); no != "" {
			nos = []string{no}
		}
		var err error
		lines, err = s.loadLines(gctx, logger, idScope, nos)
		return err
	})
	if err := g.Wait(); err != nil {
		return InvoiceDetail{}, err
	}
	if err := ctx.Err(); err != nil {
		return InvoiceDetail{}, wrapCtx("load detail sources", err)
	}

	// Second hop: only the plans and line references actually referenced.
	var plans source[Plan]
	var products map[int64]Product
	var units map[int64]Unit
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		plans = fetchIn[Plan](gctx, s.fetcher, logger, s.cols.Plans, "id", idStrings(linkedPlanIDs(links.records)))
		return nil
	})
	g.Go(func() error {
		var err error
		products, units, err = s.loadLineRefs(gctx, logger, lines)
		return err
	})
	if err := g.Wait(); err != nil {
		return InvoiceDetail{}, err
	}

	lookups := Lookups{
		Customers:  CustomerIndex(customers.records),
		Salesmen:   SalesmanIndex(salesmen.records),
		Operations: OperationIndex(operations.records),
	}
	labels := ResolveLinkage(links.records, PlanIndex(plans.records), []int64{invoiceID})
	row := projectRow(header, lookups, labels)

	keys := NewInvoiceKeys()
	keys.Add(invoiceID, header.InvoiceNo.String())
	items := make([]LineItem, 0, len(lines))
	for _, line := range groupLines(lines, keys)[invoiceID] {
		items = append(items, resolveLine(line, products, units))
	}

	detail := InvoiceDetail{
		Header: DetailHeader{
			Row:               row,
			CustomerAddress:   lookups.Customers[header.CustomerCode.String()].FullAddress(),
			TransactionStatus: header.TransactionStatus.String(),
		},
		Lines:   items,
		Summary: summarize(header, items, s.vatRate),
	}
	return detail, nil
}

// findHeader resolves ref by invoice number first, then by numeric id.
func (s *Service) findHeader(ctx context.Context, logger *slog.Logger, ref string) (InvoiceHeader, error) {
	byNo := fetch[InvoiceHeader](ctx, s.fetcher, logger, s.cols.Invoices, remote.Query{Fields: headerFields}.Eq("invoice_no", ref))
	candidates := byNo.records
	failed := byNo.unavailable()
	cause := byNo.err

	if len(candidates) == 0 {
		if id, err := strconv.ParseInt(ref, 10, 64); err == nil && id > 0 {
			byID := fetch[InvoiceHeader](ctx, s.fetcher, logger, s.cols.Invoices, remote.Query{Fields: headerFields}.Eq("id", ref))
			candidates = byID.records
			failed = failed || byID.unavailable()
			if byID.err != nil {
				cause = byID.err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return InvoiceHeader{}, wrapCtx("find invoice", err)
	}
	if len(candidates) == 0 {
		if failed {
			return InvoiceHeader{}, sourceUnavailable(cause)
		}
		return InvoiceHeader{}, fmt.Errorf("%w: %s", ErrInvoiceNotFound, ref)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	for _, c := range candidates {
		if c.InvoiceNo.String() == ref {
			return c, nil
		}
	}
	return candidates[0], nil
}

// summarize derives the detail summary. Net amounts are VAT-inclusive, so
// vatable = net / (1 + rate) and vat = net - vatable.
func summarize(h InvoiceHeader, lines []LineItem, vatRate decimal.Decimal) Summary {
	net := h.NetAmount.Decimal
	gross := h.GrossAmount.Or(sumLines(lines, func(l LineItem) float64 { return l.Gross }))
	discount := h.DiscountAmount.Or(sumLines(lines, func(l LineItem) float64 { return l.Discount }))
	vatable := net.Div(decimal.NewFromInt(1).Add(vatRate)).Round(2)
	vat := net.Round(2).Sub(vatable)
	balance := h.Balance.Or(net)
	return Summary{
		Gross:    money(gross),
		Discount: money(discount),
		Vatable:  money(vatable),
		Net:      money(net),
		VAT:      money(vat),
		Total:    money(net),
		Balance:  money(balance),
	}
}
