package dispatch

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// unboundedLimit makes the list pipeline return every filtered row in one page.
const unboundedLimit = math.MaxInt32

// LineItem is one resolved invoice line.
type LineItem struct {
	LineID    int64   `json:"lineId"`
	ProductID int64   `json:"productId"`
	Product   string  `json:"product"`
	Unit      string  `json:"unit"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Gross     float64 `json:"lineGross"`
	Discount  float64 `json:"discount"`
	Net       float64 `json:"lineNet"`
}

// ItemRow is one invoice line carrying its parent invoice's projection.
type ItemRow struct {
	Row
	LineItem
}

// ItemizedResult is the export-oriented view.
type ItemizedResult struct {
	Data     []ItemRow `json:"data"`
	Total    int       `json:"total"`
	Invoices int       `json:"invoices"`
	Range    Range     `json:"range"`
}

// Itemized expands the filtered invoices into one row per invoice line.
func (s *Service) Itemized(ctx context.Context, f Filters) (ItemizedResult, error) {
	list, err := s.List(ctx, ListQuery{Filters: f, Page: 1, Limit: unboundedLimit})
	if err != nil {
		return ItemizedResult{}, err
	}
	rows := list.Data

	ctx, logger := s.beginRun(ctx, "itemized")
	keys := NewInvoiceKeys()
	ids := make([]int64, 0, len(rows))
	nos := make([]string, 0, len(rows))
	for _, row := range rows {
		keys.Add(row.InvoiceID, row.InvoiceNo)
		ids = append(ids, row.InvoiceID)
		if row.InvoiceNo != "" {
			nos = append(nos, row.InvoiceNo)
		}
	}

	lines, err := s.loadLines(ctx, logger, idStrings(ids), nos)
	if err != nil {
		return ItemizedResult{}, err
	}
	products, units, err := s.loadLineRefs(ctx, logger, lines)
	if err != nil {
		return ItemizedResult{}, err
	}

	grouped := groupLines(lines, keys)
	out := make([]ItemRow, 0, len(lines))
	for _, row := range rows {
		for _, line := range grouped[row.InvoiceID] {
			out = append(out, ItemRow{Row: row, LineItem: resolveLine(line, products, units)})
		}
	}
	return ItemizedResult{Data: out, Total: len(out), Invoices: len(rows), Range: list.Range}, nil
}

// loadLines reads line details referenced by invoice id and by invoice number,
// since upstream rows use either key.
func (s *Service) loadLines(ctx context.Context, logger *slog.Logger, ids, nos []string) ([]InvoiceLine, error) {
	var byID, byNo source[InvoiceLine]
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		byID = fetchIn[InvoiceLine](gctx, s.fetcher, logger, s.cols.Lines, "invoice_id", ids)
		return nil
	})
	g.Go(func() error {
		byNo = fetchIn[InvoiceLine](gctx, s.fetcher, logger, s.cols.Lines, "invoice_no", nos)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, wrapCtx("load lines", err)
	}
	return mergeLines(byID.records, byNo.records), nil
}

// lineKey identifies a line that carries no id of its own.
type lineKey struct {
	invoiceID int64
	invoiceNo string
	productID int64
	unitID    int64
	quantity  string
	net       string
}

func keyOf(l InvoiceLine) lineKey {
	return lineKey{
		invoiceID: int64(l.InvoiceID),
		invoiceNo: l.InvoiceNo.String(),
		productID: int64(l.ProductID),
		unitID:    int64(l.UnitID),
		quantity:  l.Quantity.String(),
		net:       l.Net.String(),
	}
}

// mergeLines appends byNo to byID. A line without an id that both reads
// returned is kept once; identical lines within one read all survive.
func mergeLines(byID, byNo []InvoiceLine) []InvoiceLine {
	out := make([]InvoiceLine, 0, len(byID)+len(byNo))
	out = append(out, byID...)
	pending := make(map[lineKey]int)
	for _, l := range byID {
		if l.ID == 0 {
			pending[keyOf(l)]++
		}
	}
	for _, l := range byNo {
		if l.ID == 0 {
			k := keyOf(l)
			if pending[k] > 0 {
				pending[k]--
				continue
			}
		}
		out = append(out, l)
	}
	return out
}

func (s *Service) loadLineRefs(ctx context.Context, logger *slog.Logger, lines []InvoiceLine) (map[int64]Product, map[int64]Unit, error) {
	productIDs := make([]int64, 0, len(lines))
	unitIDs := make([]int64, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, int64(line.ProductID))
		unitIDs = append(unitIDs, int64(line.UnitID))
	}

	var products source[Product]
	var units source[Unit]
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products = fetchIn[Product](gctx, s.fetcher, logger, s.cols.Products, "product_id", idStrings(distinct(productIDs)))
		return nil
	})
	g.Go(func() error {
		units = fetchIn[Unit](gctx, s.fetcher, logger, s.cols.Units, "unit_id", idStrings(distinct(unitIDs)))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, wrapCtx("load line references", err)
	}
	return ProductIndex(products.records), UnitIndex(units.records), nil
}

// groupLines buckets lines by resolved invoice id, dropping duplicates and
// lines whose invoice cannot be resolved. Each bucket is ordered by line id.
func groupLines(lines []InvoiceLine, keys InvoiceKeys) map[int64][]InvoiceLine {
	grouped := make(map[int64][]InvoiceLine)
	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if id := int64(line.ID); id != 0 {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		invoiceID, ok := keys.Resolve(int64(line.InvoiceID), line.InvoiceNo.String())
		if !ok {
			continue
		}
		grouped[invoiceID] = append(grouped[invoiceID], line)
	}
	for id := range grouped {
		bucket := grouped[id]
		sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].ID < bucket[j].ID })
	}
	return grouped
}

func resolveLine(line InvoiceLine, products map[int64]Product, units map[int64]Unit) LineItem {
	qty := line.Quantity.Decimal
	price := line.UnitPrice.Decimal
	discount := line.Discount.Decimal
	gross := line.Gross.Or(qty.Mul(price))
	net := line.Net.Or(gross.Sub(discount))

	product := UnknownLabel
	if p, ok := products[int64(line.ProductID)]; ok && p.Name.String() != "" {
		product = p.Name.String()
	}
	unit := UnknownLabel
	if u, ok := units[int64(line.UnitID)]; ok && u.Label() != "" {
		unit = u.Label()
	}
	return LineItem{
		LineID:    int64(line.ID),
		ProductID: int64(line.ProductID),
		Product:   product,
		Unit:      unit,
		Quantity:  finite(qty.InexactFloat64()),
		UnitPrice: money(price),
		Gross:     money(gross),
		Discount:  money(discount),
		Net:       money(net),
	}
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sumLines(lines []LineItem, pick func(LineItem) float64) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(finite(pick(l))))
	}
	return total
}
