package dispatch

import "strings"

// Index builds a key -> record map. Later records win on duplicate keys and
// records with a zero key are skipped.
func Index[K comparable, T any](records []T, key func(T) K) map[K]T {
	var zero K
	out := make(map[K]T, len(records))
	for _, rec := range records {
		k := key(rec)
		if k == zero {
			continue
		}
		out[k] = rec
	}
	return out
}

// CustomerIndex keys customers by code.
func CustomerIndex(records []Customer) map[string]Customer {
	return Index(records, func(c Customer) string { return c.Code.String() })
}

// SalesmanIndex keys salesmen by id.
func SalesmanIndex(records []Salesman) map[int64]Salesman {
	return Index(records, func(s Salesman) int64 { return int64(s.ID) })
}

// OperationIndex keys operations by id.
func OperationIndex(records []Operation) map[int64]Operation {
	return Index(records, func(o Operation) int64 { return int64(o.ID) })
}

// PlanIndex keys dispatch plans by id.
func PlanIndex(records []Plan) map[int64]Plan {
	return Index(records, func(p Plan) int64 { return int64(p.ID) })
}

// ProductIndex keys products by id.
func ProductIndex(records []Product) map[int64]Product {
	return Index(records, func(p Product) int64 { return int64(p.ID) })
}

// UnitIndex keys units by id.
func UnitIndex(records []Unit) map[int64]Unit {
	return Index(records, func(u Unit) int64 { return int64(u.ID) })
}

// Lookups bundles the reference indexes used by the projector.
type Lookups struct {
	Customers  map[string]Customer
	Salesmen   map[int64]Salesman
	Operations map[int64]Operation
}

// InvoiceKeys resolves every invoice reference to the numeric invoice id so
// the rest of the pipeline never branches on which key upstream used.
type InvoiceKeys struct {
	byNo map[string]int64
}

// NewInvoiceKeys returns an empty resolver.
func NewInvoiceKeys() InvoiceKeys {
	return InvoiceKeys{byNo: make(map[string]int64)}
}

// Add registers the invoice number of id.
func (k InvoiceKeys) Add(id int64, invoiceNo string) {
	if id != 0 && invoiceNo != "" {
		k.byNo[invoiceNo] = id
	}
}

// Resolve prefers the numeric id and falls back to the invoice number.
func (k InvoiceKeys) Resolve(id int64, invoiceNo string) (int64, bool) {
	if id != 0 {
		return id, true
	}
	resolved, ok := k.byNo[strings.TrimSpace(invoiceNo)]
	return resolved, ok
}
