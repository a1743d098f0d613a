package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/odyssey-erp/dispatch-recon/internal/platform/remote"
)

// fakeStore serves in-memory collections and applies _eq/_in filters the way
// the record store does.
type fakeStore struct {
	mu          sync.Mutex
	collections map[string][]map[string]any
	failing     map[string]bool
	queries     map[string][]remote.Query
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		collections: make(map[string][]map[string]any),
		failing:     make(map[string]bool),
		queries:     make(map[string][]remote.Query),
	}
}

func (f *fakeStore) add(collection string, records ...map[string]any) {
	f.collections[collection] = append(f.collections[collection], records...)
}

func (f *fakeStore) FetchAll(ctx context.Context, collection string, q remote.Query) remote.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries[collection] = append(f.queries[collection], q)
	if err := ctx.Err(); err != nil {
		return remote.Result{Collection: collection, Err: err}
	}
	if f.failing[collection] {
		return remote.Result{Collection: collection, Err: fmt.Errorf("%w: 503", remote.ErrStatus)}
	}
	res := remote.Result{Collection: collection, Complete: true, Pages: 1}
	for _, rec := range f.collections[collection] {
		if !matches(rec, q) {
			continue
		}
		raw, _ := json.Marshal(rec)
		res.Records = append(res.Records, raw)
	}
	return res
}

func matches(rec map[string]any, q remote.Query) bool {
	for key, value := range q.Filter {
		field, op := parseFilterKey(key)
		actual := fmt.Sprint(rec[field])
		switch op {
		case "_eq":
			if actual != value {
				return false
			}
		case "_in":
			found := false
			for _, v := range strings.Split(value, ",") {
				if v == actual {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// parseFilterKey splits "filter[field][_op]".
func parseFilterKey(key string) (string, string) {
	key = strings.TrimPrefix(key, "filter[")
	parts := strings.SplitN(key, "][", 2)
	if len(parts) != 2 {
		return key, ""
	}
	return parts[0], strings.TrimSuffix(parts[1], "]")
}

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
}

func newTestService(store *fakeStore) *Service {
	svc := NewService(store, discardLogger(), Config{})
	svc.WithNow(fixedNow)
	return svc
}

// seedStore loads a small but complete data set dated March 2025.
func seedStore() *fakeStore {
	store := newFakeStore()
	cols := DefaultCollections()
	store.add(cols.Invoices,
		map[string]any{"id": 55, "invoice_no": "INV-100", "dispatch_date": "2025-03-02", "customer_code": "C001", "salesman_id": 7, "sales_type": 1, "net_amount": "100.00", "transaction_status": "Cleared"},
		map[string]any{"id": 56, "invoice_no": "INV-101", "invoice_date": "2025-03-05T08:00:00Z", "customer_code": "C002", "salesman_id": "8", "sales_type": 2, "net_amount": 200, "transaction_status": "  "},
		map[string]any{"id": 57, "invoice_no": "INV-102", "date": "2025-03-09 13:00:00", "customer_code": "C404", "salesman_id": 99, "sales_type": 3, "net_amount": "1,300.50", "transaction_status": "CLEARED by AR"},
		map[string]any{"id": 58, "invoice_no": "INV-103", "dispatch_date": "2025-03-09", "customer_code": "C001", "salesman_id": 7, "sales_type": 1, "net_amount": "NaN", "transaction_status": "Inbound"},
		map[string]any{"id": 59, "invoice_no": "INV-104", "dispatch_date": "2025-02-27", "customer_code": "C001", "salesman_id": 7, "sales_type": 1, "net_amount": 500, "transaction_status": "Cleared"},
		map[string]any{"id": 60, "invoice_no": "INV-105", "customer_code": "C002", "salesman_id": 8, "net_amount": 10, "transaction_status": "Cleared"},
	)
	store.add(cols.Customers,
		map[string]any{"customer_code": "C001", "customer_name": "Alpha Mart", "address": "12 Rizal St", "city": "Cebu"},
		map[string]any{"customer_code": "C002", "customer_name": "Bravo Store"},
	)
	store.add(cols.Salesmen,
		map[string]any{"id": 7, "salesman_name": "Ana"},
		map[string]any{"id": 8, "salesman_name": "Ben"},
	)
	store.add(cols.Operations,
		map[string]any{"id": 1, "operation_name": "Cash"},
		map[string]any{"id": 2, "operation_name": "Terms"},
	)
	store.add(cols.Plans,
		map[string]any{"id": 1, "doc_no": "DP-001"},
		map[string]any{"id": 2, "doc_no": "DP-002"},
		map[string]any{"id": 3, "doc_no": "DP-003"},
	)
	store.add(cols.Links,
		map[string]any{"invoice_id": 56, "dispatch_plan_id": 2},
		map[string]any{"invoice_id": 56, "dispatch_plan_id": 1},
		map[string]any{"invoice_id": 56, "dispatch_plan_id": 1},
		map[string]any{"invoice_id": 57, "dispatch_plan_id": 3},
		map[string]any{"invoice_id": 58, "dispatch_plan_id": 3},
		map[string]any{"invoice_id": 59, "dispatch_plan_id": 3},
		map[string]any{"invoice_id": 60, "dispatch_plan_id": 3},
	)
	store.add(cols.Lines,
		map[string]any{"id": 2, "invoice_id": 56, "invoice_no": "INV-101", "product_id": 10, "unit": 1, "quantity": "2", "unit_price": "50", "net_amount": "100"},
		map[string]any{"id": 1, "invoice_id": 56, "product_id": 11, "unit": 2, "quantity": 1, "unit_price": 100},
		map[string]any{"id": 3, "invoice_no": "INV-100", "product_id": 10, "unit": 9, "quantity": 4, "unit_price": 25, "discount_amount": 0},
		map[string]any{"id": 4, "invoice_id": 999, "product_id": 10, "unit": 1, "quantity": 1, "unit_price": 1},
	)
	store.add(cols.Products,
		map[string]any{"product_id": 10, "product_name": "Rice 25kg"},
		map[string]any{"product_id": 11, "product_name": "Sugar 1kg"},
	)
	store.add(cols.Units,
		map[string]any{"unit_id": 1, "unit_name": "Sack", "unit_shortcut": "sk"},
		map[string]any{"unit_id": 2, "unit_name": "Piece"},
	)
	return store
}
