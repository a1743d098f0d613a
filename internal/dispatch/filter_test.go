package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleRows() []Row {
	return []Row{
		{InvoiceNo: "INV-1", InvoiceID: 1, InvoiceDate: "2025-03-01", CustomerCode: "C1", Customer: "Alpha Mart", SalesmanID: 7, Salesman: "7 - Ana", DispatchPlan: "DP-001", Status: StatusCleared},
		{InvoiceNo: "INV-2", InvoiceID: 2, InvoiceDate: "2025-03-31", CustomerCode: "C2", Customer: "Bravo", SalesmanID: 8, Salesman: "8 - Ben", DispatchPlan: UnlinkedLabel, Status: StatusUnlinked},
		{InvoiceNo: "INV-3", InvoiceID: 3, InvoiceDate: "", CustomerCode: "C1", Customer: "Alpha Mart", SalesmanID: 7, Salesman: "7 - Ana", DispatchPlan: "DP-002", Status: StatusInbound},
		{InvoiceNo: "INV-4", InvoiceID: 4, InvoiceDate: "2025-04-01", CustomerCode: "C2", Customer: "Bravo", SalesmanID: 8, Salesman: "8 - Ben", DispatchPlan: "DP-002", Status: StatusForDispatch},
	}
}

func invoiceNos(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.InvoiceNo)
	}
	return out
}

func TestDefaultRange(t *testing.T) {
	rng := DefaultRange(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, Range{From: "2024-02-01", To: "2024-02-29"}, rng)

	rng = DefaultRange(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, Range{From: "2025-12-01", To: "2025-12-31"}, rng)
}

func TestFilter(t *testing.T) {
	cases := []struct {
		name   string
		f      Filters
		expect []string
	}{
		{"no filters keeps undated", Filters{}, []string{"INV-1", "INV-2", "INV-3", "INV-4"}},
		{"range inclusive both ends", Filters{From: "2025-03-01", To: "2025-03-31"}, []string{"INV-1", "INV-2"}},
		{"open upper bound", Filters{From: "2025-03-31"}, []string{"INV-2", "INV-4"}},
		{"open lower bound", Filters{To: "2025-03-01"}, []string{"INV-1"}},
		{"status", Filters{Status: StatusInbound}, []string{"INV-3"}},
		{"salesman", Filters{SalesmanID: 8}, []string{"INV-2", "INV-4"}},
		{"customer", Filters{CustomerCode: "C1"}, []string{"INV-1", "INV-3"}},
		{"search plan any case", Filters{Search: "dp-002"}, []string{"INV-3", "INV-4"}},
		{"search salesman", Filters{Search: "ANA"}, []string{"INV-1", "INV-3"}},
		{"search unlinked label", Filters{Search: "unlinked"}, []string{"INV-2"}},
		{"combined", Filters{CustomerCode: "C2", From: "2025-04-01", Search: "inv-4"}, []string{"INV-4"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, invoiceNos(Filter(sampleRows(), tc.f)))
		})
	}
}

func TestSortRows(t *testing.T) {
	rows := []Row{
		{InvoiceNo: "B", InvoiceID: 1, InvoiceDate: "2025-03-01"},
		{InvoiceNo: "A", InvoiceID: 0, InvoiceDate: "2025-03-01"},
		{InvoiceNo: "C", InvoiceID: 0, InvoiceDate: "2025-03-01"},
		{InvoiceNo: "D", InvoiceID: 2, InvoiceDate: "2025-03-02"},
		{InvoiceNo: "E", InvoiceID: 9, InvoiceDate: ""},
	}
	SortRows(rows)
	assert.Equal(t, []string{"D", "B", "A", "C", "E"}, invoiceNos(rows))
}
