package dispatch

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// DefaultRange returns the first and last day of now's calendar month.
func DefaultRange(now time.Time) Range {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)
	return Range{From: first.Format(dateLayout), To: last.Format(dateLayout)}
}

// Filter keeps the rows matching every filter set in f: status, salesman,
// customer, date range (inclusive) and free-text search, in that order.
func Filter(rows []Row, f Filters) []Row {
	caser := cases.Fold()
	needle := fold(caser, f.Search)
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if f.Status != "" && row.Status != f.Status {
			continue
		}
		if f.SalesmanID != 0 && row.SalesmanID != f.SalesmanID {
			continue
		}
		if f.CustomerCode != "" && row.CustomerCode != f.CustomerCode {
			continue
		}
		if !inRange(row.InvoiceDate, f.From, f.To) {
			continue
		}
		if needle != "" && !strings.Contains(searchText(caser, row), needle) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func inRange(date, from, to string) bool {
	if from == "" && to == "" {
		return true
	}
	if date == "" {
		return false
	}
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

func searchText(caser cases.Caser, row Row) string {
	return caser.String(strings.Join([]string{row.InvoiceNo, row.Customer, row.Salesman, row.DispatchPlan}, " "))
}

// SortRows orders rows newest first with stable tie-breaks.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.InvoiceDate != b.InvoiceDate {
			return a.InvoiceDate > b.InvoiceDate
		}
		if a.InvoiceID != b.InvoiceID {
			return a.InvoiceID > b.InvoiceID
		}
		return a.InvoiceNo < b.InvoiceNo
	})
}
