package dispatch

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Project joins each header with its lookups and linkage label.
func Project(headers []InvoiceHeader, lookups Lookups, labels LinkageLabels) []Row {
	rows := make([]Row, 0, len(headers))
	for _, h := range headers {
		rows = append(rows, projectRow(h, lookups, labels))
	}
	return rows
}

func projectRow(h InvoiceHeader, lookups Lookups, labels LinkageLabels) Row {
	id := int64(h.ID)
	plan := labels.Label(id)
	return Row{
		InvoiceNo:    h.InvoiceNo.String(),
		InvoiceID:    id,
		InvoiceDate:  invoiceDate(h),
		CustomerCode: h.CustomerCode.String(),
		Customer:     customerLabel(h.CustomerCode.String(), lookups.Customers),
		SalesmanID:   int64(h.SalesmanID),
		Salesman:     salesmanLabel(int64(h.SalesmanID), lookups.Salesmen),
		NetAmount:    money(h.NetAmount.Decimal),
		DispatchPlan: plan,
		Status:       Classify(plan, h.TransactionStatus.String()),
		SalesType:    salesTypeLabel(int64(h.SalesTypeID), lookups.Operations),
	}
}

// invoiceDate picks the first parsable date: dispatch date, invoice date,
// then the generic date and creation fields. Empty when none parse; such
// rows never match a date range.
func invoiceDate(h InvoiceHeader) string {
	return firstDate(h.DispatchDate, h.InvoiceDate, h.Date, h.DateCreated, h.CreatedAt)
}

func customerLabel(code string, customers map[string]Customer) string {
	if code == "" {
		return UnknownLabel
	}
	if c, ok := customers[code]; ok {
		if name := c.Name.String(); name != "" {
			return name
		}
	}
	return code
}

func salesmanLabel(id int64, salesmen map[int64]Salesman) string {
	if id == 0 {
		return UnknownLabel
	}
	s, ok := salesmen[id]
	if !ok || s.Name.String() == "" {
		return UnknownLabel
	}
	return strconv.FormatInt(id, 10) + " - " + s.Name.String()
}

func salesTypeLabel(id int64, operations map[int64]Operation) string {
	op, ok := operations[id]
	if !ok || op.Name.String() == "" {
		return UnknownLabel
	}
	return op.Name.String()
}

// money rounds to centavos and converts for JSON output. Non-finite results
// become zero.
func money(d decimal.Decimal) float64 {
	return finite(d.Round(2).InexactFloat64())
}

func finite(f float64) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}
