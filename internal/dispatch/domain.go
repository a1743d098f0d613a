package dispatch

import (
	"errors"
	"strings"
)

const (
	dateLayout = "2006-01-02"

	// UnlinkedLabel is the dispatch-plan label of an invoice with no plan.
	UnlinkedLabel = "unlinked"
	// UnknownLabel replaces unresolvable references.
	UnknownLabel = "Unknown"
	// AllSentinel disables an equality filter.
	AllSentinel = "all"
)

var (
	// ErrSourceUnavailable is returned when invoice headers could not be read at all.
	ErrSourceUnavailable = errors.New("dispatch: invoice source unavailable")
	// ErrInvoiceNotFound is returned by Detail for an unknown reference.
	ErrInvoiceNotFound = errors.New("dispatch: invoice not found")
	// ErrInvalidQuery marks a rejected query parameter.
	ErrInvalidQuery = errors.New("dispatch: invalid query")
)

// Status is the delivery lifecycle stage of an invoice.
type Status string

const (
	StatusUnlinked    Status = "Unlinked"
	StatusForDispatch Status = "For Dispatch"
	StatusInbound     Status = "Inbound"
	StatusCleared     Status = "Cleared"
)

// AllStatuses lists every status in display order.
func AllStatuses() []Status {
	return []Status{StatusUnlinked, StatusForDispatch, StatusInbound, StatusCleared}
}

// IsValid reports whether s is one of the four lifecycle stages.
func (s Status) IsValid() bool {
	switch s {
	case StatusUnlinked, StatusForDispatch, StatusInbound, StatusCleared:
		return true
	default:
		return false
	}
}

// ParseStatus matches raw case-insensitively. "" and "all" yield ok with an
// empty status.
func ParseStatus(raw string) (Status, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, AllSentinel) {
		return "", true
	}
	for _, s := range AllStatuses() {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}

// InvoiceHeader is a sales invoice as stored upstream.
type InvoiceHeader struct {
	ID                FlexInt `json:"id"`
	InvoiceNo         Flex    `json:"invoice_no"`
	DispatchDate      Flex    `json:"dispatch_date"`
	InvoiceDate       Flex    `json:"invoice_date"`
	Date              Flex    `json:"date"`
	DateCreated       Flex    `json:"date_created"`
	CreatedAt         Flex    `json:"created_at"`
	CustomerCode      Flex    `json:"customer_code"`
	SalesmanID        FlexInt `json:"salesman_id"`
	SalesTypeID       FlexInt `json:"sales_type"`
	GrossAmount       Amount  `json:"gross_amount"`
	DiscountAmount    Amount  `json:"discount_amount"`
	NetAmount         Amount  `json:"net_amount"`
	VATAmount         Amount  `json:"vat_amount"`
	Balance           Amount  `json:"balance"`
	TransactionStatus Flex    `json:"transaction_status"`
}

// headerFields is the field selection sent upstream for invoice headers.
var headerFields = []string{
	"id", "invoice_no", "dispatch_date", "invoice_date", "date", "date_created", "created_at",
	"customer_code", "salesman_id", "sales_type", "gross_amount", "discount_amount",
	"net_amount", "vat_amount", "balance", "transaction_status",
}

// LinkRecord associates one invoice with one dispatch plan.
type LinkRecord struct {
	InvoiceID FlexInt `json:"invoice_id"`
	PlanID    FlexInt `json:"dispatch_plan_id"`
}

// Plan is a dispatch plan; only its document number matters here.
type Plan struct {
	ID    FlexInt `json:"id"`
	DocNo Flex    `json:"doc_no"`
}

// Customer is customer reference data.
type Customer struct {
	Code     Flex `json:"customer_code"`
	Name     Flex `json:"customer_name"`
	Address  Flex `json:"address"`
	Barangay Flex `json:"brgy"`
	City     Flex `json:"city"`
	Province Flex `json:"province"`
}

// FullAddress joins the non-empty address parts.
func (c Customer) FullAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []Flex{c.Address, c.Barangay, c.City, c.Province} {
		if s := p.String(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Salesman is salesman reference data.
type Salesman struct {
	ID   FlexInt `json:"id"`
	Name Flex    `json:"salesman_name"`
}

// Operation is a sales type.
type Operation struct {
	ID   FlexInt `json:"id"`
	Name Flex    `json:"operation_name"`
}

// InvoiceLine is one line of an invoice. Upstream references the parent by
// invoice_id on some rows and invoice_no on others.
type InvoiceLine struct {
	ID        FlexInt `json:"id"`
	InvoiceID FlexInt `json:"invoice_id"`
	InvoiceNo Flex    `json:"invoice_no"`
	ProductID FlexInt `json:"product_id"`
	UnitID    FlexInt `json:"unit"`
	Quantity  Amount  `json:"quantity"`
	UnitPrice Amount  `json:"unit_price"`
	Gross     Amount  `json:"gross_amount"`
	Discount  Amount  `json:"discount_amount"`
	Net       Amount  `json:"net_amount"`
}

// Product is product reference data.
type Product struct {
	ID   FlexInt `json:"product_id"`
	Name Flex    `json:"product_name"`
}

// Unit is unit-of-measure reference data.
type Unit struct {
	ID       FlexInt `json:"unit_id"`
	Name     Flex    `json:"unit_name"`
	Shortcut Flex    `json:"unit_shortcut"`
}

// Label prefers the unit shortcut.
func (u Unit) Label() string {
	if s := u.Shortcut.String(); s != "" {
		return s
	}
	return u.Name.String()
}

// Row is the projected, display-ready view of one invoice.
type Row struct {
	InvoiceNo    string  `json:"invoiceNo"`
	InvoiceID    int64   `json:"invoiceId"`
	InvoiceDate  string  `json:"invoiceDate"`
	CustomerCode string  `json:"customerCode"`
	Customer     string  `json:"customer"`
	SalesmanID   int64   `json:"salesmanId"`
	Salesman     string  `json:"salesman"`
	NetAmount    float64 `json:"netAmount"`
	DispatchPlan string  `json:"dispatchPlan"`
	Status       Status  `json:"status"`
	SalesType    string  `json:"salesType"`
}

// Filters narrows the projected rows. Zero values disable a filter.
type Filters struct {
	Status       Status
	SalesmanID   int64
	CustomerCode string
	From         string
	To           string
	Search       string
}

// ListQuery is a list request after parsing.
type ListQuery struct {
	Filters
	Page  int
	Limit int
}

// Meta describes the page returned.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Range is the effective date range of a list.
type Range struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ListResult is the list view response.
type ListResult struct {
	Data         []Row        `json:"data"`
	Meta         Meta         `json:"meta"`
	Aggregations Aggregations `json:"aggregations"`
	Range        Range        `json:"range"`
}

// SummaryResult is the chart-only response.
type SummaryResult struct {
	Aggregations Aggregations `json:"aggregations"`
	Range        Range        `json:"range"`
}
