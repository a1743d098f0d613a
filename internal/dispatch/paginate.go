package dispatch

import "github.com/odyssey-erp/dispatch-recon/internal/shared"

// Paginate slices rows to the requested page. Invalid page or limit values
// are clamped to one.
func Paginate(rows []Row, page, limit int) ([]Row, Meta) {
	p := shared.NewPagination(page, limit, len(rows))
	start, end := p.Bounds()
	out := make([]Row, end-start)
	copy(out, rows[start:end])
	return out, Meta{Total: p.Total, Page: p.Page, Limit: p.PerPage, TotalPages: p.TotalPages}
}
