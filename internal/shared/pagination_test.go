package shared

import (
	"math"
	"testing"
)

func TestNewPaginationClampsInputs(t *testing.T) {
	p := NewPagination(0, -5, 3)
	if p.Page != 1 || p.PerPage != 1 {
		t.Fatalf("expected clamped page/perPage 1/1, got %d/%d", p.Page, p.PerPage)
	}
	if p.TotalPages != 3 {
		t.Fatalf("expected 3 total pages, got %d", p.TotalPages)
	}
}

func TestPaginationBounds(t *testing.T) {
	cases := []struct {
		name             string
		page, per, total int
		start, end       int
		totalPages       int
	}{
		{"first page", 1, 10, 15, 0, 10, 2},
		{"partial last page", 2, 10, 15, 10, 15, 2},
		{"beyond last page", 3, 10, 15, 15, 15, 2},
		{"empty set", 1, 10, 0, 0, 0, 0},
		{"exact multiple", 2, 5, 10, 5, 10, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(tc.page, tc.per, tc.total)
			start, end := p.Bounds()
			if start != tc.start || end != tc.end {
				t.Fatalf("expected [%d,%d), got [%d,%d)", tc.start, tc.end, start, end)
			}
			if p.TotalPages != tc.totalPages {
				t.Fatalf("expected %d pages, got %d", tc.totalPages, p.TotalPages)
			}
		})
	}
}

func TestPaginationBoundsAtIntegerExtremes(t *testing.T) {
	cases := []struct {
		name             string
		page, per, total int
		start, end       int
	}{
		{"page past wraparound", 1152921504606846977, 16, 15, 15, 15},
		{"max page and size", math.MaxInt, math.MaxInt, 15, 15, 15},
		{"max page", math.MaxInt, 10, 15, 15, 15},
		{"max size", 1, math.MaxInt, 15, 0, 15},
		{"second page of max size", 2, math.MaxInt, 15, 15, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := NewPagination(tc.page, tc.per, tc.total).Bounds()
			if start != tc.start || end != tc.end {
				t.Fatalf("expected [%d,%d), got [%d,%d)", tc.start, tc.end, start, end)
			}
		})
	}
}
