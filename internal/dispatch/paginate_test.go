package dispatch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	rows := make([]Row, 45)
	for i := range rows {
		rows[i].InvoiceID = int64(i + 1)
	}

	page, meta := Paginate(rows, 3, 20)
	assert.Len(t, page, 5)
	assert.EqualValues(t, 41, page[0].InvoiceID)
	assert.Equal(t, Meta{Total: 45, Page: 3, Limit: 20, TotalPages: 3}, meta)

	page, meta = Paginate(rows, 9, 20)
	assert.Empty(t, page)
	assert.NotNil(t, page)
	assert.Equal(t, 9, meta.Page)

	page, meta = Paginate(rows, 0, -5)
	assert.Len(t, page, 1)
	assert.Equal(t, Meta{Total: 45, Page: 1, Limit: 1, TotalPages: 45}, meta)

	page, meta = Paginate(nil, 1, 20)
	assert.Empty(t, page)
	assert.Equal(t, 0, meta.TotalPages)
}

func TestPaginateLargePageIsEmpty(t *testing.T) {
	rows := make([]Row, 15)

	page, _ := Paginate(rows, 1152921504606846977, 16)
	assert.Empty(t, page)

	page, _ = Paginate(rows, math.MaxInt, math.MaxInt)
	assert.Empty(t, page)

	page, meta := Paginate(rows, 1, math.MaxInt)
	assert.Len(t, page, 15)
	assert.Equal(t, 1, meta.TotalPages)
}
