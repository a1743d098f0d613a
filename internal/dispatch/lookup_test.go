package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexLastWriteWins(t *testing.T) {
	idx := CustomerIndex([]Customer{
		{Code: "C001", Name: "Old Name"},
		{Code: "", Name: "Nameless"},
		{Code: "C001", Name: "New Name"},
	})
	assert.Len(t, idx, 1)
	assert.Equal(t, "New Name", idx["C001"].Name.String())
}

func TestInvoiceKeysPreferNumericID(t *testing.T) {
	keys := NewInvoiceKeys()
	keys.Add(55, "INV-100")

	id, ok := keys.Resolve(77, "INV-100")
	assert.True(t, ok)
	assert.EqualValues(t, 77, id)

	id, ok = keys.Resolve(0, " INV-100 ")
	assert.True(t, ok)
	assert.EqualValues(t, 55, id)

	_, ok = keys.Resolve(0, "INV-999")
	assert.False(t, ok)
}
