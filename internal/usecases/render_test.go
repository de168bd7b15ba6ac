package usecases

import (
	"orderchat/internal/entities"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProductTable(t *testing.T) {
	html, err := RenderProductTable(sampleCatalog().products)
	require.NoError(t, err)

	assert.Contains(t, html, ">Name</th>")
	assert.Contains(t, html, ">Price</th>")
	assert.Contains(t, html, ">Milk</td>")
	assert.Contains(t, html, ">₹45.50</td>")
	assert.Contains(t, html, ">₹30.00</td>")
	assert.Equal(t, 3, strings.Count(html, "<tr>"))
}

func TestRenderProductTable_EscapesNames(t *testing.T) {
	html, err := RenderProductTable([]entities.Product{{ID: "x", Name: "<b>Tea</b>", UnitPrice: decimal.NewFromInt(1)}})
	require.NoError(t, err)
	assert.NotContains(t, html, "<b>Tea</b>")
	assert.Contains(t, html, "&lt;b&gt;Tea&lt;/b&gt;")
}

func TestRenderCartTable(t *testing.T) {
	html, err := RenderCartTable(sampleCart())
	require.NoError(t, err)

	for _, header := range []string{"Item", "Qty", "Unit Price", "Total"} {
		assert.Contains(t, html, ">"+header+"</th>")
	}
	assert.Contains(t, html, ">2</td>")
	assert.Contains(t, html, `<td colspan="3" style="padding: 6px;">Total</td>`)
	assert.Contains(t, html, "font-weight: bold")
	assert.Equal(t, 2, strings.Count(html, ">₹91.00</td>"))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "₹12.50", FormatMoney(decimal.RequireFromString("12.50")))
	assert.Equal(t, "₹0.00", FormatMoney(decimal.Zero))
}
