package usecases

import (
	"bytes"
	"html/template"
	"orderchat/internal/entities"

	"github.com/shopspring/decimal"
)

const CurrencyGlyph = "₹"

var tableFuncs = template.FuncMap{
	"money": FormatMoney,
}

var productTable = template.Must(template.New("products").Funcs(tableFuncs).Parse(
	`<table style="width:100%; border-collapse: collapse; font-size: 14px;">` +
		`<thead><tr>` +
		`<th style="text-align: left; padding: 6px; border-bottom: 1px solid #ccc;">Name</th>` +
		`<th style="text-align: left; padding: 6px; border-bottom: 1px solid #ccc;">Price</th>` +
		`</tr></thead><tbody>` +
		`{{range .}}<tr>` +
		`<td style="padding: 6px; border-bottom: 1px solid #eee;">{{.Name}}</td>` +
		`<td style="padding: 6px; border-bottom: 1px solid #eee;">{{money .UnitPrice}}</td>` +
		`</tr>{{end}}` +
		`</tbody></table>`))

var cartTable = template.Must(template.New("cart").Funcs(tableFuncs).Parse(
	`<table style="width:100%; border-collapse: collapse; font-size: 14px;">` +
		`<thead><tr>` +
		`<th style="text-align: left; padding: 6px; border-bottom: 1px solid #ccc;">Item</th>` +
		`<th style="text-align: left; padding: 6px; border-bottom: 1px solid #ccc;">Qty</th>` +
		`<th style="text-align: left; padding: 6px; border-bottom: 1px solid #ccc;">Unit Price</th>` +
		`<th style="text-align: left; padding: 6px; border-bottom: 1px solid #ccc;">Total</th>` +
		`</tr></thead><tbody>` +
		`{{range .Items}}<tr>` +
		`<td style="padding: 6px;">{{.ProductName}}</td>` +
		`<td style="padding: 6px;">{{.Quantity}}</td>` +
		`<td style="padding: 6px;">{{money .UnitPrice}}</td>` +
		`<td style="padding: 6px;">{{money .TotalPrice}}</td>` +
		`</tr>{{end}}` +
		`<tr style="font-weight: bold; border-top: 1px solid #000;">` +
		`<td colspan="3" style="padding: 6px;">Total</td>` +
		`<td style="padding: 6px;">{{money .GrandTotal}}</td>` +
		`</tr>` +
		`</tbody></table>`))

// FormatMoney prefixes the amount with the currency glyph ("₹12.50")
func FormatMoney(d decimal.Decimal) string {
	return CurrencyGlyph + d.StringFixed(2)
}

// RenderProductTable renders the catalog as a Name / Price table.
// Names are HTML-escaped.
func RenderProductTable(products []entities.Product) (string, error) {
	var buf bytes.Buffer
	if err := productTable.Execute(&buf, products); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderCartTable renders cart lines followed by a bold grand total row.
func RenderCartTable(cart *entities.CartSnapshot) (string, error) {
	var buf bytes.Buffer
	if err := cartTable.Execute(&buf, cart); err != nil {
		return "", err
	}
	return buf.String(), nil
}
