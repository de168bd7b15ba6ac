package entities

import "github.com/shopspring/decimal"

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type CartItem struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// CartSnapshot is the server-side cart as seen by the chat at the time of the last fetch
type CartSnapshot struct {
	Items      []CartItem      `json:"items"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

func (c *CartSnapshot) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
