package repository

import (
	"fmt"
	"orderchat/internal/entities"

	"github.com/shopspring/decimal"
)

// cartLine is a cart row as stored; prices are kept as NUMERIC/TEXT and
// converted here so both backends share the arithmetic.
type cartLine struct {
	ProductName string
	Quantity    int
	UnitPrice   string
}

func buildCart(lines []cartLine) (*entities.CartSnapshot, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	cart := &entities.CartSnapshot{
		Items:      make([]entities.CartItem, 0, len(lines)),
		GrandTotal: decimal.Zero,
	}
	for _, l := range lines {
		unit, err := decimal.NewFromString(l.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid unit price for %s: %w", l.ProductName, err)
		}
		total := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
		cart.Items = append(cart.Items, entities.CartItem{
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   unit,
			TotalPrice:  total,
		})
		cart.GrandTotal = cart.GrandTotal.Add(total)
	}
	return cart, nil
}

func orderPlacedText(orderID int64, total decimal.Decimal) string {
	return fmt.Sprintf(orderPlacedFormat, orderID, total.StringFixed(2))
}
