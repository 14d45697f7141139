package canteen

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type pricedItem struct {
	Price     decimal.Decimal
	Available bool
}

// mergeCart validates the raw cart and folds duplicate menu item ids into one
// line, preserving first-seen order.
func mergeCart(cart []CartLine) ([]CartLine, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	idx := make(map[int64]int, len(cart))
	merged := make([]CartLine, 0, len(cart))
	for _, line := range cart {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("menu item %d: %w", line.MenuItemID, ErrInvalidQuantity)
		}
		if i, ok := idx[line.MenuItemID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		idx[line.MenuItemID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

// priceCart turns a merged cart into order lines using server-read prices.
// The whole cart is rejected if any item is missing or unavailable.
func priceCart(cart []CartLine, menu map[int64]pricedItem) ([]OrderLine, decimal.Decimal, error) {
	lines := make([]OrderLine, 0, len(cart))
	total := decimal.Zero
	for _, c := range cart {
		item, ok := menu[c.MenuItemID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("menu item %d: %w", c.MenuItemID, ErrItemNotFound)
		}
		if !item.Available {
			return nil, decimal.Zero, fmt.Errorf("menu item %d: %w", c.MenuItemID, ErrItemUnavailable)
		}
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
		lines = append(lines, OrderLine{
			MenuItemID: c.MenuItemID,
			Quantity:   c.Quantity,
			UnitPrice:  item.Price,
			LineTotal:  lineTotal,
		})
		total = total.Add(lineTotal)
	}
	return lines, total, nil
}
