package canteen

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMergeCart(t *testing.T) {
	t.Run("empty cart rejected", func(t *testing.T) {
		_, err := mergeCart(nil)
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("non-positive quantity rejected", func(t *testing.T) {
		_, err := mergeCart([]CartLine{{MenuItemID: 1, Quantity: 0}})
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = mergeCart([]CartLine{{MenuItemID: 1, Quantity: -2}})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("duplicates fold into one line", func(t *testing.T) {
		merged, err := mergeCart([]CartLine{
			{MenuItemID: 7, Quantity: 1},
			{MenuItemID: 9, Quantity: 2},
			{MenuItemID: 7, Quantity: 3},
		})
		require.NoError(t, err)
		assert.Equal(t, []CartLine{{MenuItemID: 7, Quantity: 4}, {MenuItemID: 9, Quantity: 2}}, merged)
	})
}

func TestPriceCart(t *testing.T) {
	menu := map[int64]pricedItem{
		1: {Price: dec("12.50"), Available: true},
		2: {Price: dec("3.30"), Available: true},
		3: {Price: dec("8.00"), Available: false},
	}

	t.Run("totals reconcile with lines", func(t *testing.T) {
		lines, total, err := priceCart([]CartLine{
			{MenuItemID: 1, Quantity: 2},
			{MenuItemID: 2, Quantity: 3},
		}, menu)
		require.NoError(t, err)
		require.Len(t, lines, 2)

		assert.True(t, lines[0].UnitPrice.Equal(dec("12.50")))
		assert.True(t, lines[0].LineTotal.Equal(dec("25.00")))
		assert.True(t, lines[1].LineTotal.Equal(dec("9.90")))
		assert.True(t, total.Equal(dec("34.90")))

		// invariant: order total equals the sum of line totals
		sum := decimal.Zero
		for _, l := range lines {
			sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
		assert.True(t, total.Equal(sum))
	})

	t.Run("unknown item rejects whole cart", func(t *testing.T) {
		_, _, err := priceCart([]CartLine{
			{MenuItemID: 1, Quantity: 1},
			{MenuItemID: 99999, Quantity: 1},
		}, menu)
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("unavailable item rejects whole cart", func(t *testing.T) {
		_, _, err := priceCart([]CartLine{
			{MenuItemID: 3, Quantity: 1},
		}, menu)
		assert.ErrorIs(t, err, ErrItemUnavailable)
	})

	t.Run("empty menu yields not found", func(t *testing.T) {
		_, _, err := priceCart([]CartLine{{MenuItemID: 99999, Quantity: 1}}, map[int64]pricedItem{})
		assert.True(t, errors.Is(err, ErrItemNotFound))
	})
}
