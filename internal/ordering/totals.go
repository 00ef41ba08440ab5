package ordering

import (
	"inventory-hub/internal/domain"

	"github.com/shopspring/decimal"
)

// LineTotal is quantity times unit price
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// CalculateTotals returns the sum of line totals and that sum less discount,
// clamped at zero
func CalculateTotals(items []domain.OrderItem, discount decimal.Decimal) (subtotal, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(LineTotal(item.Quantity, item.UnitPrice))
	}

	total = subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return subtotal, total
}
