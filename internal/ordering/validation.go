package ordering

import (
	"fmt"
	"strings"

	"inventory-hub/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field names used in FieldErrors
const (
	FieldCustomerName = "customerName"
	FieldProductID    = "productId"
	FieldQuantity     = "quantity"
	FieldDiscount     = "discount"
)

// LineItem is one requested (customer, product, quantity) tuple. In bulk
// submissions every row is a LineItem; single orders share one customer.
type LineItem struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	ProductID     uuid.UUID
	Quantity      int
	Discount      decimal.Decimal
}

// BulkRow is a row of a bulk submission
type BulkRow = LineItem

// ValidateLineItem checks item against the last known product snapshot.
// A nil snapshot means the product could not be read. The snapshot may be
// stale; stock is checked again under lock at commit time.
func ValidateLineItem(item LineItem, snapshot *domain.Product) FieldErrors {
	return validateLineItem(item, snapshot, true)
}

// validateOrderItem is ValidateLineItem without the snapshot stock check.
// A single order learns about missing stock from the locked read only.
func validateOrderItem(item LineItem, snapshot *domain.Product) FieldErrors {
	return validateLineItem(item, snapshot, false)
}

func validateLineItem(item LineItem, snapshot *domain.Product, checkStock bool) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(item.CustomerName) == "" {
		errs[FieldCustomerName] = "Required"
	}

	switch {
	case item.ProductID == uuid.Nil:
		errs[FieldProductID] = "Select a product"
	case snapshot == nil:
		errs[FieldProductID] = "Product not found"
	}

	if item.Quantity < 1 {
		errs[FieldQuantity] = "Invalid quantity"
	} else if checkStock && snapshot != nil && item.Quantity > snapshot.Stock {
		errs[FieldQuantity] = fmt.Sprintf("Only %d in stock", snapshot.Stock)
	}

	if item.Discount.IsNegative() {
		errs[FieldDiscount] = "Invalid discount"
	}

	return errs
}
