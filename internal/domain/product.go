package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold applies when a product is created without one
const DefaultLowStockThreshold = 10

// Product represents a sellable item in a business catalog
type Product struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	BusinessID        string          `json:"business_id" db:"business_id"`
	Name              string          `json:"name" db:"name"`
	SKU               string          `json:"sku" db:"sku"`
	Description       string          `json:"description" db:"description"`
	Category          string          `json:"category" db:"category"`
	ImageURL          string          `json:"image_url" db:"image_url"`
	Price             decimal.Decimal `json:"price" db:"price"`
	CostPrice         decimal.Decimal `json:"cost_price" db:"cost_price"`
	Stock             int             `json:"stock" db:"stock"`
	LowStockThreshold int             `json:"low_stock_threshold" db:"low_stock_threshold"`
	IsActive          bool            `json:"is_active" db:"is_active"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// Category groups the products sharing a category label
type Category struct {
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
	TotalStock   int    `json:"total_stock"`
}

// IsLowStock reports whether the product is at or below its threshold
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.LowStockThreshold
}
