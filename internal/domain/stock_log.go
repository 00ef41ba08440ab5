package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StockLogType is the direction of a stock movement
type StockLogType string

const (
	StockLogIn         StockLogType = "in"
	StockLogOut        StockLogType = "out"
	StockLogAdjustment StockLogType = "adjustment"
)

// ParseStockLogType rejects values outside the known set
func ParseStockLogType(s string) (StockLogType, error) {
	switch StockLogType(s) {
	case StockLogIn, StockLogOut, StockLogAdjustment:
		return StockLogType(s), nil
	}
	return "", fmt.Errorf("unknown stock log type %q", s)
}

// Stock log reasons written by the system
const (
	ReasonOrderSale        = "Order sale"
	ReasonBulkOrderSale    = "Bulk order sale"
	ReasonInitialStock     = "Initial stock"
	ReasonRestock          = "Restock"
	ReasonManualAdjustment = "Manual adjustment"
)

// StockLog is an append-only audit record of a stock change
type StockLog struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	BusinessID    string       `json:"business_id" db:"business_id"`
	ProductID     uuid.UUID    `json:"product_id" db:"product_id"`
	ProductName   string       `json:"product_name" db:"product_name"`
	Type          StockLogType `json:"type" db:"type"`
	Quantity      int          `json:"quantity" db:"quantity"`
	Reason        string       `json:"reason" db:"reason"`
	PreviousStock int          `json:"previous_stock" db:"previous_stock"`
	NewStock      int          `json:"new_stock" db:"new_stock"`
	CreatedBy     string       `json:"created_by" db:"created_by"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// Consistent checks that previous and new stock agree with type and quantity
func (l *StockLog) Consistent() bool {
	if l.Quantity < 0 || l.NewStock < 0 {
		return false
	}
	switch l.Type {
	case StockLogOut:
		return l.NewStock == l.PreviousStock-l.Quantity
	case StockLogIn:
		return l.NewStock == l.PreviousStock+l.Quantity
	case StockLogAdjustment:
		diff := l.NewStock - l.PreviousStock
		if diff < 0 {
			diff = -diff
		}
		return diff == l.Quantity
	}
	return false
}
