package events

import (
	"context"
	"time"

	"inventory-hub/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types, also sent in the event-type record header
const (
	TypeOrderCreated = "order.created"
	TypeStockChanged = "stock.changed"
)

// Publisher announces state changes to other systems
type Publisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	PublishStockChanged(ctx context.Context, log *domain.StockLog) error
	Close()
}

type OrderItemPayload struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderCreatedEvent struct {
	Type         string             `json:"type"`
	OccurredAt   time.Time          `json:"occurred_at"`
	BusinessID   string             `json:"business_id"`
	OrderID      uuid.UUID          `json:"order_id"`
	OrderNumber  string             `json:"order_number"`
	CustomerName string             `json:"customer_name"`
	Total        decimal.Decimal    `json:"total"`
	Items        []OrderItemPayload `json:"items"`
	CreatedBy    string             `json:"created_by"`
}

type StockChangedEvent struct {
	Type          string    `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	BusinessID    string    `json:"business_id"`
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Direction     string    `json:"direction"`
	Quantity      int       `json:"quantity"`
	PreviousStock int       `json:"previous_stock"`
	NewStock      int       `json:"new_stock"`
	Reason        string    `json:"reason"`
	CreatedBy     string    `json:"created_by"`
}

func newOrderCreated(order *domain.Order) OrderCreatedEvent {
	items := make([]OrderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemPayload{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	return OrderCreatedEvent{
		Type:         TypeOrderCreated,
		OccurredAt:   occurredAt(order.CreatedAt),
		BusinessID:   order.BusinessID,
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		CustomerName: order.CustomerName,
		Total:        order.Total,
		Items:        items,
		CreatedBy:    order.CreatedBy,
	}
}

func newStockChanged(log *domain.StockLog) StockChangedEvent {
	return StockChangedEvent{
		Type:          TypeStockChanged,
		OccurredAt:    occurredAt(log.CreatedAt),
		BusinessID:    log.BusinessID,
		ProductID:     log.ProductID,
		ProductName:   log.ProductName,
		Direction:     string(log.Type),
		Quantity:      log.Quantity,
		PreviousStock: log.PreviousStock,
		NewStock:      log.NewStock,
		Reason:        log.Reason,
		CreatedBy:     log.CreatedBy,
	}
}

func occurredAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, *domain.Order) error   { return nil }
func (NopPublisher) PublishStockChanged(context.Context, *domain.StockLog) error { return nil }
func (NopPublisher) Close()                                                       {}
