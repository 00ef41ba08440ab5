package ordering

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("inventory-hub/internal/ordering")

// CommitItem is a line of an order aggregate with its captured price
type CommitItem struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// CommitRequest is one order aggregate ready to be persisted
type CommitRequest struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Items         []CommitItem
	Discount      decimal.Decimal
	Reason        string
}

// Committer applies an order aggregate atomically: stock decrement, one
// "out" stock log per product and the order record.
type Committer struct {
	txm     repository.TxManager
	numbers *NumberGenerator
}

func NewCommitter(txm repository.TxManager, numbers *NumberGenerator) *Committer {
	return &Committer{txm: txm, numbers: numbers}
}

type productDemand struct {
	id       uuid.UUID
	name     string
	quantity int
}

// consolidate sums quantities per product and sorts by id so that
// concurrent commits lock rows in the same order
func consolidate(items []CommitItem) []productDemand {
	index := make(map[uuid.UUID]int)
	var demands []productDemand
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			demands[i].quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(demands)
		demands = append(demands, productDemand{id: item.ProductID, name: item.ProductName, quantity: item.Quantity})
	}
	sort.Slice(demands, func(i, j int) bool {
		return bytes.Compare(demands[i].id[:], demands[j].id[:]) < 0
	})
	return demands
}

// Commit persists req for tenant. Nothing is written unless every product
// has enough stock at the time it is locked.
func (c *Committer) Commit(ctx context.Context, tenant domain.Tenant, req CommitRequest) (*domain.Order, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "ordering.Commit")
	defer span.End()
	span.SetAttributes(
		attribute.String("business_id", tenant.BusinessID),
		attribute.Int("item_count", len(req.Items)),
		attribute.String("reason", req.Reason),
	)

	demands := consolidate(req.Items)
	var committed *domain.Order

	err := c.txm.WithTx(ctx, func(tx repository.Tx) error {
		for _, d := range demands {
			product, err := tx.LockProduct(ctx, tenant.BusinessID, d.id)
			if err != nil {
				if errors.Is(err, repository.ErrProductNotFound) {
					return &NotFoundError{ProductID: d.id, ProductName: d.name}
				}
				return err
			}

			if product.Stock < d.quantity {
				return &InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Requested:   d.quantity,
					Available:   product.Stock,
				}
			}

			newStock := product.Stock - d.quantity
			if err := tx.SetProductStock(ctx, tenant.BusinessID, product.ID, newStock); err != nil {
				return err
			}

			if err := tx.InsertStockLog(ctx, &domain.StockLog{
				ID:            uuid.New(),
				BusinessID:    tenant.BusinessID,
				ProductID:     product.ID,
				ProductName:   product.Name,
				Type:          domain.StockLogOut,
				Quantity:      d.quantity,
				Reason:        req.Reason,
				PreviousStock: product.Stock,
				NewStock:      newStock,
				CreatedBy:     tenant.ActorID,
			}); err != nil {
				return err
			}
		}

		items := make([]domain.OrderItem, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, domain.OrderItem{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Total:       LineTotal(item.Quantity, item.UnitPrice),
			})
		}
		subtotal, total := CalculateTotals(items, req.Discount)

		// Generated per attempt so a retried transaction gets a fresh number
		order := &domain.Order{
			ID:            uuid.New(),
			BusinessID:    tenant.BusinessID,
			OrderNumber:   c.numbers.Next(),
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			CustomerEmail: req.CustomerEmail,
			Items:         items,
			Subtotal:      subtotal,
			Discount:      req.Discount,
			Total:         total,
			Status:        domain.OrderStatusPending,
			PaymentStatus: domain.PaymentStatusUnpaid,
			CreatedBy:     tenant.ActorID,
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		committed = order
		return nil
	})
	if err != nil {
		err = classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("order_number", committed.OrderNumber))
	return committed, nil
}

// classify keeps domain errors as they are and wraps everything else as a
// store failure
func classify(err error) error {
	var stockErr *InsufficientStockError
	var notFoundErr *NotFoundError
	if errors.As(err, &stockErr) {
		return stockErr
	}
	if errors.As(err, &notFoundErr) {
		return notFoundErr
	}
	return &TransportError{Op: "commit order", Err: err}
}

// failureCause names the error class for metrics
func failureCause(err error) string {
	var validationErr *ValidationError
	var stockErr *InsufficientStockError
	var notFoundErr *NotFoundError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrMissingTenant):
		return "missing_tenant"
	case errors.As(err, &validationErr):
		return "validation"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.As(err, &notFoundErr):
		return "not_found"
	default:
		return "transport"
	}
}
