package ordering

import (
	"context"
	"errors"
	"strings"
	"time"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Submission modes, also used as metric labels
const (
	ModeSingle = "single"
	ModeBulk   = "bulk"
)

const (
	msgNoItems       = "Please add at least one item to the order"
	msgFixValidation = "Please fix all validation errors before submitting"
)

// ProductLookup reads the last known state of a product outside any transaction
type ProductLookup interface {
	FindByID(ctx context.Context, businessID string, id uuid.UUID) (*domain.Product, error)
}

// OrderPublisher announces committed orders
type OrderPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
}

// Observer records submission outcomes. cause is empty on success.
type Observer interface {
	ObserveOrder(mode, cause string, elapsed time.Duration, total decimal.Decimal)
}

// OrderForm is the customer part of a single order submission
type OrderForm struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Discount      decimal.Decimal
}

// OrderItemInput is a requested product and quantity
type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// OrderResult identifies a committed order
type OrderResult struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
}

// BulkResult reports how far a bulk submission got. When a group fails,
// FailedCustomer and Error describe it and later groups are not attempted.
type BulkResult struct {
	Orders         []OrderResult `json:"orders"`
	OrdersCreated  int           `json:"orders_created"`
	ItemCount      int           `json:"item_count"`
	FailedCustomer string        `json:"failed_customer,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// Service turns requested line items into persisted orders
type Service interface {
	SubmitOrder(ctx context.Context, tenant domain.Tenant, form OrderForm, items []OrderItemInput) (OrderResult, error)
	SubmitBulkOrders(ctx context.Context, tenant domain.Tenant, rows []BulkRow) (BulkResult, error)
}

type service struct {
	products  ProductLookup
	committer *Committer
	publisher OrderPublisher
	observer  Observer
	logger    *zap.Logger
}

// NewService creates the order transaction manager. publisher and observer
// may be nil.
func NewService(
	products ProductLookup,
	committer *Committer,
	publisher OrderPublisher,
	observer Observer,
	logger *zap.Logger,
) Service {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &service{
		products:  products,
		committer: committer,
		publisher: publisher,
		observer:  observer,
		logger:    logger,
	}
}

// SubmitOrder validates items for one customer and commits them as one order
func (s *service) SubmitOrder(ctx context.Context, tenant domain.Tenant, form OrderForm, items []OrderItemInput) (OrderResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "ordering.SubmitOrder")
	defer span.End()

	result, total, err := s.submitOrder(ctx, tenant, form, items)
	s.finish(span, ModeSingle, start, total, err)
	return result, err
}

func (s *service) submitOrder(ctx context.Context, tenant domain.Tenant, form OrderForm, items []OrderItemInput) (OrderResult, decimal.Decimal, error) {
	if err := tenant.Validate(); err != nil {
		return OrderResult{}, decimal.Zero, err
	}
	if len(items) == 0 {
		return OrderResult{}, decimal.Zero, &ValidationError{Message: msgNoItems}
	}

	snapshots, err := s.readSnapshots(ctx, tenant.BusinessID, productIDs(items))
	if err != nil {
		return OrderResult{}, decimal.Zero, err
	}

	verr := &ValidationError{Message: msgFixValidation, Fields: FieldErrors{}, Rows: map[int]FieldErrors{}}
	for i, item := range items {
		errs := validateOrderItem(LineItem{
			CustomerName: form.CustomerName,
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			Discount:     form.Discount,
		}, snapshots[item.ProductID])

		// customer and discount belong to the form, not the row
		for _, field := range []string{FieldCustomerName, FieldDiscount} {
			if msg, ok := errs[field]; ok {
				verr.Fields[field] = msg
				delete(errs, field)
			}
		}
		if len(errs) > 0 {
			verr.Rows[i] = errs
		}
	}
	if len(verr.Fields) > 0 || len(verr.Rows) > 0 {
		return OrderResult{}, decimal.Zero, verr
	}

	order, err := s.committer.Commit(ctx, tenant, CommitRequest{
		CustomerName:  strings.TrimSpace(form.CustomerName),
		CustomerPhone: strings.TrimSpace(form.CustomerPhone),
		CustomerEmail: strings.TrimSpace(form.CustomerEmail),
		Items:         commitItems(items, snapshots),
		Discount:      form.Discount,
		Reason:        domain.ReasonOrderSale,
	})
	if err != nil {
		return OrderResult{}, decimal.Zero, err
	}

	s.announce(ctx, order)
	return resultOf(order), order.Total, nil
}

// SubmitBulkOrders validates every row, groups rows by customer and commits
// one order per group in first-seen order, stopping at the first failure
func (s *service) SubmitBulkOrders(ctx context.Context, tenant domain.Tenant, rows []BulkRow) (BulkResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "ordering.SubmitBulkOrders")
	defer span.End()
	span.SetAttributes(attribute.Int("row_count", len(rows)))

	result, total, err := s.submitBulk(ctx, tenant, rows)
	s.finish(span, ModeBulk, start, total, err)
	return result, err
}

func (s *service) submitBulk(ctx context.Context, tenant domain.Tenant, rows []BulkRow) (BulkResult, decimal.Decimal, error) {
	result := BulkResult{Orders: []OrderResult{}}
	total := decimal.Zero

	if err := tenant.Validate(); err != nil {
		return result, total, err
	}
	if len(rows) == 0 {
		return result, total, &ValidationError{Message: msgNoItems}
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	snapshots, err := s.readSnapshots(ctx, tenant.BusinessID, ids)
	if err != nil {
		return result, total, err
	}

	verr := &ValidationError{Message: msgFixValidation, Rows: map[int]FieldErrors{}}
	for i, row := range rows {
		if errs := ValidateLineItem(row, snapshots[row.ProductID]); len(errs) > 0 {
			verr.Rows[i] = errs
		}
	}
	if len(verr.Rows) > 0 {
		return result, total, verr
	}

	for _, group := range GroupByCustomer(rows) {
		items := make([]OrderItemInput, 0, len(group.Items))
		for _, row := range group.Items {
			items = append(items, OrderItemInput{ProductID: row.ProductID, Quantity: row.Quantity})
		}

		order, err := s.committer.Commit(ctx, tenant, CommitRequest{
			CustomerName:  group.CustomerName,
			CustomerPhone: group.CustomerPhone,
			CustomerEmail: group.CustomerEmail,
			Items:         commitItems(items, snapshots),
			Discount:      group.Discount,
			Reason:        domain.ReasonBulkOrderSale,
		})
		if err != nil {
			result.FailedCustomer = group.CustomerName
			result.Error = err.Error()
			s.logger.Warn("Bulk order group failed",
				zap.String("business_id", tenant.BusinessID),
				zap.String("customer", group.CustomerName),
				zap.Int("orders_created", result.OrdersCreated),
				zap.Error(err),
			)
			return result, total, err
		}

		s.announce(ctx, order)
		result.Orders = append(result.Orders, resultOf(order))
		result.OrdersCreated++
		result.ItemCount += len(order.Items)
		total = total.Add(order.Total)
	}

	return result, total, nil
}

// readSnapshots reads each distinct product once. Products that do not
// exist are left out of the map.
func (s *service) readSnapshots(ctx context.Context, businessID string, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	snapshots := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, seen := snapshots[id]; seen {
			continue
		}
		product, err := s.products.FindByID(ctx, businessID, id)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				snapshots[id] = nil
				continue
			}
			return nil, &TransportError{Op: "read product", Err: err}
		}
		snapshots[id] = product
	}
	return snapshots, nil
}

// announce publishes the order event. Delivery failures never fail the
// submission.
func (s *service) announce(ctx context.Context, order *domain.Order) {
	if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
		s.logger.Warn("Failed to publish order event",
			zap.String("business_id", order.BusinessID),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Order created",
		zap.String("business_id", order.BusinessID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.StringFixed(2)),
	)
}

func (s *service) finish(span trace.Span, mode string, start time.Time, total decimal.Decimal, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.observer.ObserveOrder(mode, failureCause(err), time.Since(start), total)
}

func productIDs(items []OrderItemInput) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// commitItems captures name and unit price from the validated snapshots
func commitItems(items []OrderItemInput, snapshots map[uuid.UUID]*domain.Product) []CommitItem {
	out := make([]CommitItem, 0, len(items))
	for _, item := range items {
		snapshot := snapshots[item.ProductID]
		out = append(out, CommitItem{
			ProductID:   item.ProductID,
			ProductName: snapshot.Name,
			Quantity:    item.Quantity,
			UnitPrice:   snapshot.Price,
		})
	}
	return out
}

func resultOf(order *domain.Order) OrderResult {
	return OrderResult{OrderID: order.ID, OrderNumber: order.OrderNumber, Total: order.Total}
}

type nopPublisher struct{}

func (nopPublisher) PublishOrderCreated(context.Context, *domain.Order) error { return nil }

type nopObserver struct{}

func (nopObserver) ObserveOrder(string, string, time.Duration, decimal.Decimal) {}
