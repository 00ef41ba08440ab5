package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-hub/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
)

const orderNumberConstraint = "orders_business_order_number_key"

// OrderFilter narrows an order listing
type OrderFilter struct {
	Status   domain.OrderStatus
	Search   string
	Page     int
	PageSize int
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, businessID string, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, businessID string, filter OrderFilter) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, businessID string, id uuid.UUID, status domain.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, businessID string, id uuid.UUID, status domain.PaymentStatus) error
	Delete(ctx context.Context, businessID string, id uuid.UUID) error
	SalesSince(ctx context.Context, businessID string, since time.Time) (decimal.Decimal, int, error)
	CustomerStats(ctx context.Context, businessID, name, email string) (*domain.CustomerStats, error)
}

type orderRepository struct {
	db DBTX
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db DBTX) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, business_id, order_number, customer_name, customer_phone, customer_email,
	subtotal, discount, total, status, payment_status, created_by, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (*domain.Order, error) {
	var (
		order         = &domain.Order{}
		status        string
		paymentStatus string
	)
	err := row.Scan(
		&order.ID,
		&order.BusinessID,
		&order.OrderNumber,
		&order.CustomerName,
		&order.CustomerPhone,
		&order.CustomerEmail,
		&order.Subtotal,
		&order.Discount,
		&order.Total,
		&status,
		&paymentStatus,
		&order.CreatedBy,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if order.Status, err = domain.ParseOrderStatus(status); err != nil {
		return nil, fmt.Errorf("order %s: %w", order.ID, err)
	}
	if order.PaymentStatus, err = domain.ParsePaymentStatus(paymentStatus); err != nil {
		return nil, fmt.Errorf("order %s: %w", order.ID, err)
	}

	return order, nil
}

// Create inserts the order and its line items. It must run inside a
// transaction so that a failing item insert discards the order row.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, business_id, order_number, customer_name, customer_phone, customer_email,
		                    subtotal, discount, total, status, payment_status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		order.ID,
		order.BusinessID,
		order.OrderNumber,
		order.CustomerName,
		order.CustomerPhone,
		order.CustomerEmail,
		order.Subtotal,
		order.Discount,
		order.Total,
		string(order.Status),
		string(order.PaymentStatus),
		order.CreatedBy,
	).Scan(&order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == orderNumberConstraint {
			return fmt.Errorf("%w: %s", ErrDuplicateOrderNumber, order.OrderNumber)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, product_id, product_name, quantity, unit_price, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for i, item := range order.Items {
		_, err := r.db.ExecContext(
			ctx,
			itemQuery,
			order.ID,
			i,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.UnitPrice,
			item.Total,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// FindByID retrieves an order with its items
func (r *orderRepository) FindByID(ctx context.Context, businessID string, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE business_id = $1 AND id = $2`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, businessID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := r.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// List returns orders of a business, newest first
func (r *orderRepository) List(ctx context.Context, businessID string, filter OrderFilter) ([]*domain.Order, int, error) {
	page, pageSize := NormalizePage(filter.Page, filter.PageSize)

	conditions := []string{"business_id = $1"}
	args := []any{businessID}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(order_number ILIKE $%d OR customer_name ILIKE $%d)", len(args), len(args)))
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, whereClause, len(args)+1, len(args)+2)

	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	for i, order := range orders {
		ids[i] = order.ID.String()
		order.Items = []domain.OrderItem{}
		byID[order.ID] = order
	}

	query := `
		SELECT order_id, product_id, product_name, quantity, unit_price, total
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID uuid.UUID
			item    domain.OrderItem
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.Total); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if order, ok := byID[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

// UpdateStatus sets the fulfilment status
func (r *orderRepository) UpdateStatus(ctx context.Context, businessID string, id uuid.UUID, status domain.OrderStatus) error {
	return r.updateColumn(ctx, "status", businessID, id, string(status))
}

// UpdatePaymentStatus sets the payment status
func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, businessID string, id uuid.UUID, status domain.PaymentStatus) error {
	return r.updateColumn(ctx, "payment_status", businessID, id, string(status))
}

func (r *orderRepository) updateColumn(ctx context.Context, column, businessID string, id uuid.UUID, value string) error {
	query := fmt.Sprintf(`UPDATE orders SET %s = $3, updated_at = now() WHERE business_id = $1 AND id = $2`, column)

	result, err := r.db.ExecContext(ctx, query, businessID, id, value)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", column, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Delete removes an order; its items go with it
func (r *orderRepository) Delete(ctx context.Context, businessID string, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE business_id = $1 AND id = $2`, businessID, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// SalesSince sums totals and counts orders created at or after since.
// Cancelled orders are not sales.
func (r *orderRepository) SalesSince(ctx context.Context, businessID string, since time.Time) (decimal.Decimal, int, error) {
	query := `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM orders
		WHERE business_id = $1 AND created_at >= $2 AND status <> 'cancelled'
	`

	var (
		sales decimal.Decimal
		count int
	)
	if err := r.db.QueryRowContext(ctx, query, businessID, since).Scan(&sales, &count); err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to sum sales: %w", err)
	}

	return sales, count, nil
}

// CustomerStats aggregates orders whose customer name or email matches, ignoring case
func (r *orderRepository) CustomerStats(ctx context.Context, businessID, name, email string) (*domain.CustomerStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(total), 0), MAX(created_at)
		FROM orders
		WHERE business_id = $1
		  AND (lower(customer_name) = lower($2) OR ($3 <> '' AND lower(customer_email) = lower($3)))
	`

	var (
		stats     = &domain.CustomerStats{}
		lastOrder sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, businessID, strings.TrimSpace(name), strings.TrimSpace(email)).
		Scan(&stats.TotalOrders, &stats.TotalSpent, &lastOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate customer orders: %w", err)
	}

	if lastOrder.Valid {
		stats.LastOrderAt = &lastOrder.Time
	}

	return stats, nil
}
