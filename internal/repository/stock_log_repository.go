package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inventory-hub/internal/domain"

	"github.com/google/uuid"
)

// StockLogFilter narrows a stock history query
type StockLogFilter struct {
	Type      domain.StockLogType
	ProductID uuid.UUID
	Since     time.Time
	Search    string
	Page      int
	PageSize  int
}

// StockLogStats summarises movements matching a filter
type StockLogStats struct {
	TotalIn        int `json:"total_in"`
	TotalOut       int `json:"total_out"`
	Adjustments    int `json:"adjustments"`
	UniqueProducts int `json:"unique_products"`
}

// StockLogRepository defines the interface for stock history access.
// Entries are append-only: there is no update or delete.
type StockLogRepository interface {
	Create(ctx context.Context, log *domain.StockLog) error
	List(ctx context.Context, businessID string, filter StockLogFilter) ([]*domain.StockLog, int, error)
	ListAll(ctx context.Context, businessID string, filter StockLogFilter) ([]*domain.StockLog, error)
	Stats(ctx context.Context, businessID string, filter StockLogFilter) (*StockLogStats, error)
}

type stockLogRepository struct {
	db DBTX
}

// NewStockLogRepository creates a new instance of StockLogRepository
func NewStockLogRepository(db DBTX) StockLogRepository {
	return &stockLogRepository{db: db}
}

// Create appends a stock log entry
func (r *stockLogRepository) Create(ctx context.Context, log *domain.StockLog) error {
	query := `
		INSERT INTO stock_logs (id, business_id, product_id, product_name, type, quantity, reason,
		                        previous_stock, new_stock, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		log.ID,
		log.BusinessID,
		log.ProductID,
		log.ProductName,
		string(log.Type),
		log.Quantity,
		log.Reason,
		log.PreviousStock,
		log.NewStock,
		log.CreatedBy,
	).Scan(&log.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create stock log: %w", err)
	}

	return nil
}

func stockLogWhere(businessID string, filter StockLogFilter) (string, []any) {
	conditions := []string{"business_id = $1"}
	args := []any{businessID}

	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}

	if filter.ProductID != uuid.Nil {
		args = append(args, filter.ProductID)
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", len(args)))
	}

	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(product_name ILIKE $%d OR reason ILIKE $%d)", len(args), len(args)))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List returns a page of matching entries, newest first
func (r *stockLogRepository) List(ctx context.Context, businessID string, filter StockLogFilter) ([]*domain.StockLog, int, error) {
	page, pageSize := NormalizePage(filter.Page, filter.PageSize)
	whereClause, args := stockLogWhere(businessID, filter)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stock_logs "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count stock logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, business_id, product_id, product_name, type, quantity, reason,
		       previous_stock, new_stock, created_by, created_at
		FROM stock_logs
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, len(args)+1, len(args)+2)

	args = append(args, pageSize, (page-1)*pageSize)

	logs, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// ListAll returns every matching entry, newest first
func (r *stockLogRepository) ListAll(ctx context.Context, businessID string, filter StockLogFilter) ([]*domain.StockLog, error) {
	whereClause, args := stockLogWhere(businessID, filter)

	query := `
		SELECT id, business_id, product_id, product_name, type, quantity, reason,
		       previous_stock, new_stock, created_by, created_at
		FROM stock_logs
		` + whereClause + `
		ORDER BY created_at DESC
	`

	return r.query(ctx, query, args...)
}

// Stats aggregates quantities by direction over matching entries
func (r *stockLogRepository) Stats(ctx context.Context, businessID string, filter StockLogFilter) (*StockLogStats, error) {
	whereClause, args := stockLogWhere(businessID, filter)

	query := `
		SELECT COALESCE(SUM(quantity) FILTER (WHERE type = 'in'), 0),
		       COALESCE(SUM(quantity) FILTER (WHERE type = 'out'), 0),
		       COUNT(*) FILTER (WHERE type = 'adjustment'),
		       COUNT(DISTINCT product_id)
		FROM stock_logs
		` + whereClause

	stats := &StockLogStats{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalIn,
		&stats.TotalOut,
		&stats.Adjustments,
		&stats.UniqueProducts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stock logs: %w", err)
	}

	return stats, nil
}

func (r *stockLogRepository) query(ctx context.Context, query string, args ...any) ([]*domain.StockLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock logs: %w", err)
	}
	defer rows.Close()

	logs := []*domain.StockLog{}
	for rows.Next() {
		var (
			log     = &domain.StockLog{}
			logType string
		)
		err := rows.Scan(
			&log.ID,
			&log.BusinessID,
			&log.ProductID,
			&log.ProductName,
			&logType,
			&log.Quantity,
			&log.Reason,
			&log.PreviousStock,
			&log.NewStock,
			&log.CreatedBy,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock log: %w", err)
		}
		if log.Type, err = domain.ParseStockLogType(logType); err != nil {
			return nil, fmt.Errorf("stock log %s: %w", log.ID, err)
		}
		logs = append(logs, log)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock logs: %w", err)
	}

	return logs, nil
}
