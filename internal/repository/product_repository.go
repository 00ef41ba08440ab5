package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"inventory-hub/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductFilter narrows a product listing
type ProductFilter struct {
	Search     string
	Category   string
	ActiveOnly bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  SortOrder
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, businessID string, id uuid.UUID) error
	FindByID(ctx context.Context, businessID string, id uuid.UUID) (*domain.Product, error)
	FindByIDForUpdate(ctx context.Context, businessID string, id uuid.UUID) (*domain.Product, error)
	UpdateStock(ctx context.Context, businessID string, id uuid.UUID, stock int) error
	List(ctx context.Context, businessID string, filter ProductFilter) ([]*domain.Product, int, error)
	ListLowStock(ctx context.Context, businessID string, limit int) ([]*domain.Product, error)
	Summary(ctx context.Context, businessID string) (count int, totalStock int, err error)
}

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, business_id, name, sku, description, category, image_url, price, cost_price,
	stock, low_stock_threshold, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(dest ...any) error }) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.BusinessID,
		&product.Name,
		&product.SKU,
		&product.Description,
		&product.Category,
		&product.ImageURL,
		&product.Price,
		&product.CostPrice,
		&product.Stock,
		&product.LowStockThreshold,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Create inserts a new product; timestamps are assigned by the database
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, business_id, name, sku, description, category, image_url, price, cost_price,
		                      stock, low_stock_threshold, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.BusinessID,
		product.Name,
		product.SKU,
		product.Description,
		product.Category,
		product.ImageURL,
		product.Price,
		product.CostPrice,
		product.Stock,
		product.LowStockThreshold,
		product.IsActive,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update changes catalog attributes. Stock is deliberately not part of the
// statement: it only changes inside a transaction that also logs it.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $3, sku = $4, description = $5, category = $6, image_url = $7,
		    price = $8, cost_price = $9, low_stock_threshold = $10, is_active = $11, updated_at = now()
		WHERE business_id = $1 AND id = $2
		RETURNING stock, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.BusinessID,
		product.ID,
		product.Name,
		product.SKU,
		product.Description,
		product.Category,
		product.ImageURL,
		product.Price,
		product.CostPrice,
		product.LowStockThreshold,
		product.IsActive,
	).Scan(&product.Stock, &product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product from the catalog
func (r *productRepository) Delete(ctx context.Context, businessID string, id uuid.UUID) error {
	query := `DELETE FROM products WHERE business_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, businessID, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product of the given business
func (r *productRepository) FindByID(ctx context.Context, businessID string, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE business_id = $1 AND id = $2`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, businessID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindByIDForUpdate reads a product and row-locks it until the enclosing
// transaction ends. Outside a transaction the lock is released immediately.
func (r *productRepository) FindByIDForUpdate(ctx context.Context, businessID string, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE business_id = $1 AND id = $2 FOR UPDATE`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, businessID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	return product, nil
}

// UpdateStock writes an absolute stock value
func (r *productRepository) UpdateStock(ctx context.Context, businessID string, id uuid.UUID, stock int) error {
	query := `UPDATE products SET stock = $3, updated_at = now() WHERE business_id = $1 AND id = $2`

	result, err := r.db.ExecContext(ctx, query, businessID, id, stock)
	if err != nil {
		return fmt.Errorf("failed to update product stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// List retrieves products with optional filtering, pagination, and sorting
func (r *productRepository) List(ctx context.Context, businessID string, filter ProductFilter) ([]*domain.Product, int, error) {
	// Validate sort field to prevent SQL injection
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"created_at": true,
		"stock":      true,
	}

	sortBy := filter.SortBy
	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := filter.SortOrder
	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}

	page, pageSize := NormalizePage(filter.Page, filter.PageSize)

	conditions := []string{"business_id = $1"}
	args := []any{businessID}

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	if filter.ActiveOnly {
		conditions = append(conditions, "is_active")
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM products " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, sortBy, sortOrder, len(args)+1, len(args)+2)

	args = append(args, pageSize, (page-1)*pageSize)

	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// ListLowStock returns active products at or below their threshold, lowest stock first
func (r *productRepository) ListLowStock(ctx context.Context, businessID string, limit int) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE business_id = $1 AND is_active AND stock <= low_stock_threshold
		ORDER BY stock ASC, name ASC
		LIMIT $2
	`

	return r.queryProducts(ctx, query, businessID, limit)
}

// Summary counts products and sums stock units for a business
func (r *productRepository) Summary(ctx context.Context, businessID string) (int, int, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(stock), 0) FROM products WHERE business_id = $1`

	var count, totalStock int
	if err := r.db.QueryRowContext(ctx, query, businessID).Scan(&count, &totalStock); err != nil {
		return 0, 0, fmt.Errorf("failed to summarize products: %w", err)
	}

	return count, totalStock, nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// NormalizePage applies the default and maximum page size
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
