package repository

import (
	"context"
	"fmt"

	"inventory-hub/internal/domain"
)

// CategoryRepository defines the interface for category data access.
// Categories are free-form labels on products, not rows of their own.
type CategoryRepository interface {
	List(ctx context.Context, businessID string, activeOnly bool) ([]*domain.Category, error)
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

// List retrieves the distinct categories of a business with their product counts
func (r *categoryRepository) List(ctx context.Context, businessID string, activeOnly bool) ([]*domain.Category, error) {
	query := `
		SELECT category, COUNT(*), COALESCE(SUM(stock), 0)
		FROM products
		WHERE business_id = $1 AND category <> '' AND (NOT $2 OR is_active)
		GROUP BY category
		ORDER BY category ASC
	`

	rows, err := r.db.QueryContext(ctx, query, businessID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category := &domain.Category{}
		err := rows.Scan(
			&category.Name,
			&category.ProductCount,
			&category.TotalStock,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}
