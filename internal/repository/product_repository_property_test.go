package repository

import (
	"context"
	"errors"
	"testing"

	"inventory-hub/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Feature: inventory-hub, Property: Product creation preserves attributes
func TestProperty_ProductCreationPreservesAttributes(t *testing.T) {
	productRepo := NewProductRepository(testDB)
	businessID := newBusiness()

	properties := gopter.NewProperties(nil)

	properties.Property("creating and retrieving a product preserves all attributes", prop.ForAll(
		func(name string, description string, cents int64, stock int) bool {
			ctx := context.Background()

			product := &domain.Product{
				ID:                uuid.New(),
				BusinessID:        businessID,
				Name:              name,
				Description:       description,
				Price:             decimal.New(cents, -2),
				Stock:             stock,
				LowStockThreshold: domain.DefaultLowStockThreshold,
				IsActive:          true,
			}

			if err := productRepo.Create(ctx, product); err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}

			retrieved, err := productRepo.FindByID(ctx, businessID, product.ID)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve product: %v", err)
				return false
			}

			if retrieved.Name != product.Name || retrieved.Description != product.Description {
				t.Logf("FAIL: Text mismatch. Expected %q/%q, got %q/%q",
					product.Name, product.Description, retrieved.Name, retrieved.Description)
				return false
			}

			if !retrieved.Price.Equal(product.Price) {
				t.Logf("FAIL: Price mismatch. Expected %s, got %s", product.Price, retrieved.Price)
				return false
			}

			if retrieved.Stock != product.Stock {
				t.Logf("FAIL: Stock mismatch. Expected %d, got %d", product.Stock, retrieved.Stock)
				return false
			}

			if retrieved.CreatedAt.IsZero() || retrieved.UpdatedAt.IsZero() {
				t.Logf("FAIL: Timestamps not set")
				return false
			}

			return true
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.Int64Range(0, 99999999),
		gen.IntRange(0, 100000),
	))

	properties.TestingRun(t)
}

// Feature: inventory-hub, Property: Product updates never touch stock
func TestProperty_ProductUpdatesKeepStock(t *testing.T) {
	productRepo := NewProductRepository(testDB)
	businessID := newBusiness()

	properties := gopter.NewProperties(nil)

	properties.Property("updates change catalog fields and leave stock alone", prop.ForAll(
		func(initialStock int, attemptedStock int, newName string) bool {
			ctx := context.Background()
			product := insertProduct(t, businessID, "Original", initialStock)

			product.Name = newName
			product.Stock = attemptedStock
			product.Category = "updated"
			if err := productRepo.Update(ctx, product); err != nil {
				t.Logf("FAIL: Failed to update product: %v", err)
				return false
			}

			if product.Stock != initialStock {
				t.Logf("FAIL: Update returned stock %d, expected %d", product.Stock, initialStock)
				return false
			}

			retrieved, err := productRepo.FindByID(ctx, businessID, product.ID)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve product: %v", err)
				return false
			}

			return retrieved.Name == newName && retrieved.Category == "updated" && retrieved.Stock == initialStock
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

// Feature: inventory-hub, Property: Product deletion removes it from the catalog
func TestProperty_ProductDeletionRemovesFromCatalog(t *testing.T) {
	productRepo := NewProductRepository(testDB)

	properties := gopter.NewProperties(nil)

	properties.Property("deleted products cannot be found and cannot be deleted twice", prop.ForAll(
		func(stock int) bool {
			ctx := context.Background()
			businessID := newBusiness()
			product := insertProduct(t, businessID, "Doomed", stock)

			if err := productRepo.Delete(ctx, businessID, product.ID); err != nil {
				t.Logf("FAIL: Failed to delete product: %v", err)
				return false
			}

			if _, err := productRepo.FindByID(ctx, businessID, product.ID); !errors.Is(err, ErrProductNotFound) {
				t.Logf("FAIL: Expected ErrProductNotFound, got %v", err)
				return false
			}

			return errors.Is(productRepo.Delete(ctx, businessID, product.ID), ErrProductNotFound)
		},
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

func TestProductsAreScopedToBusiness(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(testDB)
	owner, other := newBusiness(), newBusiness()
	product := insertProduct(t, owner, "Private", 5)

	_, err := repo.FindByID(ctx, other, product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, other, product.ID), ErrProductNotFound)

	products, total, err := repo.List(ctx, other, ProductFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, products)
}

func TestListProductsFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(testDB)
	businessID := newBusiness()

	apple := insertProduct(t, businessID, "Apple", 30)
	apple.SKU, apple.Category = "FRT-001", "fruit"
	require.NoError(t, repo.Update(ctx, apple))

	banana := insertProduct(t, businessID, "Banana", 5)
	banana.Category = "fruit"
	banana.IsActive = false
	require.NoError(t, repo.Update(ctx, banana))

	insertProduct(t, businessID, "Carrot", 12)

	products, total, err := repo.List(ctx, businessID, ProductFilter{Category: "fruit", SortBy: "name", SortOrder: SortOrderAsc})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, products, 2)
	assert.Equal(t, "Apple", products[0].Name)

	products, _, err = repo.List(ctx, businessID, ProductFilter{Category: "fruit", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, apple.ID, products[0].ID)

	products, _, err = repo.List(ctx, businessID, ProductFilter{Search: "frt-"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Apple", products[0].Name)

	products, _, err = repo.List(ctx, businessID, ProductFilter{SortBy: "stock", SortOrder: SortOrderDesc})
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, []int{30, 12, 5}, []int{products[0].Stock, products[1].Stock, products[2].Stock})

	// Unknown sort columns fall back to the default instead of reaching SQL
	_, _, err = repo.List(ctx, businessID, ProductFilter{SortBy: "name; DROP TABLE products"})
	require.NoError(t, err)

	products, total, err = repo.List(ctx, businessID, ProductFilter{Page: 2, PageSize: 2, SortBy: "name", SortOrder: SortOrderAsc})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Carrot", products[0].Name)
}

func TestLowStockAndSummary(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(testDB)
	businessID := newBusiness()

	insertProduct(t, businessID, "Plenty", 50)
	insertProduct(t, businessID, "Few", 4)
	insertProduct(t, businessID, "None", 0)
	edge := insertProduct(t, businessID, "Edge", domain.DefaultLowStockThreshold)

	low, err := repo.ListLowStock(ctx, businessID, 5)
	require.NoError(t, err)
	require.Len(t, low, 3)
	assert.Equal(t, "None", low[0].Name)
	assert.Equal(t, "Few", low[1].Name)
	assert.Equal(t, edge.ID, low[2].ID)

	count, totalStock, err := repo.Summary(ctx, businessID)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, 50+4+0+domain.DefaultLowStockThreshold, totalStock)
}
