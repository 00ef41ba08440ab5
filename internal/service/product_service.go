package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidProduct = errors.New("invalid product")
	ErrEmptyBatch     = errors.New("no products to create")
)

// StockPublisher announces stock movements
type StockPublisher interface {
	PublishStockChanged(ctx context.Context, log *domain.StockLog) error
}

// ProductInput carries the editable fields of a product. Stock is only
// honoured on create; later changes go through InventoryService.
type ProductInput struct {
	Name              string
	SKU               string
	Description       string
	Category          string
	ImageURL          string
	Price             decimal.Decimal
	CostPrice         decimal.Decimal
	Stock             int
	LowStockThreshold *int
	IsActive          *bool
}

// ProductService defines the interface for catalog management
type ProductService interface {
	Create(ctx context.Context, tenant domain.Tenant, input ProductInput) (*domain.Product, error)
	BulkCreate(ctx context.Context, tenant domain.Tenant, inputs []ProductInput) ([]*domain.Product, error)
	Update(ctx context.Context, tenant domain.Tenant, id uuid.UUID, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, tenant domain.Tenant, id uuid.UUID) error
	Get(ctx context.Context, tenant domain.Tenant, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, tenant domain.Tenant, filter repository.ProductFilter) ([]*domain.Product, int, error)
	PublicCatalog(ctx context.Context, businessID string, filter repository.ProductFilter) ([]*domain.Product, int, error)
	Categories(ctx context.Context, businessID string, activeOnly bool) ([]*domain.Category, error)
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	txm        repository.TxManager
	publisher  StockPublisher
	logger     *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	txm repository.TxManager,
	publisher StockPublisher,
	logger *zap.Logger,
) ProductService {
	return &productService{
		products:   products,
		categories: categories,
		txm:        txm,
		publisher:  publisher,
		logger:     logger,
	}
}

func validateProductInput(input ProductInput) error {
	switch {
	case strings.TrimSpace(input.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case input.Price.IsNegative():
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidProduct)
	case input.CostPrice.IsNegative():
		return fmt.Errorf("%w: cost price cannot be negative", ErrInvalidProduct)
	case input.Stock < 0:
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	case input.LowStockThreshold != nil && *input.LowStockThreshold < 0:
		return fmt.Errorf("%w: low stock threshold cannot be negative", ErrInvalidProduct)
	}
	return nil
}

func newProduct(tenant domain.Tenant, input ProductInput) *domain.Product {
	product := &domain.Product{
		ID:                uuid.New(),
		BusinessID:        tenant.BusinessID,
		Stock:             input.Stock,
		LowStockThreshold: domain.DefaultLowStockThreshold,
		IsActive:          true,
	}
	applyProductInput(product, input)
	return product
}

func applyProductInput(product *domain.Product, input ProductInput) {
	product.Name = strings.TrimSpace(input.Name)
	product.SKU = strings.TrimSpace(input.SKU)
	product.Description = strings.TrimSpace(input.Description)
	product.Category = strings.TrimSpace(input.Category)
	product.ImageURL = strings.TrimSpace(input.ImageURL)
	product.Price = input.Price
	product.CostPrice = input.CostPrice
	if input.LowStockThreshold != nil {
		product.LowStockThreshold = *input.LowStockThreshold
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
}

// initialStockLog records the opening stock of a new product
func initialStockLog(tenant domain.Tenant, product *domain.Product) *domain.StockLog {
	return &domain.StockLog{
		ID:            uuid.New(),
		BusinessID:    tenant.BusinessID,
		ProductID:     product.ID,
		ProductName:   product.Name,
		Type:          domain.StockLogIn,
		Quantity:      product.Stock,
		Reason:        domain.ReasonInitialStock,
		PreviousStock: 0,
		NewStock:      product.Stock,
		CreatedBy:     tenant.ActorID,
	}
}

// Create inserts a product and logs its initial stock in one transaction
func (s *productService) Create(ctx context.Context, tenant domain.Tenant, input ProductInput) (*domain.Product, error) {
	products, err := s.BulkCreate(ctx, tenant, []ProductInput{input})
	if err != nil {
		return nil, err
	}
	return products[0], nil
}

// BulkCreate inserts all products or none
func (s *productService) BulkCreate(ctx context.Context, tenant domain.Tenant, inputs []ProductInput) ([]*domain.Product, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, ErrEmptyBatch
	}

	products := make([]*domain.Product, 0, len(inputs))
	for i, input := range inputs {
		if err := validateProductInput(input); err != nil {
			if len(inputs) > 1 {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			return nil, err
		}
		products = append(products, newProduct(tenant, input))
	}

	var logs []*domain.StockLog
	err := s.txm.WithTx(ctx, func(tx repository.Tx) error {
		logs = logs[:0]
		for _, product := range products {
			if err := tx.InsertProduct(ctx, product); err != nil {
				return err
			}
			if product.Stock > 0 {
				log := initialStockLog(tenant, product)
				if err := tx.InsertStockLog(ctx, log); err != nil {
					return err
				}
				logs = append(logs, log)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create products: %w", err)
	}

	for _, log := range logs {
		publishStockChange(ctx, s.publisher, s.logger, log)
	}

	s.logger.Info("Products created",
		zap.String("business_id", tenant.BusinessID),
		zap.Int("count", len(products)),
	)
	return products, nil
}

// Update changes catalog fields; stock is left untouched
func (s *productService) Update(ctx context.Context, tenant domain.Tenant, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	input.Stock = 0
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, tenant.BusinessID, id)
	if err != nil {
		return nil, err
	}

	applyProductInput(product, input)
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, tenant domain.Tenant, id uuid.UUID) error {
	if err := tenant.Validate(); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, tenant.BusinessID, id); err != nil {
		return err
	}

	s.logger.Info("Product deleted",
		zap.String("business_id", tenant.BusinessID),
		zap.String("product_id", id.String()),
	)
	return nil
}

func (s *productService) Get(ctx context.Context, tenant domain.Tenant, id uuid.UUID) (*domain.Product, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	return s.products.FindByID(ctx, tenant.BusinessID, id)
}

func (s *productService) List(ctx context.Context, tenant domain.Tenant, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	if err := tenant.Validate(); err != nil {
		return nil, 0, err
	}
	return s.products.List(ctx, tenant.BusinessID, filter)
}

// PublicCatalog lists the active products of a business without a tenant session
func (s *productService) PublicCatalog(ctx context.Context, businessID string, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	if strings.TrimSpace(businessID) == "" {
		return nil, 0, domain.ErrMissingTenant
	}
	filter.ActiveOnly = true
	return s.products.List(ctx, businessID, filter)
}

// Categories lists the category labels in use. The public catalog passes
// activeOnly so hidden products do not leak through the counts.
func (s *productService) Categories(ctx context.Context, businessID string, activeOnly bool) ([]*domain.Category, error) {
	if strings.TrimSpace(businessID) == "" {
		return nil, domain.ErrMissingTenant
	}
	return s.categories.List(ctx, businessID, activeOnly)
}

func publishStockChange(ctx context.Context, publisher StockPublisher, logger *zap.Logger, log *domain.StockLog) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishStockChanged(ctx, log); err != nil {
		logger.Warn("Failed to publish stock event",
			zap.String("business_id", log.BusinessID),
			zap.String("product_id", log.ProductID.String()),
			zap.Error(err),
		)
	}
}
