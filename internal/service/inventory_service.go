package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNegativeStock          = errors.New("stock cannot go below zero")
	ErrUnsupportedAdjustment  = errors.New("stock can only be added or set")
	ErrInvalidAdjustmentValue = errors.New("invalid stock quantity")
)

// StockObserver counts manual stock changes
type StockObserver interface {
	ObserveStockAdjustment(logType string)
}

// StockAdjustment is a manual stock change. For "in" Quantity is added to
// the current stock; for "adjustment" it is the new absolute stock.
type StockAdjustment struct {
	Type     domain.StockLogType
	Quantity int
	Reason   string
}

// InventoryService defines manual stock changes outside of sales
type InventoryService interface {
	AdjustStock(ctx context.Context, tenant domain.Tenant, productID uuid.UUID, adj StockAdjustment) (*domain.StockLog, error)
}

type inventoryService struct {
	txm       repository.TxManager
	publisher StockPublisher
	observer  StockObserver
	logger    *zap.Logger
}

// NewInventoryService creates a new instance of InventoryService
func NewInventoryService(txm repository.TxManager, publisher StockPublisher, observer StockObserver, logger *zap.Logger) InventoryService {
	return &inventoryService{
		txm:       txm,
		publisher: publisher,
		observer:  observer,
		logger:    logger,
	}
}

// AdjustStock locks the product, writes the new stock and its log entry
// in one transaction
func (s *inventoryService) AdjustStock(ctx context.Context, tenant domain.Tenant, productID uuid.UUID, adj StockAdjustment) (*domain.StockLog, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	if adj.Quantity < 0 {
		return nil, ErrInvalidAdjustmentValue
	}

	reason := strings.TrimSpace(adj.Reason)
	switch adj.Type {
	case domain.StockLogIn:
		if adj.Quantity == 0 {
			return nil, ErrInvalidAdjustmentValue
		}
		if reason == "" {
			reason = domain.ReasonRestock
		}
	case domain.StockLogAdjustment:
		if reason == "" {
			reason = domain.ReasonManualAdjustment
		}
	default:
		return nil, ErrUnsupportedAdjustment
	}

	var entry *domain.StockLog
	err := s.txm.WithTx(ctx, func(tx repository.Tx) error {
		product, err := tx.LockProduct(ctx, tenant.BusinessID, productID)
		if err != nil {
			return err
		}

		newStock, quantity := product.Stock+adj.Quantity, adj.Quantity
		if adj.Type == domain.StockLogAdjustment {
			newStock = adj.Quantity
			quantity = newStock - product.Stock
			if quantity < 0 {
				quantity = -quantity
			}
		}
		if newStock < 0 {
			return ErrNegativeStock
		}

		if err := tx.SetProductStock(ctx, tenant.BusinessID, product.ID, newStock); err != nil {
			return err
		}

		entry = &domain.StockLog{
			ID:            uuid.New(),
			BusinessID:    tenant.BusinessID,
			ProductID:     product.ID,
			ProductName:   product.Name,
			Type:          adj.Type,
			Quantity:      quantity,
			Reason:        reason,
			PreviousStock: product.Stock,
			NewStock:      newStock,
			CreatedBy:     tenant.ActorID,
		}
		return tx.InsertStockLog(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) || errors.Is(err, ErrNegativeStock) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	if s.observer != nil {
		s.observer.ObserveStockAdjustment(string(entry.Type))
	}
	publishStockChange(ctx, s.publisher, s.logger, entry)

	s.logger.Info("Stock adjusted",
		zap.String("business_id", tenant.BusinessID),
		zap.String("product_id", productID.String()),
		zap.String("type", string(entry.Type)),
		zap.Int("previous_stock", entry.PreviousStock),
		zap.Int("new_stock", entry.NewStock),
	)
	return entry, nil
}
