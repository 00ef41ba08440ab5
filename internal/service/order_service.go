package service

import (
	"context"
	"errors"
	"fmt"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidStatusTransition = errors.New("invalid order status transition")

// OrderService manages orders after they were created by the ordering package
type OrderService interface {
	List(ctx context.Context, tenant domain.Tenant, filter repository.OrderFilter) ([]*domain.Order, int, error)
	Get(ctx context.Context, tenant domain.Tenant, id uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, tenant domain.Tenant, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, tenant domain.Tenant, id uuid.UUID, status domain.PaymentStatus) (*domain.Order, error)
	Delete(ctx context.Context, tenant domain.Tenant, id uuid.UUID) error
}

type orderService struct {
	orders repository.OrderRepository
	logger *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orders repository.OrderRepository, logger *zap.Logger) OrderService {
	return &orderService{orders: orders, logger: logger}
}

func (s *orderService) List(ctx context.Context, tenant domain.Tenant, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	if err := tenant.Validate(); err != nil {
		return nil, 0, err
	}
	return s.orders.List(ctx, tenant.BusinessID, filter)
}

func (s *orderService) Get(ctx context.Context, tenant domain.Tenant, id uuid.UUID) (*domain.Order, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	return s.orders.FindByID(ctx, tenant.BusinessID, id)
}

// UpdateStatus moves an order along its lifecycle. Delivered and cancelled
// orders cannot change status.
func (s *orderService) UpdateStatus(ctx context.Context, tenant domain.Tenant, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, tenant.BusinessID, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, order.Status, status)
	}
	if order.Status == status {
		return order, nil
	}

	if err := s.orders.UpdateStatus(ctx, tenant.BusinessID, id, status); err != nil {
		return nil, err
	}

	s.logger.Info("Order status updated",
		zap.String("business_id", tenant.BusinessID),
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(order.Status)),
		zap.String("to", string(status)),
	)

	order.Status = status
	return order, nil
}

func (s *orderService) UpdatePaymentStatus(ctx context.Context, tenant domain.Tenant, id uuid.UUID, status domain.PaymentStatus) (*domain.Order, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, tenant.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == status {
		return order, nil
	}

	if err := s.orders.UpdatePaymentStatus(ctx, tenant.BusinessID, id, status); err != nil {
		return nil, err
	}

	order.PaymentStatus = status
	return order, nil
}

// Delete removes the order record. Stock is not restored.
func (s *orderService) Delete(ctx context.Context, tenant domain.Tenant, id uuid.UUID) error {
	if err := tenant.Validate(); err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, tenant.BusinessID, id); err != nil {
		return err
	}

	s.logger.Info("Order deleted",
		zap.String("business_id", tenant.BusinessID),
		zap.String("order_id", id.String()),
	)
	return nil
}
