package service

import (
	"context"
	"errors"
	"strings"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/repository"

	"github.com/google/uuid"
)

var ErrCustomerNameRequired = errors.New("customer name is required")

type CustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Notes   string
}

// CustomerService defines the interface for customer records
type CustomerService interface {
	Create(ctx context.Context, tenant domain.Tenant, input CustomerInput) (*domain.Customer, error)
	Update(ctx context.Context, tenant domain.Tenant, id uuid.UUID, input CustomerInput) (*domain.Customer, error)
	Delete(ctx context.Context, tenant domain.Tenant, id uuid.UUID) error
	Get(ctx context.Context, tenant domain.Tenant, id uuid.UUID) (*domain.Customer, error)
	List(ctx context.Context, tenant domain.Tenant, search string) ([]*domain.Customer, error)
	Stats(ctx context.Context, tenant domain.Tenant, id uuid.UUID) (*domain.CustomerStats, error)
}

type customerService struct {
	customers repository.CustomerRepository
	orders    repository.OrderRepository
}

// NewCustomerService creates a new instance of CustomerService
func NewCustomerService(customers repository.CustomerRepository, orders repository.OrderRepository) CustomerService {
	return &customerService{customers: customers, orders: orders}
}

func applyCustomerInput(customer *domain.Customer, input CustomerInput) error {
	customer.Name = strings.TrimSpace(input.Name)
	customer.Email = strings.TrimSpace(input.Email)
	customer.Phone = strings.TrimSpace(input.Phone)
	customer.Address = strings.TrimSpace(input.Address)
	customer.City = strings.TrimSpace(input.City)
	customer.Notes = strings.TrimSpace(input.Notes)

	if customer.Name == "" {
		return ErrCustomerNameRequired
	}
	return nil
}

func (s *customerService) Create(ctx context.Context, tenant domain.Tenant, input CustomerInput) (*domain.Customer, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	customer := &domain.Customer{ID: uuid.New(), BusinessID: tenant.BusinessID}
	if err := applyCustomerInput(customer, input); err != nil {
		return nil, err
	}

	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) Update(ctx context.Context, tenant domain.Tenant, id uuid.UUID, input CustomerInput) (*domain.Customer, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	customer, err := s.customers.FindByID(ctx, tenant.BusinessID, id)
	if err != nil {
		return nil, err
	}
	if err := applyCustomerInput(customer, input); err != nil {
		return nil, err
	}

	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) Delete(ctx context.Context, tenant domain.Tenant, id uuid.UUID) error {
	if err := tenant.Validate(); err != nil {
		return err
	}
	return s.customers.Delete(ctx, tenant.BusinessID, id)
}

func (s *customerService) Get(ctx context.Context, tenant domain.Tenant, id uuid.UUID) (*domain.Customer, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	return s.customers.FindByID(ctx, tenant.BusinessID, id)
}

func (s *customerService) List(ctx context.Context, tenant domain.Tenant, search string) ([]*domain.Customer, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}
	return s.customers.List(ctx, tenant.BusinessID, strings.TrimSpace(search))
}

// Stats aggregates orders placed under the customer's name or email. Orders
// are not linked to customer records, so matching is by contact details.
func (s *customerService) Stats(ctx context.Context, tenant domain.Tenant, id uuid.UUID) (*domain.CustomerStats, error) {
	customer, err := s.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	return s.orders.CustomerStats(ctx, tenant.BusinessID, customer.Name, customer.Email)
}
