package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ownerTenant = domain.Tenant{BusinessID: "biz-1", ActorID: "user-1", Role: domain.RoleOwner}
	otherTenant = domain.Tenant{BusinessID: "biz-2", ActorID: "user-2", Role: domain.RoleOwner}
)

// Mock repositories for testing
type mockProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepository) get(businessID string, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok || p.BusinessID != businessID {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, err := m.get(product.BusinessID, product.ID)
	if err != nil {
		return err
	}
	copied := *product
	copied.Stock = existing.Stock
	m.products[product.ID] = &copied
	product.Stock = existing.Stock
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, businessID string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.get(businessID, id); err != nil {
		return err
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, businessID string, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(businessID, id)
	if err != nil {
		return nil, err
	}
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) FindByIDForUpdate(ctx context.Context, businessID string, id uuid.UUID) (*domain.Product, error) {
	return m.FindByID(ctx, businessID, id)
}

func (m *mockProductRepository) UpdateStock(ctx context.Context, businessID string, id uuid.UUID, stock int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(businessID, id)
	if err != nil {
		return err
	}
	p.Stock = stock
	return nil
}

func (m *mockProductRepository) List(ctx context.Context, businessID string, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Product
	for _, p := range m.products {
		if p.BusinessID != businessID {
			continue
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (m *mockProductRepository) ListLowStock(ctx context.Context, businessID string, limit int) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Product
	for _, p := range m.products {
		if p.BusinessID == businessID && p.IsActive && p.IsLowStock() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockProductRepository) Summary(ctx context.Context, businessID string) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count, stock := 0, 0
	for _, p := range m.products {
		if p.BusinessID == businessID {
			count++
			stock += p.Stock
		}
	}
	return count, stock, nil
}

type mockOrderRepository struct {
	orders     map[uuid.UUID]*domain.Order
	salesSince time.Time
}

func newMockOrderRepository(orders ...*domain.Order) *mockOrderRepository {
	m := &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *mockOrderRepository) get(businessID string, id uuid.UUID) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok || o.BusinessID != businessID {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, businessID string, id uuid.UUID) (*domain.Order, error) {
	o, err := m.get(businessID, id)
	if err != nil {
		return nil, err
	}
	copied := *o
	return &copied, nil
}

func (m *mockOrderRepository) List(ctx context.Context, businessID string, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if o.BusinessID == businessID && (filter.Status == "" || o.Status == filter.Status) {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, businessID string, id uuid.UUID, status domain.OrderStatus) error {
	o, err := m.get(businessID, id)
	if err != nil {
		return err
	}
	o.Status = status
	return nil
}

func (m *mockOrderRepository) UpdatePaymentStatus(ctx context.Context, businessID string, id uuid.UUID, status domain.PaymentStatus) error {
	o, err := m.get(businessID, id)
	if err != nil {
		return err
	}
	o.PaymentStatus = status
	return nil
}

func (m *mockOrderRepository) Delete(ctx context.Context, businessID string, id uuid.UUID) error {
	if _, err := m.get(businessID, id); err != nil {
		return err
	}
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepository) SalesSince(ctx context.Context, businessID string, since time.Time) (decimal.Decimal, int, error) {
	m.salesSince = since
	total, count := decimal.Zero, 0
	for _, o := range m.orders {
		if o.BusinessID == businessID && !o.CreatedAt.Before(since) && o.Status != domain.OrderStatusCancelled {
			total = total.Add(o.Total)
			count++
		}
	}
	return total, count, nil
}

func (m *mockOrderRepository) CustomerStats(ctx context.Context, businessID, name, email string) (*domain.CustomerStats, error) {
	stats := &domain.CustomerStats{TotalSpent: decimal.Zero}
	for _, o := range m.orders {
		if o.BusinessID != businessID {
			continue
		}
		if strings.EqualFold(o.CustomerName, name) || (email != "" && strings.EqualFold(o.CustomerEmail, email)) {
			stats.TotalOrders++
			stats.TotalSpent = stats.TotalSpent.Add(o.Total)
			created := o.CreatedAt
			if stats.LastOrderAt == nil || created.After(*stats.LastOrderAt) {
				stats.LastOrderAt = &created
			}
		}
	}
	return stats, nil
}

type mockCustomerRepository struct {
	customers map[uuid.UUID]*domain.Customer
}

func newMockCustomerRepository() *mockCustomerRepository {
	return &mockCustomerRepository{customers: make(map[uuid.UUID]*domain.Customer)}
}

func (m *mockCustomerRepository) get(businessID string, id uuid.UUID) (*domain.Customer, error) {
	c, ok := m.customers[id]
	if !ok || c.BusinessID != businessID {
		return nil, repository.ErrCustomerNotFound
	}
	return c, nil
}

func (m *mockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	copied := *customer
	m.customers[customer.ID] = &copied
	return nil
}

func (m *mockCustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	if _, err := m.get(customer.BusinessID, customer.ID); err != nil {
		return err
	}
	copied := *customer
	m.customers[customer.ID] = &copied
	return nil
}

func (m *mockCustomerRepository) Delete(ctx context.Context, businessID string, id uuid.UUID) error {
	if _, err := m.get(businessID, id); err != nil {
		return err
	}
	delete(m.customers, id)
	return nil
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, businessID string, id uuid.UUID) (*domain.Customer, error) {
	c, err := m.get(businessID, id)
	if err != nil {
		return nil, err
	}
	copied := *c
	return &copied, nil
}

func (m *mockCustomerRepository) List(ctx context.Context, businessID, search string) ([]*domain.Customer, error) {
	var out []*domain.Customer
	for _, c := range m.customers {
		if c.BusinessID == businessID && strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockStockLogRepository struct {
	logs       []*domain.StockLog
	lastFilter repository.StockLogFilter
}

func (m *mockStockLogRepository) Create(ctx context.Context, log *domain.StockLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockStockLogRepository) matching(businessID string, filter repository.StockLogFilter) []*domain.StockLog {
	m.lastFilter = filter
	var out []*domain.StockLog
	for _, l := range m.logs {
		if l.BusinessID != businessID {
			continue
		}
		if filter.Type != "" && l.Type != filter.Type {
			continue
		}
		if !filter.Since.IsZero() && l.CreatedAt.Before(filter.Since) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (m *mockStockLogRepository) List(ctx context.Context, businessID string, filter repository.StockLogFilter) ([]*domain.StockLog, int, error) {
	out := m.matching(businessID, filter)
	return out, len(out), nil
}

func (m *mockStockLogRepository) ListAll(ctx context.Context, businessID string, filter repository.StockLogFilter) ([]*domain.StockLog, error) {
	return m.matching(businessID, filter), nil
}

func (m *mockStockLogRepository) Stats(ctx context.Context, businessID string, filter repository.StockLogFilter) (*repository.StockLogStats, error) {
	stats := &repository.StockLogStats{}
	products := map[uuid.UUID]bool{}
	for _, l := range m.matching(businessID, filter) {
		switch l.Type {
		case domain.StockLogIn:
			stats.TotalIn += l.Quantity
		case domain.StockLogOut:
			stats.TotalOut += l.Quantity
		case domain.StockLogAdjustment:
			stats.Adjustments++
		}
		products[l.ProductID] = true
	}
	stats.UniqueProducts = len(products)
	return stats, nil
}

type recordingStockPublisher struct {
	mu   sync.Mutex
	logs []*domain.StockLog
	err  error
}

func (p *recordingStockPublisher) PublishStockChanged(ctx context.Context, log *domain.StockLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.logs = append(p.logs, log)
	return nil
}

type countingObserver struct {
	counts map[string]int
}

func (o *countingObserver) ObserveStockAdjustment(logType string) {
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[logType]++
}
