// Package memory is an in-process implementation of the transactional
// store used by the ordering and inventory paths. WithTx holds a single
// store-wide lock, so transactions are fully serialized.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/repository"

	"github.com/google/uuid"
)

type productKey struct {
	businessID string
	id         uuid.UUID
}

type Store struct {
	mu         sync.Mutex
	maxRetries int
	products   map[productKey]domain.Product
	stockLogs  []domain.StockLog
	orders     []domain.Order
	numbers    map[string]struct{}

	// insertOrderErr is returned by the next InsertOrder when set
	insertOrderErr error
}

var (
	_ repository.TxManager = (*Store)(nil)
	_ repository.Tx        = (*memTx)(nil)
)

// NewStore creates an empty store. Order number collisions are retried up
// to maxRetries times like the PostgreSQL TxManager does.
func NewStore(maxRetries int) *Store {
	return &Store{
		maxRetries: maxRetries,
		products:   make(map[productKey]domain.Product),
		numbers:    make(map[string]struct{}),
	}
}

// Seed stores a product outside any transaction, assigning an id when unset
func (s *Store) Seed(product domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now()
	product.CreatedAt, product.UpdatedAt = now, now
	s.products[productKey{product.BusinessID, product.ID}] = product
	return product
}

// FailNextInsertOrder makes the next InsertOrder return err
func (s *Store) FailNextInsertOrder(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertOrderErr = err
}

// FindByID is a point read outside any transaction
func (s *Store) FindByID(ctx context.Context, businessID string, id uuid.UUID) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productKey{businessID, id}]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &product, nil
}

// StockLogs returns the committed stock logs of a business
func (s *Store) StockLogs(businessID string) []domain.StockLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.StockLog
	for _, log := range s.stockLogs {
		if log.BusinessID == businessID {
			out = append(out, log)
		}
	}
	return out
}

// Orders returns the committed orders of a business
func (s *Store) Orders(businessID string) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Order
	for _, order := range s.orders {
		if order.BusinessID == businessID {
			out = append(out, order)
		}
	}
	return out
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return repository.RetryConflicts(ctx, s.maxRetries, func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if err := ctx.Err(); err != nil {
			return err
		}

		tx := &memTx{
			store:    s,
			products: make(map[productKey]domain.Product),
			numbers:  make(map[string]struct{}),
		}
		if err := fn(tx); err != nil {
			return err
		}
		tx.apply()
		return nil
	})
}

// memTx stages writes until the transaction function returns nil
type memTx struct {
	store     *Store
	products  map[productKey]domain.Product
	stockLogs []domain.StockLog
	orders    []domain.Order
	numbers   map[string]struct{}
}

func (t *memTx) lookup(key productKey) (domain.Product, bool) {
	if product, ok := t.products[key]; ok {
		return product, true
	}
	product, ok := t.store.products[key]
	return product, ok
}

func (t *memTx) LockProduct(ctx context.Context, businessID string, id uuid.UUID) (*domain.Product, error) {
	product, ok := t.lookup(productKey{businessID, id})
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &product, nil
}

func (t *memTx) SetProductStock(ctx context.Context, businessID string, id uuid.UUID, stock int) error {
	key := productKey{businessID, id}
	product, ok := t.lookup(key)
	if !ok {
		return repository.ErrProductNotFound
	}
	if stock < 0 {
		return fmt.Errorf("failed to update product stock: stock %d violates check constraint", stock)
	}
	product.Stock = stock
	product.UpdatedAt = time.Now()
	t.products[key] = product
	return nil
}

func (t *memTx) InsertProduct(ctx context.Context, product *domain.Product) error {
	key := productKey{product.BusinessID, product.ID}
	if _, exists := t.lookup(key); exists {
		return fmt.Errorf("failed to create product: duplicate id %s", product.ID)
	}
	now := time.Now()
	product.CreatedAt, product.UpdatedAt = now, now
	t.products[key] = *product
	return nil
}

func (t *memTx) InsertStockLog(ctx context.Context, log *domain.StockLog) error {
	log.CreatedAt = time.Now()
	t.stockLogs = append(t.stockLogs, *log)
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	if err := t.store.insertOrderErr; err != nil {
		t.store.insertOrderErr = nil
		return err
	}

	key := order.BusinessID + "/" + order.OrderNumber
	_, committed := t.store.numbers[key]
	_, staged := t.numbers[key]
	if committed || staged {
		return fmt.Errorf("%w: %s", repository.ErrDuplicateOrderNumber, order.OrderNumber)
	}

	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now
	t.numbers[key] = struct{}{}
	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	t.orders = append(t.orders, stored)
	return nil
}

func (t *memTx) apply() {
	for key, product := range t.products {
		t.store.products[key] = product
	}
	for key := range t.numbers {
		t.store.numbers[key] = struct{}{}
	}
	t.store.stockLogs = append(t.store.stockLogs, t.stockLogs...)
	t.store.orders = append(t.store.orders, t.orders...)
}
