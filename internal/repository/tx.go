package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inventory-hub/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is the set of writes allowed inside a stock-affecting transaction.
// Reads through LockProduct observe writes made earlier in the same Tx.
type Tx interface {
	LockProduct(ctx context.Context, businessID string, id uuid.UUID) (*domain.Product, error)
	SetProductStock(ctx context.Context, businessID string, id uuid.UUID, stock int) error
	InsertProduct(ctx context.Context, product *domain.Product) error
	InsertStockLog(ctx context.Context, log *domain.StockLog) error
	InsertOrder(ctx context.Context, order *domain.Order) error
}

// TxManager runs fn atomically: all writes commit when fn returns nil and
// are discarded otherwise. fn may be invoked more than once when the store
// detects a write conflict, so it must not have side effects outside tx.
type TxManager interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

const retryBaseDelay = 20 * time.Millisecond

// RetryConflicts re-runs attempt with exponential backoff while it fails
// with a retryable error, up to maxRetries extra attempts.
func RetryConflicts(ctx context.Context, maxRetries int, attempt func(ctx context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := retry.WithMaxRetries(uint64(maxRetries), retry.NewExponential(retryBaseDelay))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := attempt(ctx)
		if IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// IsRetryable reports whether err is a transient write conflict
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateOrderNumber) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
	}
	return false
}

type txManager struct {
	db         *sql.DB
	maxRetries int
}

// NewTxManager creates a TxManager backed by PostgreSQL transactions.
// Products are locked with SELECT ... FOR UPDATE so concurrent commits on
// the same product serialize.
func NewTxManager(db *sql.DB, maxRetries int) TxManager {
	return &txManager{db: db, maxRetries: maxRetries}
}

func (m *txManager) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return RetryConflicts(ctx, m.maxRetries, func(ctx context.Context) error {
		return m.runOnce(ctx, fn)
	})
}

func (m *txManager) runOnce(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(newPgTx(sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type pgTx struct {
	products  ProductRepository
	orders    OrderRepository
	stockLogs StockLogRepository
}

func newPgTx(tx *sql.Tx) *pgTx {
	return &pgTx{
		products:  NewProductRepository(tx),
		orders:    NewOrderRepository(tx),
		stockLogs: NewStockLogRepository(tx),
	}
}

func (t *pgTx) LockProduct(ctx context.Context, businessID string, id uuid.UUID) (*domain.Product, error) {
	return t.products.FindByIDForUpdate(ctx, businessID, id)
}

func (t *pgTx) SetProductStock(ctx context.Context, businessID string, id uuid.UUID, stock int) error {
	return t.products.UpdateStock(ctx, businessID, id, stock)
}

func (t *pgTx) InsertProduct(ctx context.Context, product *domain.Product) error {
	return t.products.Create(ctx, product)
}

func (t *pgTx) InsertStockLog(ctx context.Context, log *domain.StockLog) error {
	return t.stockLogs.Create(ctx, log)
}

func (t *pgTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	return t.orders.Create(ctx, order)
}
