package service

import (
	"context"
	"time"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/repository"

	"github.com/shopspring/decimal"
)

const lowStockLimit = 5

// Overview is the dashboard summary of a business
type Overview struct {
	TotalProducts int               `json:"total_products"`
	TotalStock    int               `json:"total_stock"`
	LowStock      []*domain.Product `json:"low_stock"`
	TodaySales    decimal.Decimal   `json:"today_sales"`
	TodayOrders   int               `json:"today_orders"`
}

type OverviewService interface {
	Get(ctx context.Context, tenant domain.Tenant) (*Overview, error)
}

type overviewService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	loc      *time.Location
	now      func() time.Time
}

func NewOverviewService(products repository.ProductRepository, orders repository.OrderRepository, loc *time.Location, now func() time.Time) OverviewService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &overviewService{products: products, orders: orders, loc: loc, now: now}
}

func (s *overviewService) Get(ctx context.Context, tenant domain.Tenant) (*Overview, error) {
	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	count, stock, err := s.products.Summary(ctx, tenant.BusinessID)
	if err != nil {
		return nil, err
	}

	lowStock, err := s.products.ListLowStock(ctx, tenant.BusinessID, lowStockLimit)
	if err != nil {
		return nil, err
	}
	if lowStock == nil {
		lowStock = []*domain.Product{}
	}

	today, _ := RangeStart(RangeToday, s.now(), s.loc)
	sales, orders, err := s.orders.SalesSince(ctx, tenant.BusinessID, today)
	if err != nil {
		return nil, err
	}

	return &Overview{
		TotalProducts: count,
		TotalStock:    stock,
		LowStock:      lowStock,
		TodaySales:    sales,
		TodayOrders:   orders,
	}, nil
}
