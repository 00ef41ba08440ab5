package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/repository"
)

var ErrUnknownRange = errors.New("unknown date range")

// Date ranges accepted by stock history queries
const (
	RangeAll   = "all"
	RangeToday = "today"
	RangeWeek  = "week"
	RangeMonth = "month"
	RangeYear  = "year"
)

var stockCSVHeader = []string{"Date", "Product", "Type", "Quantity", "Previous Stock", "New Stock", "Reason"}

// StockHistoryQuery selects stock log entries. Range is resolved against
// the service clock in the configured location.
type StockHistoryQuery struct {
	Filter repository.StockLogFilter
	Range  string
}

// StockHistoryService reads the stock audit trail
type StockHistoryService interface {
	List(ctx context.Context, tenant domain.Tenant, query StockHistoryQuery) ([]*domain.StockLog, int, error)
	Stats(ctx context.Context, tenant domain.Tenant, query StockHistoryQuery) (*repository.StockLogStats, error)
	ExportCSV(ctx context.Context, tenant domain.Tenant, query StockHistoryQuery, w io.Writer) error
}

type stockHistoryService struct {
	logs repository.StockLogRepository
	loc  *time.Location
	now  func() time.Time
}

// NewStockHistoryService creates a new instance of StockHistoryService
func NewStockHistoryService(logs repository.StockLogRepository, loc *time.Location, now func() time.Time) StockHistoryService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &stockHistoryService{logs: logs, loc: loc, now: now}
}

// RangeStart returns the first instant included by a named range. "week"
// is the trailing seven days; the others start at a calendar boundary.
func RangeStart(name string, now time.Time, loc *time.Location) (time.Time, error) {
	now = now.In(loc)
	switch name {
	case "", RangeAll:
		return time.Time{}, nil
	case RangeToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	case RangeWeek:
		return now.Add(-7 * 24 * time.Hour), nil
	case RangeMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc), nil
	case RangeYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownRange, name)
}

func (s *stockHistoryService) resolve(tenant domain.Tenant, query StockHistoryQuery) (repository.StockLogFilter, error) {
	if err := tenant.Validate(); err != nil {
		return repository.StockLogFilter{}, err
	}
	since, err := RangeStart(query.Range, s.now(), s.loc)
	if err != nil {
		return repository.StockLogFilter{}, err
	}
	filter := query.Filter
	filter.Since = since
	return filter, nil
}

func (s *stockHistoryService) List(ctx context.Context, tenant domain.Tenant, query StockHistoryQuery) ([]*domain.StockLog, int, error) {
	filter, err := s.resolve(tenant, query)
	if err != nil {
		return nil, 0, err
	}
	return s.logs.List(ctx, tenant.BusinessID, filter)
}

func (s *stockHistoryService) Stats(ctx context.Context, tenant domain.Tenant, query StockHistoryQuery) (*repository.StockLogStats, error) {
	filter, err := s.resolve(tenant, query)
	if err != nil {
		return nil, err
	}
	return s.logs.Stats(ctx, tenant.BusinessID, filter)
}

// ExportCSV writes every matching entry, newest first
func (s *stockHistoryService) ExportCSV(ctx context.Context, tenant domain.Tenant, query StockHistoryQuery, w io.Writer) error {
	filter, err := s.resolve(tenant, query)
	if err != nil {
		return err
	}

	logs, err := s.logs.ListAll(ctx, tenant.BusinessID, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(stockCSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, log := range logs {
		record := []string{
			log.CreatedAt.In(s.loc).Format("2006-01-02 15:04"),
			log.ProductName,
			string(log.Type),
			strconv.Itoa(log.Quantity),
			strconv.Itoa(log.PreviousStock),
			strconv.Itoa(log.NewStock),
			log.Reason,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
