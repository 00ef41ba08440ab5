package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeStart(t *testing.T) {
	now := time.Date(2025, time.March, 7, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		want time.Time
	}{
		{RangeAll, time.Time{}},
		{"", time.Time{}},
		{RangeToday, time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC)},
		{RangeWeek, time.Date(2025, time.February, 28, 15, 30, 0, 0, time.UTC)},
		{RangeMonth, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{RangeYear, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RangeStart(tt.name, now, time.UTC)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}

	_, err := RangeStart("decade", now, time.UTC)
	assert.ErrorIs(t, err, ErrUnknownRange)
}

func TestRangeStartUsesLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	// 20:00 UTC is 03:00 the next day in UTC+7
	now := time.Date(2025, time.March, 6, 20, 0, 0, 0, time.UTC)

	got, err := RangeStart(RangeToday, now, jakarta)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, time.March, 7, 0, 0, 0, 0, jakarta)))
}

func newHistoryFixture() (*mockStockLogRepository, StockHistoryService) {
	now := time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)
	productA, productB := uuid.New(), uuid.New()
	repo := &mockStockLogRepository{logs: []*domain.StockLog{
		{BusinessID: "biz-1", ProductID: productA, ProductName: "Alpha", Type: domain.StockLogIn, Quantity: 10, PreviousStock: 0, NewStock: 10, Reason: "Initial stock", CreatedAt: now.Add(-40 * 24 * time.Hour)},
		{BusinessID: "biz-1", ProductID: productA, ProductName: "Alpha", Type: domain.StockLogOut, Quantity: 3, PreviousStock: 10, NewStock: 7, Reason: "Order sale", CreatedAt: now.Add(-2 * time.Hour)},
		{BusinessID: "biz-1", ProductID: productB, ProductName: "Beta, large", Type: domain.StockLogAdjustment, Quantity: 2, PreviousStock: 5, NewStock: 3, Reason: "Damaged", CreatedAt: now.Add(-1 * time.Hour)},
		{BusinessID: "biz-2", ProductID: uuid.New(), ProductName: "Other", Type: domain.StockLogIn, Quantity: 99, NewStock: 99, CreatedAt: now},
	}}
	return repo, NewStockHistoryService(repo, time.UTC, func() time.Time { return now })
}

func TestStockHistoryStats(t *testing.T) {
	_, svc := newHistoryFixture()

	all, err := svc.Stats(context.Background(), ownerTenant, StockHistoryQuery{Range: RangeAll})
	require.NoError(t, err)
	assert.Equal(t, repository.StockLogStats{TotalIn: 10, TotalOut: 3, Adjustments: 1, UniqueProducts: 2}, *all)

	today, err := svc.Stats(context.Background(), ownerTenant, StockHistoryQuery{Range: RangeToday})
	require.NoError(t, err)
	assert.Equal(t, repository.StockLogStats{TotalIn: 0, TotalOut: 3, Adjustments: 1, UniqueProducts: 2}, *today)
}

func TestStockHistoryListAppliesRange(t *testing.T) {
	repo, svc := newHistoryFixture()

	logs, total, err := svc.List(context.Background(), ownerTenant, StockHistoryQuery{
		Filter: repository.StockLogFilter{Type: domain.StockLogOut},
		Range:  RangeMonth,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Order sale", logs[0].Reason)
	assert.True(t, repo.lastFilter.Since.Equal(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)))

	_, _, err = svc.List(context.Background(), ownerTenant, StockHistoryQuery{Range: "fortnight"})
	assert.ErrorIs(t, err, ErrUnknownRange)
}

func TestStockHistoryExportCSV(t *testing.T) {
	_, svc := newHistoryFixture()
	var buf bytes.Buffer

	require.NoError(t, svc.ExportCSV(context.Background(), ownerTenant, StockHistoryQuery{Range: RangeAll}, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Date", "Product", "Type", "Quantity", "Previous Stock", "New Stock", "Reason"}, records[0])
	assert.Equal(t, []string{"2025-03-07 10:00", "Alpha", "out", "3", "10", "7", "Order sale"}, records[2])
	assert.Equal(t, "Beta, large", records[3][1], "commas are quoted, not split")
}
