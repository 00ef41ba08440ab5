package transport

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/middleware"
	"inventory-hub/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockLogHandler serves the stock audit trail
type StockLogHandler struct {
	history service.StockHistoryService
	logger  *zap.Logger
	now     func() time.Time
}

// NewStockLogHandler creates a new StockLogHandler
func NewStockLogHandler(history service.StockHistoryService, logger *zap.Logger) *StockLogHandler {
	return &StockLogHandler{history: history, logger: logger, now: time.Now}
}

func (h *StockLogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/stock-logs", func(r chi.Router) {
		r.Get("/", h.ListStockLogs)
		r.Get("/stats", h.StockLogStats)
		r.Get("/export", h.ExportStockLogs)
	})
}

// historyQuery reads type, product_id, range, search and paging parameters
func historyQuery(r *http.Request) (service.StockHistoryQuery, error) {
	q := r.URL.Query()
	query := service.StockHistoryQuery{Range: q.Get("range")}
	query.Filter.Search = strings.TrimSpace(q.Get("search"))
	query.Filter.Page, query.Filter.PageSize = pagination(r)

	if raw := q.Get("type"); raw != "" && raw != "all" {
		logType, err := domain.ParseStockLogType(raw)
		if err != nil {
			return query, err
		}
		query.Filter.Type = logType
	}

	if raw := q.Get("product_id"); raw != "" && raw != "all" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return query, fmt.Errorf("invalid product_id %q", raw)
		}
		query.Filter.ProductID = id
	}
	return query, nil
}

func (h *StockLogHandler) ListStockLogs(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	query, err := historyQuery(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	logs, total, err := h.history.List(r.Context(), t, query)
	if err != nil {
		respondError(w, h.logger, err, "failed to list stock history")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newListResponse(logs, total, query.Filter.Page, query.Filter.PageSize))
}

func (h *StockLogHandler) StockLogStats(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	query, err := historyQuery(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.history.Stats(r.Context(), t, query)
	if err != nil {
		respondError(w, h.logger, err, "failed to compute stock statistics")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// ExportStockLogs downloads the matching history as CSV
func (h *StockLogHandler) ExportStockLogs(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	query, err := historyQuery(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	// buffered so a failure can still produce an error response
	var buf bytes.Buffer
	if err := h.history.ExportCSV(r.Context(), t, query, &buf); err != nil {
		respondError(w, h.logger, err, "failed to export stock history")
		return
	}

	filename := fmt.Sprintf("stock-history-%s.csv", h.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
