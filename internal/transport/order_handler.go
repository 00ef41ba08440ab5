package transport

import (
	"errors"
	"net/http"
	"strings"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/middleware"
	"inventory-hub/internal/ordering"
	"inventory-hub/internal/repository"
	"inventory-hub/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderItemRequest is one requested product line
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"omitempty,uuid"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest represents a single-customer order submission.
// Business rules such as required customer and stock limits are checked by
// the ordering service so that every problem is reported at once.
type CreateOrderRequest struct {
	CustomerName  string             `json:"customer_name" validate:"max=255"`
	CustomerPhone string             `json:"customer_phone" validate:"max=50"`
	CustomerEmail string             `json:"customer_email" validate:"max=255"`
	Discount      decimal.Decimal    `json:"discount"`
	Items         []OrderItemRequest `json:"items" validate:"max=200,dive"`
}

// BulkOrderRow is one spreadsheet-style row of a bulk submission
type BulkOrderRow struct {
	CustomerName  string          `json:"customer_name" validate:"max=255"`
	CustomerPhone string          `json:"customer_phone" validate:"max=50"`
	CustomerEmail string          `json:"customer_email" validate:"max=255"`
	ProductID     string          `json:"product_id" validate:"omitempty,uuid"`
	Quantity      int             `json:"quantity"`
	Discount      decimal.Decimal `json:"discount"`
}

// BulkOrderRequest represents a multi-customer submission
type BulkOrderRequest struct {
	Rows []BulkOrderRow `json:"rows" validate:"max=1000,dive"`
}

// UpdateOrderStatusRequest changes the fulfilment status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,orderstatus"`
}

// UpdatePaymentStatusRequest changes the payment status
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,paymentstatus"`
}

// OrderHandler handles HTTP requests for orders
type OrderHandler struct {
	submissions ordering.Service
	orders      service.OrderService
	logger      *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(submissions ordering.Service, orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		submissions: submissions,
		orders:      orders,
		logger:      logger,
	}
}

// RegisterRoutes registers order routes on an authenticated router.
// idempotency wraps the submission endpoints.
func (h *OrderHandler) RegisterRoutes(r chi.Router, idempotency, ownerOnly func(http.Handler) http.Handler) {
	r.Route("/orders", func(r chi.Router) {
		r.With(idempotency).Post("/", h.CreateOrder)
		r.With(idempotency).Post("/bulk", h.CreateBulkOrders)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Patch("/{id}/payment", h.UpdatePaymentStatus)
		r.With(ownerOnly).Delete("/{id}", h.DeleteOrder)
	})
}

// parseProductID maps an empty id to uuid.Nil so the ordering service can
// report "Select a product"; malformed ids were rejected by validation
func parseProductID(raw string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// CreateOrder handles a single order submission
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	items := make([]ordering.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, ordering.OrderItemInput{
			ProductID: parseProductID(item.ProductID),
			Quantity:  item.Quantity,
		})
	}

	result, err := h.submissions.SubmitOrder(r.Context(), t, ordering.OrderForm{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Discount:      req.Discount,
	}, items)
	if err != nil {
		respondError(w, h.logger, err, "failed to create order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, result)
}

// CreateBulkOrders handles a bulk submission. When a group fails after
// earlier groups committed, the body still reports orders_created.
func (h *OrderHandler) CreateBulkOrders(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}

	var req BulkOrderRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	rows := make([]ordering.BulkRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, ordering.BulkRow{
			CustomerName:  row.CustomerName,
			CustomerPhone: row.CustomerPhone,
			CustomerEmail: row.CustomerEmail,
			ProductID:     parseProductID(row.ProductID),
			Quantity:      row.Quantity,
			Discount:      row.Discount,
		})
	}

	result, err := h.submissions.SubmitBulkOrders(r.Context(), t, rows)
	if err != nil {
		var verr *ordering.ValidationError
		if errors.As(err, &verr) || errors.Is(err, domain.ErrMissingTenant) {
			respondError(w, h.logger, err, "failed to create orders")
			return
		}

		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Bulk order submission failed", zap.Error(err))
			result.Error = "failed to create orders"
		}
		middleware.RespondWithJSON(w, status, result)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, result)
}

// ListOrders returns orders newest first
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}

	filter := repository.OrderFilter{Search: strings.TrimSpace(r.URL.Query().Get("search"))}
	if raw := r.URL.Query().Get("status"); raw != "" && raw != "all" {
		status, err := domain.ParseOrderStatus(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = status
	}
	filter.Page, filter.PageSize = pagination(r)

	orders, total, err := h.orders.List(r.Context(), t, filter)
	if err != nil {
		respondError(w, h.logger, err, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newListResponse(orders, total, filter.Page, filter.PageSize))
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	order, err := h.orders.Get(r.Context(), t, id)
	if err != nil {
		respondError(w, h.logger, err, "failed to get order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), t, id, domain.OrderStatus(req.Status))
	if err != nil {
		respondError(w, h.logger, err, "failed to update order status")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdatePaymentStatusRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	order, err := h.orders.UpdatePaymentStatus(r.Context(), t, id, domain.PaymentStatus(req.PaymentStatus))
	if err != nil {
		respondError(w, h.logger, err, "failed to update payment status")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// DeleteOrder removes an order. Stock is not restored.
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.orders.Delete(r.Context(), t, id); err != nil {
		respondError(w, h.logger, err, "failed to delete order")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
