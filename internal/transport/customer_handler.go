package transport

import (
	"net/http"

	"inventory-hub/internal/middleware"
	"inventory-hub/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CustomerRequest represents a customer record payload
type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"omitempty,email,max=255"`
	Phone   string `json:"phone" validate:"max=50"`
	Address string `json:"address" validate:"max=500"`
	City    string `json:"city" validate:"max=100"`
	Notes   string `json:"notes" validate:"max=2000"`
}

func (c CustomerRequest) input() service.CustomerInput {
	return service.CustomerInput{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
		City:    c.City,
		Notes:   c.Notes,
	}
}

// CustomerHandler handles HTTP requests for customers
type CustomerHandler struct {
	customers service.CustomerService
	logger    *zap.Logger
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customers service.CustomerService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{customers: customers, logger: logger}
}

func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.CreateCustomer)
		r.Get("/", h.ListCustomers)
		r.Get("/{id}", h.GetCustomer)
		r.Put("/{id}", h.UpdateCustomer)
		r.Delete("/{id}", h.DeleteCustomer)
		r.Get("/{id}/stats", h.CustomerStats)
	})
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}

	var req CustomerRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	customer, err := h.customers.Create(r.Context(), t, req.input())
	if err != nil {
		respondError(w, h.logger, err, "failed to create customer")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}

	customers, err := h.customers.List(r.Context(), t, r.URL.Query().Get("search"))
	if err != nil {
		respondError(w, h.logger, err, "failed to list customers")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newListResponse(customers, len(customers), 1, len(customers)))
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	customer, err := h.customers.Get(r.Context(), t, id)
	if err != nil {
		respondError(w, h.logger, err, "failed to get customer")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req CustomerRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	customer, err := h.customers.Update(r.Context(), t, id, req.input())
	if err != nil {
		respondError(w, h.logger, err, "failed to update customer")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.customers.Delete(r.Context(), t, id); err != nil {
		respondError(w, h.logger, err, "failed to delete customer")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandler) CustomerStats(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	stats, err := h.customers.Stats(r.Context(), t, id)
	if err != nil {
		respondError(w, h.logger, err, "failed to compute customer statistics")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}
