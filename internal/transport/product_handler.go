package transport

import (
	"net/http"
	"strings"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/middleware"
	"inventory-hub/internal/repository"
	"inventory-hub/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest represents the editable fields of a product. Stock is
// only read on create.
type ProductRequest struct {
	Name              string          `json:"name" validate:"required,max=255"`
	SKU               string          `json:"sku" validate:"max=100"`
	Description       string          `json:"description" validate:"max=2000"`
	Category          string          `json:"category" validate:"max=100"`
	ImageURL          string          `json:"image_url" validate:"omitempty,url,max=1000"`
	Price             decimal.Decimal `json:"price"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	Stock             int             `json:"stock" validate:"gte=0"`
	LowStockThreshold *int            `json:"low_stock_threshold" validate:"omitempty,gte=0"`
	IsActive          *bool           `json:"is_active"`
}

func (p ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:              p.Name,
		SKU:               p.SKU,
		Description:       p.Description,
		Category:          p.Category,
		ImageURL:          p.ImageURL,
		Price:             p.Price,
		CostPrice:         p.CostPrice,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		IsActive:          p.IsActive,
	}
}

// BulkProductRequest creates several products in one transaction
type BulkProductRequest struct {
	Products []ProductRequest `json:"products" validate:"required,min=1,max=500,dive"`
}

// StockAdjustmentRequest adds stock ("in") or sets it ("adjustment")
type StockAdjustmentRequest struct {
	Type     string `json:"type" validate:"required,stocktype"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	Reason   string `json:"reason" validate:"max=255"`
}

// ProductHandler handles HTTP requests for the catalog and stock
type ProductHandler struct {
	products  service.ProductService
	inventory service.InventoryService
	logger    *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products service.ProductService, inventory service.InventoryService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products:  products,
		inventory: inventory,
		logger:    logger,
	}
}

// RegisterRoutes registers product routes on an authenticated router
func (h *ProductHandler) RegisterRoutes(r chi.Router, ownerOnly func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Post("/bulk", h.BulkCreateProducts)
		r.Get("/", h.ListProducts)
		r.Get("/categories", h.ListCategories)
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.With(ownerOnly).Delete("/{id}", h.DeleteProduct)
		r.Post("/{id}/stock", h.AdjustStock)
	})
}

// RegisterPublicRoutes registers the unauthenticated catalog
func (h *ProductHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/api/catalog/{businessID}/products", h.PublicCatalog)
	r.Get("/api/catalog/{businessID}/categories", h.PublicCategories)
}

func productFilter(r *http.Request) repository.ProductFilter {
	q := r.URL.Query()
	filter := repository.ProductFilter{
		Search:     strings.TrimSpace(q.Get("search")),
		Category:   strings.TrimSpace(q.Get("category")),
		ActiveOnly: q.Get("active") == "true",
		SortBy:     q.Get("sort_by"),
		SortOrder:  repository.SortOrder(strings.ToUpper(q.Get("sort_order"))),
	}
	filter.Page, filter.PageSize = pagination(r)
	return filter
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	product, err := h.products.Create(r.Context(), t, req.input())
	if err != nil {
		respondError(w, h.logger, err, "failed to create product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// BulkCreateProducts creates every product or none
func (h *ProductHandler) BulkCreateProducts(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}

	var req BulkProductRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	inputs := make([]service.ProductInput, 0, len(req.Products))
	for _, p := range req.Products {
		inputs = append(inputs, p.input())
	}

	products, err := h.products.BulkCreate(r.Context(), t, inputs)
	if err != nil {
		respondError(w, h.logger, err, "failed to create products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"created":  len(products),
		"products": products,
	})
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}

	filter := productFilter(r)
	products, total, err := h.products.List(r.Context(), t, filter)
	if err != nil {
		respondError(w, h.logger, err, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newListResponse(products, total, filter.Page, filter.PageSize))
}

func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}

	categories, err := h.products.Categories(r.Context(), t.BusinessID, r.URL.Query().Get("active") == "true")
	if err != nil {
		respondError(w, h.logger, err, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.products.Get(r.Context(), t, id)
	if err != nil {
		respondError(w, h.logger, err, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// UpdateProduct changes catalog fields; any stock in the body is ignored
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	product, err := h.products.Update(r.Context(), t, id, req.input())
	if err != nil {
		respondError(w, h.logger, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), t, id); err != nil {
		respondError(w, h.logger, err, "failed to delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdjustStock records a manual stock change and returns its log entry
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req StockAdjustmentRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	entry, err := h.inventory.AdjustStock(r.Context(), t, id, service.StockAdjustment{
		Type:     domain.StockLogType(req.Type),
		Quantity: req.Quantity,
		Reason:   req.Reason,
	})
	if err != nil {
		respondError(w, h.logger, err, "failed to adjust stock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, entry)
}

// PublicCatalog lists active products of a business without authentication
func (h *ProductHandler) PublicCatalog(w http.ResponseWriter, r *http.Request) {
	filter := productFilter(r)
	products, total, err := h.products.PublicCatalog(r.Context(), chi.URLParam(r, "businessID"), filter)
	if err != nil {
		respondError(w, h.logger, err, "failed to list catalog")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newListResponse(products, total, filter.Page, filter.PageSize))
}

func (h *ProductHandler) PublicCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context(), chi.URLParam(r, "businessID"), true)
	if err != nil {
		respondError(w, h.logger, err, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}
