package transport

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/repository"
	"inventory-hub/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProductService struct {
	service.ProductService
	created      []service.ProductInput
	lastFilter   repository.ProductFilter
	lastBusiness string
	createErr    error
	catalog      []*domain.Product
	deletedIDs   []uuid.UUID
	activeOnly   bool
}

func (s *stubProductService) Create(ctx context.Context, tenant domain.Tenant, input service.ProductInput) (*domain.Product, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, input)
	return &domain.Product{ID: uuid.New(), BusinessID: tenant.BusinessID, Name: input.Name, Stock: input.Stock}, nil
}

func (s *stubProductService) BulkCreate(ctx context.Context, tenant domain.Tenant, inputs []service.ProductInput) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(inputs))
	for _, input := range inputs {
		p, err := s.Create(ctx, tenant, input)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProductService) List(ctx context.Context, tenant domain.Tenant, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	s.lastFilter = filter
	return nil, 0, nil
}

func (s *stubProductService) Delete(ctx context.Context, tenant domain.Tenant, id uuid.UUID) error {
	s.deletedIDs = append(s.deletedIDs, id)
	return nil
}

func (s *stubProductService) PublicCatalog(ctx context.Context, businessID string, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	s.lastBusiness = businessID
	s.lastFilter = filter
	return s.catalog, len(s.catalog), nil
}

func (s *stubProductService) Categories(ctx context.Context, businessID string, activeOnly bool) ([]*domain.Category, error) {
	s.lastBusiness, s.activeOnly = businessID, activeOnly
	return []*domain.Category{{Name: "tools", ProductCount: 1, TotalStock: 4}}, nil
}

type stubInventoryService struct {
	err  error
	last service.StockAdjustment
}

func (s *stubInventoryService) AdjustStock(ctx context.Context, tenant domain.Tenant, productID uuid.UUID, adj service.StockAdjustment) (*domain.StockLog, error) {
	s.last = adj
	if s.err != nil {
		return nil, s.err
	}
	return &domain.StockLog{ID: uuid.New(), ProductID: productID, Type: adj.Type, Quantity: adj.Quantity, Reason: adj.Reason}, nil
}

func newProductRouter(products *stubProductService, inventory *stubInventoryService, tenant domain.Tenant) http.Handler {
	h := NewProductHandler(products, inventory, zap.NewNop())
	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(asTenant(tenant))
		h.RegisterRoutes(r, passthrough)
	})
	return r
}

func TestCreateProduct(t *testing.T) {
	products := &stubProductService{}
	router := newProductRouter(products, &stubInventoryService{}, ownerTenant)

	rec := doJSON(t, router, http.MethodPost, "/products", map[string]interface{}{
		"name":  "Widget",
		"price": "9.99",
		"stock": 12,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, products.created, 1)
	assert.Equal(t, "9.99", products.created[0].Price.StringFixed(2))
	assert.Nil(t, products.created[0].IsActive)

	var product domain.Product
	decodeBody(t, rec, &product)
	assert.Equal(t, ownerTenant.BusinessID, product.BusinessID)
	assert.Equal(t, 12, product.Stock)
}

func TestCreateProductRejectsInvalidPayload(t *testing.T) {
	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{name: "missing name", body: map[string]interface{}{"price": "1"}, field: "name"},
		{name: "negative stock", body: map[string]interface{}{"name": "W", "stock": -1}, field: "stock"},
		{name: "bad image url", body: map[string]interface{}{"name": "W", "image_url": "not a url"}, field: "image_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := &stubProductService{}
			router := newProductRouter(products, &stubInventoryService{}, ownerTenant)

			rec := doJSON(t, router, http.MethodPost, "/products", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"field":"`+tt.field+`"`)
			assert.Empty(t, products.created)
		})
	}
}

func TestCreateProductServiceValidation(t *testing.T) {
	products := &stubProductService{createErr: service.ErrInvalidProduct}
	router := newProductRouter(products, &stubInventoryService{}, ownerTenant)

	rec := doJSON(t, router, http.MethodPost, "/products", map[string]interface{}{"name": "W", "price": "-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkCreateProducts(t *testing.T) {
	products := &stubProductService{}
	router := newProductRouter(products, &stubInventoryService{}, ownerTenant)

	rec := doJSON(t, router, http.MethodPost, "/products/bulk", map[string]interface{}{
		"products": []map[string]interface{}{{"name": "A"}, {"name": "B", "stock": 3}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Created int `json:"created"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 2, body.Created)

	rec = doJSON(t, router, http.MethodPost, "/products/bulk", map[string]interface{}{"products": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProductsReadsQuery(t *testing.T) {
	products := &stubProductService{}
	router := newProductRouter(products, &stubInventoryService{}, ownerTenant)

	rec := doJSON(t, router, http.MethodGet, "/products?search=+wid+&category=tools&active=true&sort_by=price&sort_order=asc&page=3&page_size=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, repository.ProductFilter{
		Search:     "wid",
		Category:   "tools",
		ActiveOnly: true,
		Page:       3,
		PageSize:   10,
		SortBy:     "price",
		SortOrder:  repository.SortOrderAsc,
	}, products.lastFilter)
	assert.JSONEq(t, `{"data":[],"total":0,"page":3,"page_size":10}`, rec.Body.String())
}

// Feature: inventory-hub, Property: page size is always clamped to [1, 200]
func TestProperty_PageSizeIsClamped(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("list responses never exceed the maximum page size", prop.ForAll(
		func(pageSize int) bool {
			products := &stubProductService{}
			router := newProductRouter(products, &stubInventoryService{}, ownerTenant)

			rec := doJSON(t, router, http.MethodGet, "/products?page_size="+strconv.Itoa(pageSize), nil)
			if rec.Code != http.StatusOK {
				return false
			}
			size := products.lastFilter.PageSize
			return size >= 1 && size <= 200
		},
		gen.IntRange(-50, 5000),
	))

	properties.TestingRun(t)
}

func TestAdjustStock(t *testing.T) {
	id := uuid.New()

	t.Run("records adjustment", func(t *testing.T) {
		inventory := &stubInventoryService{}
		router := newProductRouter(&stubProductService{}, inventory, ownerTenant)

		rec := doJSON(t, router, http.MethodPost, "/products/"+id.String()+"/stock", map[string]interface{}{
			"type": "in", "quantity": 5, "reason": "Restock",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, domain.StockLogIn, inventory.last.Type)
		assert.Equal(t, 5, inventory.last.Quantity)
	})

	t.Run("unknown type", func(t *testing.T) {
		router := newProductRouter(&stubProductService{}, &stubInventoryService{}, ownerTenant)
		rec := doJSON(t, router, http.MethodPost, "/products/"+id.String()+"/stock", map[string]interface{}{"type": "teleport", "quantity": 5})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("out is not a manual movement", func(t *testing.T) {
		inventory := &stubInventoryService{err: service.ErrUnsupportedAdjustment}
		router := newProductRouter(&stubProductService{}, inventory, ownerTenant)
		rec := doJSON(t, router, http.MethodPost, "/products/"+id.String()+"/stock", map[string]interface{}{"type": "out", "quantity": 1})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		inventory := &stubInventoryService{err: repository.ErrProductNotFound}
		router := newProductRouter(&stubProductService{}, inventory, ownerTenant)
		rec := doJSON(t, router, http.MethodPost, "/products/"+id.String()+"/stock", map[string]interface{}{"type": "adjustment", "quantity": 0})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPublicCatalogNeedsNoTenant(t *testing.T) {
	products := &stubProductService{catalog: []*domain.Product{{ID: uuid.New(), Name: "Widget", IsActive: true}}}
	router := newProductRouter(products, &stubInventoryService{}, ownerTenant)

	rec := doJSON(t, router, http.MethodGet, "/api/catalog/biz-9/products?search=wid", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "biz-9", products.lastBusiness)
	assert.Equal(t, "wid", products.lastFilter.Search)

	var list ListResponse[domain.Product]
	decodeBody(t, rec, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Widget", list.Data[0].Name)
}

func TestDeleteProduct(t *testing.T) {
	products := &stubProductService{}
	router := newProductRouter(products, &stubInventoryService{}, ownerTenant)
	id := uuid.New()

	rec := doJSON(t, router, http.MethodDelete, "/products/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []uuid.UUID{id}, products.deletedIDs)
}

func TestListCategories(t *testing.T) {
	products := &stubProductService{}
	router := newProductRouter(products, &stubInventoryService{}, ownerTenant)

	rec := doJSON(t, router, http.MethodGet, "/products/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"tools","product_count":1,"total_stock":4}]`, rec.Body.String())
	assert.Equal(t, ownerTenant.BusinessID, products.lastBusiness)
	assert.False(t, products.activeOnly)

	rec = doJSON(t, router, http.MethodGet, "/api/catalog/biz-9/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "biz-9", products.lastBusiness)
	assert.True(t, products.activeOnly)
}
