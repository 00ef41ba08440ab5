package transport

import (
	"errors"
	"net/http"
	"strconv"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/middleware"
	"inventory-hub/internal/ordering"
	"inventory-hub/internal/repository"
	"inventory-hub/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListResponse wraps a page of results
type ListResponse[T any] struct {
	Data     []T `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func newListResponse[T any](data []T, total, page, pageSize int) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{Data: data, Total: total, Page: page, PageSize: pageSize}
}

// tenant returns the authenticated tenant or writes a 401
func tenant(w http.ResponseWriter, r *http.Request) (domain.Tenant, bool) {
	t, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "missing tenant")
		return domain.Tenant{}, false
	}
	return t, true
}

// pathID parses the {id} URL parameter or writes a 400
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads a positive integer query parameter, 0 when absent or invalid
func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func pagination(r *http.Request) (page, pageSize int) {
	return repository.NormalizePage(queryInt(r, "page"), queryInt(r, "page_size"))
}

// statusFor maps service and repository errors onto HTTP status codes
func statusFor(err error) int {
	var (
		verr     *ordering.ValidationError
		stockErr *ordering.InsufficientStockError
		nfErr    *ordering.NotFoundError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &stockErr):
		return http.StatusConflict
	case errors.As(err, &nfErr):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingTenant):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrEmptyBatch),
		errors.Is(err, service.ErrUnsupportedAdjustment),
		errors.Is(err, service.ErrInvalidAdjustmentValue),
		errors.Is(err, service.ErrCustomerNameRequired),
		errors.Is(err, service.ErrUnknownRange):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNegativeStock),
		errors.Is(err, service.ErrInvalidStatusTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes the error envelope for err. Server errors are logged
// and their message replaced with fallback.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, status, fallback)
		return
	}

	var (
		verr     *ordering.ValidationError
		stockErr *ordering.InsufficientStockError
	)
	switch {
	case errors.As(err, &verr):
		details := map[string]interface{}{}
		if len(verr.Fields) > 0 {
			details["fields"] = verr.Fields
		}
		if len(verr.Rows) > 0 {
			details["rows"] = verr.Rows
		}
		middleware.RespondWithErrorDetails(w, status, verr.Message, details)
	case errors.As(err, &stockErr):
		middleware.RespondWithErrorDetails(w, status, stockErr.Error(), map[string]interface{}{
			"product_id": stockErr.ProductID,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		})
	default:
		middleware.RespondWithError(w, status, err.Error())
	}
}

// decode decodes and validates the body, writing a 400 on failure
func decode(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return false
	}
	return true
}
