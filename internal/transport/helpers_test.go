package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inventory-hub/internal/domain"
	"inventory-hub/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

var (
	ownerTenant = domain.Tenant{BusinessID: "biz-1", ActorID: "user-1", Role: domain.RoleOwner}
	staffTenant = domain.Tenant{BusinessID: "biz-1", ActorID: "user-2", Role: domain.RoleStaff}
)

func passthrough(next http.Handler) http.Handler { return next }

// asTenant injects t the way the auth middleware would
func asTenant(t domain.Tenant) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithTenant(r.Context(), t)))
		})
	}
}

// tenantRouter mounts routes under an authenticated router for t
func tenantRouter(t domain.Tenant, register func(r chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(asTenant(t))
	register(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorDetail {
	t.Helper()
	var resp middleware.ErrorResponse
	decodeBody(t, rec, &resp)
	return resp.Error
}
