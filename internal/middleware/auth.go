package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"inventory-hub/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const tenantKey contextKey = "tenant"

// AuthMiddleware validates JWT tokens and places the caller's tenant in the
// request context. Tokens must carry business_id, user_id and role claims.
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			if !token.Valid {
				logger.Debug("Invalid token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				logger.Error("Failed to extract claims from token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			tenant, err := tenantFromClaims(claims)
			if err != nil {
				logger.Warn("Token is missing tenant claims", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			logger.Debug("User authenticated",
				zap.String("business_id", tenant.BusinessID),
				zap.String("user_id", tenant.ActorID),
				zap.String("role", tenant.Role),
			)

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
		})
	}
}

func tenantFromClaims(claims jwt.MapClaims) (domain.Tenant, error) {
	businessID, _ := claims["business_id"].(string)
	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)

	tenant := domain.Tenant{BusinessID: businessID, ActorID: userID, Role: role}
	if err := tenant.Validate(); err != nil {
		return domain.Tenant{}, err
	}
	if role == "" {
		return domain.Tenant{}, errors.New("missing role claim")
	}
	return tenant, nil
}

// WithTenant stores the tenant in ctx
func WithTenant(ctx context.Context, tenant domain.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, tenant)
}

// TenantFromContext returns the authenticated tenant of the request
func TenantFromContext(ctx context.Context) (domain.Tenant, bool) {
	tenant, ok := ctx.Value(tenantKey).(domain.Tenant)
	return tenant, ok
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (string, bool) {
	tenant, ok := TenantFromContext(ctx)
	return tenant.Role, ok
}
