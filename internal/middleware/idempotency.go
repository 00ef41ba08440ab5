package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"inventory-hub/internal/cache"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader      = "Idempotency-Key"
	IdempotentReplayHeader = "Idempotent-Replayed"

	maxIdempotencyKeyLen = 255
)

// Idempotency replays the stored response when a request repeats an
// Idempotency-Key already seen for the same business and route. Responses
// below 500 are stored; server errors release the key so the client may
// retry. Reusing a key with a different body is rejected with 422.
// Requests without the header pass through untouched.
func Idempotency(store *cache.IdempotencyStore, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				RespondWithError(w, http.StatusBadRequest, "idempotency key is too long")
				return
			}

			tenant, ok := TenantFromContext(r.Context())
			if !ok {
				RespondWithError(w, http.StatusUnauthorized, "missing tenant")
				return
			}
			scope := tenant.BusinessID + ":" + r.Method + ":" + r.URL.Path

			fingerprint, err := fingerprintBody(r)
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, "invalid request body")
				return
			}

			stored, err := store.Reserve(r.Context(), scope, key)
			switch {
			case errors.Is(err, cache.ErrRequestInProgress):
				RespondWithError(w, http.StatusConflict, "a request with this idempotency key is still being processed")
				return
			case err != nil:
				logger.Error("Idempotency store unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			case stored != nil && stored.Fingerprint != "" && stored.Fingerprint != fingerprint:
				RespondWithError(w, http.StatusUnprocessableEntity, "idempotency key was already used with a different request body")
				return
			case stored != nil:
				replay(w, stored)
				return
			}

			var body bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)

			next.ServeHTTP(ww, r)

			// Store with a fresh context: the request may already be cancelled
			ctx := context.WithoutCancel(r.Context())
			if ww.Status() >= http.StatusInternalServerError || !json.Valid(body.Bytes()) {
				if err := store.Release(ctx, scope, key); err != nil {
					logger.Warn("Failed to release idempotency key", zap.Error(err))
				}
				return
			}

			resp := cache.StoredResponse{
				Status:      ww.Status(),
				ContentType: ww.Header().Get("Content-Type"),
				Body:        json.RawMessage(body.Bytes()),
				Fingerprint: fingerprint,
			}
			if err := store.Complete(ctx, scope, key, resp); err != nil {
				logger.Warn("Failed to store idempotent response",
					zap.String("business_id", tenant.BusinessID),
					zap.Error(err),
				)
			}
		})
	}
}

// fingerprintBody hashes the request body and puts it back for the handler
func fingerprintBody(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))

	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func replay(w http.ResponseWriter, stored *cache.StoredResponse) {
	contentType := stored.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set(IdempotentReplayHeader, "true")
	w.Header().Set("Content-Length", strconv.Itoa(len(stored.Body)))
	w.WriteHeader(stored.Status)
	w.Write(stored.Body)
}
