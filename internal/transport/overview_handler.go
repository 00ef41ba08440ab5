package transport

import (
	"net/http"

	"inventory-hub/internal/middleware"
	"inventory-hub/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OverviewHandler serves the dashboard summary
type OverviewHandler struct {
	overview service.OverviewService
	logger   *zap.Logger
}

func NewOverviewHandler(overview service.OverviewService, logger *zap.Logger) *OverviewHandler {
	return &OverviewHandler{overview: overview, logger: logger}
}

func (h *OverviewHandler) RegisterRoutes(r chi.Router) {
	r.Get("/overview", h.GetOverview)
}

func (h *OverviewHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	t, ok := tenant(w, r)
	if !ok {
		return
	}

	overview, err := h.overview.Get(r.Context(), t)
	if err != nil {
		respondError(w, h.logger, err, "failed to load overview")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, overview)
}
