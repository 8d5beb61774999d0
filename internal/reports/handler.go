package reports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inventia-erp/inventia/internal/platform/httpx"
)

// Handler manages report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.dashboard)
	r.Get("/sales-by-channel", h.salesByChannel)
	r.Get("/low-stock", h.lowStock)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard)
}

func (h *Handler) salesByChannel(w http.ResponseWriter, r *http.Request) {
	channels, err := h.service.SalesByChannel(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, channels)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold, _ := strconv.ParseInt(r.URL.Query().Get("threshold"), 10, 64)
	items, err := h.service.LowStock(r.Context(), threshold)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}
