package listings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inventia-erp/inventia/internal/platform/httpx"
)

// Handler manages listing endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers listing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/{key}/publish", h.publish)
	r.Post("/{key}/sync", h.sync)
	r.Delete("/{key}/link", h.unlink)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	listings, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listings)
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.Publish(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.Sync(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

func (h *Handler) unlink(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Unlink(r.Context(), chi.URLParam(r, "key")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
