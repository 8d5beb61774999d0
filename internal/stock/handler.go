package stock

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inventia-erp/inventia/internal/platform/httpx"
	"github.com/inventia-erp/inventia/internal/shared"
)

// Handler manages stock endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/adjustments", h.adjust)
	r.Get("/movements", h.listMovements)
}

type movementResponse struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Target    string    `json:"target_kind"`
	TargetID  int64     `json:"target_id"`
	QtyDelta  int64     `json:"qty_delta"`
	Balance   int64     `json:"balance"`
	RefModule string    `json:"ref_module,omitempty"`
	RefID     string    `json:"ref_id,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var input AdjustInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	item, err := h.service.Adjust(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"target_kind": string(item.Ref.Kind),
		"target_id":   item.Ref.ID,
		"name":        item.Name,
		"on_hand":     item.OnHand,
	})
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	filter := MovementFilter{}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filter.Target.Kind = TargetKind(kind)
		filter.Target.ID, _ = strconv.ParseInt(r.URL.Query().Get("target_id"), 10, 64)
	}
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidInput)
			return
		}
		filter.From = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			httpx.RespondError(w, shared.ErrInvalidInput)
			return
		}
		filter.To = t
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	movements, err := h.service.Movements(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]movementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, movementResponse{
			ID:        m.ID,
			Kind:      string(m.Kind),
			Target:    string(m.Target.Kind),
			TargetID:  m.Target.ID,
			QtyDelta:  m.QtyDelta,
			Balance:   m.Balance,
			RefModule: m.RefModule,
			RefID:     m.RefID,
			Note:      m.Note,
			CreatedAt: m.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}
