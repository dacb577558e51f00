package status

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/http/render"
	"github.com/MrJamesThe3rd/stageledger/internal/status"
)

type Handler struct {
	svc *status.Service
	log *zap.Logger
}

func NewHandler(svc *status.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
}

type definitionResponse struct {
	Name               string `json:"name"`
	DisplayName        string `json:"display_name"`
	Color              string `json:"color"`
	IsCompletionStatus bool   `json:"is_completion_status"`
	Position           int    `json:"position"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.svc.Catalog(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	defs := catalog.Definitions()
	resp := make([]definitionResponse, len(defs))

	for i, d := range defs {
		label := catalog.Display(d.Name)
		resp[i] = definitionResponse{
			Name:               d.Name,
			DisplayName:        label.Label,
			Color:              label.Color,
			IsCompletionStatus: d.IsCompletionStatus,
			Position:           d.Position,
		}
	}

	render.JSON(w, h.log, http.StatusOK, resp)
}
