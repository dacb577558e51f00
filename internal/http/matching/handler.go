package matching

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/http/render"
	"github.com/MrJamesThe3rd/stageledger/internal/matching"
)

type Handler struct {
	svc *matching.Service
	log *zap.Logger
}

func NewHandler(svc *matching.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/describe", h.describe)
	r.Post("/", h.learn)
}

type describeResponse struct {
	Raw         string `json:"raw"`
	Flow        string `json:"flow,omitempty"`
	Description string `json:"description"`
}

func (h *Handler) describe(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	raw := q.Get("raw")
	if raw == "" {
		render.BadRequest(w, h.log, "raw query parameter is required")
		return
	}

	flow := q.Get("flow")

	desc, err := h.svc.Describe(r.Context(), flow, raw)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, describeResponse{Raw: raw, Flow: flow, Description: desc})
}

type learnRequest struct {
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
	Flow        string `json:"flow"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.BadRequest(w, h.log, err.Error())
		return
	}

	if err := h.svc.Learn(r.Context(), matching.Rule{
		Pattern:     req.Pattern,
		Description: req.Description,
		Flow:        req.Flow,
	}); err != nil {
		render.Error(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
