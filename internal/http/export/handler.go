package export

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/export"
	ledgerhttp "github.com/MrJamesThe3rd/stageledger/internal/http/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/http/render"
)

type Handler struct {
	svc *export.Service
	log *zap.Logger
}

func NewHandler(svc *export.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/ledger.csv", h.csv)
	r.Get("/digest", h.digest)
}

func (h *Handler) csv(w http.ResponseWriter, r *http.Request) {
	filter, err := ledgerhttp.ParseListFilter(r.URL.Query())
	if err != nil {
		render.BadRequest(w, h.log, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"ledger_%s.csv\"", time.Now().Format("20060102")))

	n, err := h.svc.WriteCSV(r.Context(), filter, w)
	if err != nil {
		// Headers may be out already; the body is truncated.
		h.log.Error("failed to export ledger", zap.Error(err))
		return
	}

	h.log.Debug("ledger exported", zap.Int("entries", n))
}

type digestResponse struct {
	Digest string `json:"digest"`
}

func (h *Handler) digest(w http.ResponseWriter, r *http.Request) {
	filter, err := ledgerhttp.ParseListFilter(r.URL.Query())
	if err != nil {
		render.BadRequest(w, h.log, err.Error())
		return
	}

	digest, err := h.svc.Digest(r.Context(), filter)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, digestResponse{Digest: digest})
}
