package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/http/render"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
)

type Handler struct {
	svc *ledger.Service
	log *zap.Logger
}

func NewHandler(svc *ledger.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/settle", h.settle)
	r.Post("/{id}/cancel", h.cancel)
	r.Post("/{id}/delete", h.guarded(h.svc.Delete))
	r.Post("/{id}/reactivate", h.guarded(h.svc.Reactivate))
	r.Post("/{id}/undo", h.guarded(h.svc.Undo))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseListFilter(r.URL.Query())
	if err != nil {
		render.BadRequest(w, h.log, err.Error())
		return
	}

	entries, err := h.svc.List(r.Context(), filter)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, ToResponseList(entries))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.entryID(w, r)
	if !ok {
		return
	}

	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, ToResponse(e))
}

type settleRequest struct {
	PaymentDate render.Date `json:"payment_date"`
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.entryID(w, r)
	if !ok {
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.BadRequest(w, h.log, err.Error())
		return
	}

	e, err := h.svc.MarkPaidOrReceived(r.Context(), id, req.PaymentDate.Time)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, ToResponse(e))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.entryID(w, r)
	if !ok {
		return
	}

	e, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, ToResponse(e))
}

type confirmRequest struct {
	Secret string `json:"confirmation_secret"`
}

type guardedAction func(ctx context.Context, id uuid.UUID, secret string) (*ledger.Entry, error)

// guarded adapts a secret-confirmed action. The secret comes from the JSON body
// or, failing that, the X-Confirmation-Secret header.
func (h *Handler) guarded(action guardedAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.entryID(w, r)
		if !ok {
			return
		}

		var req confirmRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				render.BadRequest(w, h.log, err.Error())
				return
			}
		}

		if req.Secret == "" {
			req.Secret = r.Header.Get("X-Confirmation-Secret")
		}

		e, err := action(r.Context(), id, req.Secret)
		if err != nil {
			render.Error(w, h.log, err)
			return
		}

		render.JSON(w, h.log, http.StatusOK, ToResponse(e))
	}
}

// ParseListFilter reads the type, status, project_id and stage_id query
// parameters.
func ParseListFilter(q url.Values) (ledger.ListFilter, error) {
	var filter ledger.ListFilter

	if s := q.Get("type"); s != "" {
		t := ledger.Type(s)
		if !t.IsValid() {
			return filter, errors.New("type must be payable or receivable")
		}

		filter.Type = &t
	}

	if s := q.Get("status"); s != "" {
		st := ledger.Status(s)
		if !st.IsValid() {
			return filter, errors.New("unknown status")
		}

		filter.Status = &st
	}

	for key, dst := range map[string]**uuid.UUID{"project_id": &filter.ProjectID, "stage_id": &filter.StageID} {
		if s := q.Get(key); s != "" {
			id, err := uuid.Parse(s)
			if err != nil {
				return filter, errors.New("invalid " + key)
			}

			*dst = &id
		}
	}

	return filter, nil
}

func (h *Handler) entryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.BadRequest(w, h.log, "invalid id")
		return uuid.Nil, false
	}

	return id, true
}
