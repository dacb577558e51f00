package transaction

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	ledgerhttp "github.com/MrJamesThe3rd/stageledger/internal/http/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/http/render"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/recurrence"
	"github.com/MrJamesThe3rd/stageledger/internal/transaction"
)

type Handler struct {
	svc *transaction.Service
	log *zap.Logger
}

func NewHandler(svc *transaction.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Post("/preview", h.preview)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
}

type recurrenceRequest struct {
	Mode        recurrence.Mode     `json:"mode"`
	Interval    recurrence.Interval `json:"interval"`
	Occurrences int                 `json:"occurrences"`
}

type createTransactionRequest struct {
	Type         transaction.Type   `json:"type"`
	Status       ledger.Status      `json:"status"`
	Description  string             `json:"description"`
	Amount       decimal.Decimal    `json:"amount"`
	DueDate      render.Date        `json:"due_date"`
	PaymentDate  *render.Date       `json:"payment_date"`
	ClientID     *uuid.UUID         `json:"client_id"`
	ConsultantID *uuid.UUID         `json:"consultant_id"`
	ProjectID    *uuid.UUID         `json:"project_id"`
	Recurrence   *recurrenceRequest `json:"recurrence"`
}

func (req createTransactionRequest) params() transaction.CreateParams {
	params := transaction.CreateParams{
		Type:         req.Type,
		Status:       req.Status,
		Description:  req.Description,
		Amount:       req.Amount,
		DueDate:      req.DueDate.Time,
		ClientID:     req.ClientID,
		ConsultantID: req.ConsultantID,
		ProjectID:    req.ProjectID,
	}

	if req.PaymentDate != nil {
		paymentDate := req.PaymentDate.Time
		params.PaymentDate = &paymentDate
	}

	if req.Recurrence != nil {
		params.Recurrence = recurrence.Spec{
			Mode:        req.Recurrence.Mode,
			Interval:    req.Recurrence.Interval,
			Occurrences: req.Recurrence.Occurrences,
		}
	}

	return params
}

// create stores every instance of the requested series. The reply lists one
// result per instance; instances that failed carry their error.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.BadRequest(w, h.log, err.Error())
		return
	}

	results, err := h.svc.Create(r.Context(), req.params())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusCreated, toResultList(h.log, results))
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.BadRequest(w, h.log, err.Error())
		return
	}

	instances, err := h.svc.Preview(req.params())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, toPreviewList(instances))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := transaction.ListFilter{}
	q := r.URL.Query()

	if s := q.Get("type"); s != "" {
		t := transaction.Type(s)
		if !t.IsValid() {
			render.BadRequest(w, h.log, "type must be income or expense")
			return
		}

		filter.Type = &t
	}

	if s := q.Get("start_date"); s != "" {
		t, err := render.ParseDate(s)
		if err != nil {
			render.BadRequest(w, h.log, err.Error())
			return
		}

		filter.StartDate = &t
	}

	if s := q.Get("end_date"); s != "" {
		t, err := render.ParseDate(s)
		if err != nil {
			render.BadRequest(w, h.log, err.Error())
			return
		}

		filter.EndDate = &t
	}

	if s := q.Get("series_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			render.BadRequest(w, h.log, "invalid series_id")
			return
		}

		filter.SeriesID = &id
	}

	txs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, toResponseList(txs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.BadRequest(w, h.log, "invalid id")
		return
	}

	tx, err := h.svc.Get(r.Context(), id)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, toResponse(tx))
}

type updateTransactionRequest struct {
	Description  *string          `json:"description,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	DueDate      *render.Date     `json:"due_date,omitempty"`
	ClientID     *uuid.UUID       `json:"client_id,omitempty"`
	ConsultantID *uuid.UUID       `json:"consultant_id,omitempty"`
}

type updateTransactionResponse struct {
	Transaction *transactionResponse      `json:"transaction"`
	Entry       *ledgerhttp.EntryResponse `json:"entry,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.BadRequest(w, h.log, "invalid id")
		return
	}

	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.BadRequest(w, h.log, err.Error())
		return
	}

	params := transaction.UpdateParams{
		Description:  req.Description,
		Amount:       req.Amount,
		ClientID:     req.ClientID,
		ConsultantID: req.ConsultantID,
	}

	if req.DueDate != nil {
		dueDate := req.DueDate.Time
		params.DueDate = &dueDate
	}

	tx, entry, err := h.svc.Update(r.Context(), id, params)
	if err != nil && tx == nil {
		render.Error(w, h.log, err)
		return
	}

	if err != nil {
		h.log.Warn("transaction updated without ledger refresh",
			zap.Stringer("transaction_id", id),
			zap.Error(err),
		)
	}

	render.JSON(w, h.log, http.StatusOK, updateTransactionResponse{
		Transaction: toResponse(tx),
		Entry:       ledgerhttp.ToResponse(entry),
	})
}
