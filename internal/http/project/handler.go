package project

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	ledgerhttp "github.com/MrJamesThe3rd/stageledger/internal/http/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/http/render"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/project"
)

// StageDeriver re-runs ledger derivation for a stage on demand.
type StageDeriver interface {
	DeriveFromStage(ctx context.Context, stage *project.Stage, p *project.Project) (*ledger.StageEntries, error)
}

type Handler struct {
	svc      *project.Service
	catalogs project.CatalogProvider
	deriver  StageDeriver
	log      *zap.Logger
	now      func() time.Time
}

func NewHandler(svc *project.Service, catalogs project.CatalogProvider, deriver StageDeriver, log *zap.Logger) *Handler {
	return &Handler{
		svc:      svc,
		catalogs: catalogs,
		deriver:  deriver,
		log:      log,
		now:      time.Now,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Get("/{id}/progress", h.progress)

	r.Route("/{id}/stages/{stageID}", func(r chi.Router) {
		r.Patch("/", h.setFlags)
		r.Patch("/status", h.setStatus)
		r.Post("/derive", h.derive)
		r.Get("/history", h.history)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.catalogs.Catalog(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	projects, err := h.svc.List(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	now := h.now()
	resp := make([]projectResponse, len(projects))

	for i, p := range projects {
		resp[i] = toResponse(catalog, p, now)
	}

	render.JSON(w, h.log, http.StatusOK, resp)
}

type stageRequest struct {
	Name         string          `json:"name"`
	Status       string          `json:"status"`
	Value        decimal.Decimal `json:"value"`
	StartDate    render.Date     `json:"start_date"`
	EndDate      render.Date     `json:"end_date"`
	ConsultantID *uuid.UUID      `json:"consultant_id"`
}

type createRequest struct {
	Name                   string           `json:"name"`
	Status                 string           `json:"status"`
	MainConsultantID       uuid.UUID        `json:"main_consultant_id"`
	SupportConsultantID    *uuid.UUID       `json:"support_consultant_id"`
	ClientID               *uuid.UUID       `json:"client_id"`
	TotalValue             decimal.Decimal  `json:"total_value"`
	TaxPercent             decimal.Decimal  `json:"tax_percent"`
	ThirdPartyExpenses     decimal.Decimal  `json:"third_party_expenses"`
	MainConsultantValue    decimal.Decimal  `json:"main_consultant_value"`
	SupportConsultantValue *decimal.Decimal `json:"support_consultant_value"`
	Stages                 []stageRequest   `json:"stages"`
}

func (req createRequest) params() project.CreateParams {
	params := project.CreateParams{
		Name:                   req.Name,
		Status:                 req.Status,
		MainConsultantID:       req.MainConsultantID,
		SupportConsultantID:    req.SupportConsultantID,
		ClientID:               req.ClientID,
		TotalValue:             req.TotalValue,
		TaxPercent:             req.TaxPercent,
		ThirdPartyExpenses:     req.ThirdPartyExpenses,
		MainConsultantValue:    req.MainConsultantValue,
		SupportConsultantValue: req.SupportConsultantValue,
		Stages:                 make([]project.StageParams, len(req.Stages)),
	}

	for i, s := range req.Stages {
		params.Stages[i] = project.StageParams{
			Name:         s.Name,
			Status:       s.Status,
			Value:        s.Value,
			StartDate:    s.StartDate.Time,
			EndDate:      s.EndDate.Time,
			ConsultantID: s.ConsultantID,
		}
	}

	return params
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.BadRequest(w, h.log, err.Error())
		return
	}

	p, err := h.svc.Create(r.Context(), req.params())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	catalog, err := h.catalogs.Catalog(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusCreated, toResponse(catalog, p, h.now()))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.project(w, r)
	if !ok {
		return
	}

	catalog, err := h.catalogs.Catalog(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, toResponse(catalog, p, h.now()))
}

func (h *Handler) progress(w http.ResponseWriter, r *http.Request) {
	p, ok := h.project(w, r)
	if !ok {
		return
	}

	prog, err := h.svc.Progress(r.Context(), p)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, prog)
}

type statusRequest struct {
	Status string `json:"status"`
}

// stageChangeResponse reports a stored stage change. DerivationError is set
// when the change was saved but its ledger entries could not be refreshed.
type stageChangeResponse struct {
	Stage           stageResponse `json:"stage"`
	DerivationError *apperr.Error `json:"derivation_error,omitempty"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	_, stage, ok := h.stage(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.BadRequest(w, h.log, err.Error())
		return
	}

	updated, err := h.svc.SetStageStatus(r.Context(), stage.ID, req.Status)
	h.respondStageChange(w, r, updated, err)
}

type flagsRequest struct {
	ClientApproved  *bool `json:"client_approved"`
	InvoiceIssued   *bool `json:"invoice_issued"`
	PaymentReceived *bool `json:"payment_received"`
	ConsultantPaid  *bool `json:"consultant_paid"`
}

func (h *Handler) setFlags(w http.ResponseWriter, r *http.Request) {
	_, stage, ok := h.stage(w, r)
	if !ok {
		return
	}

	var req flagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.BadRequest(w, h.log, err.Error())
		return
	}

	updated, err := h.svc.SetStageFlags(r.Context(), stage.ID, project.FlagParams{
		ClientApproved:  req.ClientApproved,
		InvoiceIssued:   req.InvoiceIssued,
		PaymentReceived: req.PaymentReceived,
		ConsultantPaid:  req.ConsultantPaid,
	})
	h.respondStageChange(w, r, updated, err)
}

func (h *Handler) respondStageChange(w http.ResponseWriter, r *http.Request, stage *project.Stage, err error) {
	if stage == nil {
		render.Error(w, h.log, err)
		return
	}

	catalog, cerr := h.catalogs.Catalog(r.Context())
	if cerr != nil {
		render.Error(w, h.log, cerr)
		return
	}

	resp := stageChangeResponse{Stage: toStageResponse(catalog, stage, h.now())}

	if err != nil {
		h.log.Warn("stage change stored without ledger refresh",
			zap.Stringer("stage_id", stage.ID),
			zap.Error(err),
		)

		resp.DerivationError = render.Describe(h.log, err)
	}

	render.JSON(w, h.log, http.StatusOK, resp)
}

type deriveResponse struct {
	Receivable *ledgerhttp.EntryResponse `json:"receivable"`
	Payable    *ledgerhttp.EntryResponse `json:"payable"`
}

func (h *Handler) derive(w http.ResponseWriter, r *http.Request) {
	p, stage, ok := h.stage(w, r)
	if !ok {
		return
	}

	entries, err := h.deriver.DeriveFromStage(r.Context(), stage, p)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, deriveResponse{
		Receivable: ledgerhttp.ToResponse(entries.Receivable),
		Payable:    ledgerhttp.ToResponse(entries.Payable),
	})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	_, stage, ok := h.stage(w, r)
	if !ok {
		return
	}

	changes, err := h.svc.History(r.Context(), stage.ID)
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	catalog, err := h.catalogs.Catalog(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, toHistoryResponse(catalog, changes))
}

func (h *Handler) project(w http.ResponseWriter, r *http.Request) (*project.Project, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.BadRequest(w, h.log, "invalid id")
		return nil, false
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		render.Error(w, h.log, err)
		return nil, false
	}

	return p, true
}

// stage resolves the {stageID} route param within the {id} project.
func (h *Handler) stage(w http.ResponseWriter, r *http.Request) (*project.Project, *project.Stage, bool) {
	stageID, err := uuid.Parse(chi.URLParam(r, "stageID"))
	if err != nil {
		render.BadRequest(w, h.log, "invalid stage id")
		return nil, nil, false
	}

	p, ok := h.project(w, r)
	if !ok {
		return nil, nil, false
	}

	stage := p.Stage(stageID)
	if stage == nil {
		render.Error(w, h.log, apperr.NotFound("stage", stageID))
		return nil, nil, false
	}

	return p, stage, true
}
