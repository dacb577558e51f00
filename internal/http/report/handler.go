package report

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	ledgerhttp "github.com/MrJamesThe3rd/stageledger/internal/http/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/http/render"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/project"
	"github.com/MrJamesThe3rd/stageledger/internal/report"
	"github.com/MrJamesThe3rd/stageledger/internal/status"
)

type ProjectLister interface {
	List(ctx context.Context) ([]*project.Project, error)
}

type EntryLister interface {
	List(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Entry, error)
}

type Handler struct {
	projects ProjectLister
	entries  EntryLister
	catalogs project.CatalogProvider
	log      *zap.Logger
	now      func() time.Time
}

func NewHandler(projects ProjectLister, entries EntryLister, catalogs project.CatalogProvider, log *zap.Logger) *Handler {
	return &Handler{
		projects: projects,
		entries:  entries,
		catalogs: catalogs,
		log:      log,
		now:      time.Now,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/overdue-stages", h.overdueStages)
	r.Get("/buckets/{name}", h.bucket)
}

var stageBuckets = map[string]func(report.StageRef) bool{
	"awaiting-invoice":            report.AwaitingInvoice,
	"awaiting-payment":            report.AwaitingPayment,
	"awaiting-consultant-payment": report.AwaitingConsultantPayment,
}

var entryBuckets = map[string]func(now time.Time) func(*ledger.Entry) bool{
	"open-receivables": func(time.Time) func(*ledger.Entry) bool { return report.OpenReceivable },
	"open-payables":    func(time.Time) func(*ledger.Entry) bool { return report.OpenPayable },
	"overdue-entries":  report.OverdueEntry,
}

type stageRefResponse struct {
	ProjectID   uuid.UUID    `json:"project_id"`
	ProjectName string       `json:"project_name"`
	StageID     uuid.UUID    `json:"stage_id"`
	StageName   string       `json:"stage_name"`
	Status      string       `json:"status"`
	StatusLabel status.Label `json:"status_label"`
	EndDate     render.Date  `json:"end_date"`
}

func toStageRefList(c *status.Catalog, refs []report.StageRef) []stageRefResponse {
	resp := make([]stageRefResponse, len(refs))
	for i, ref := range refs {
		resp[i] = stageRefResponse{
			ProjectID:   ref.ProjectID,
			ProjectName: ref.ProjectName,
			StageID:     ref.Stage.ID,
			StageName:   ref.Stage.Name,
			Status:      ref.Stage.Status,
			StatusLabel: c.Display(ref.Stage.Status),
			EndDate:     render.NewDate(ref.Stage.EndDate),
		}
	}

	return resp
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries.List(r.Context(), ledger.ListFilter{})
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	projects, err := h.projects.List(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, report.Summarize(entries, projects))
}

func (h *Handler) overdueStages(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.catalogs.Catalog(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	projects, err := h.projects.List(r.Context())
	if err != nil {
		render.Error(w, h.log, err)
		return
	}

	render.JSON(w, h.log, http.StatusOK, toStageRefList(catalog, report.OverdueStages(catalog, projects, h.now())))
}

func (h *Handler) bucket(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if pred, ok := stageBuckets[name]; ok {
		catalog, err := h.catalogs.Catalog(r.Context())
		if err != nil {
			render.Error(w, h.log, err)
			return
		}

		projects, err := h.projects.List(r.Context())
		if err != nil {
			render.Error(w, h.log, err)
			return
		}

		render.JSON(w, h.log, http.StatusOK, toStageRefList(catalog, report.Bucket(report.Stages(projects), pred)))

		return
	}

	if pred, ok := entryBuckets[name]; ok {
		entries, err := h.entries.List(r.Context(), ledger.ListFilter{})
		if err != nil {
			render.Error(w, h.log, err)
			return
		}

		render.JSON(w, h.log, http.StatusOK, ledgerhttp.ToResponseList(report.Bucket(entries, pred(h.now()))))

		return
	}

	render.Error(w, h.log, &apperr.Error{
		Kind:    apperr.KindNotFound,
		Message: "unknown bucket " + name,
		Entity:  "bucket",
		ID:      name,
	})
}
