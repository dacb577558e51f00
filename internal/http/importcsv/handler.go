package importcsv

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	ledgerhttp "github.com/MrJamesThe3rd/stageledger/internal/http/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/http/render"
	"github.com/MrJamesThe3rd/stageledger/internal/importer"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/transaction"
)

const maxUploadSize = 10 << 20

type Handler struct {
	svc *importer.Service
	log *zap.Logger
}

func NewHandler(svc *importer.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type rowResponse struct {
	Line          int                       `json:"line"`
	TransactionID *uuid.UUID                `json:"transaction_id,omitempty"`
	Entry         *ledgerhttp.EntryResponse `json:"entry,omitempty"`
	Error         *apperr.Error             `json:"error,omitempty"`
}

type importResponse struct {
	Format   string        `json:"format"`
	Charset  string        `json:"charset"`
	Imported int           `json:"imported"`
	Failed   int           `json:"failed"`
	Rows     []rowResponse `json:"rows"`
}

type previewRowResponse struct {
	Line        int              `json:"line"`
	Type        transaction.Type `json:"type,omitempty"`
	Status      ledger.Status    `json:"status,omitempty"`
	Description string           `json:"description,omitempty"`
	Amount      decimal.Decimal  `json:"amount"`
	DueDate     *render.Date     `json:"due_date,omitempty"`
	PaymentDate *render.Date     `json:"payment_date,omitempty"`
	Error       *apperr.Error    `json:"error,omitempty"`
}

type previewResponse struct {
	Format  string               `json:"format"`
	Charset string               `json:"charset"`
	Rows    []previewRowResponse `json:"rows"`
}

// importCSV reads the "file" form field. With dry_run=true the rows are parsed
// and returned without being stored.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		render.BadRequest(w, h.log, "failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		render.BadRequest(w, h.log, "file field is required")
		return
	}
	defer file.Close()

	dryRun := false
	if s := r.URL.Query().Get("dry_run"); s != "" {
		dryRun, err = strconv.ParseBool(s)
		if err != nil {
			render.BadRequest(w, h.log, "dry_run must be a boolean")
			return
		}
	}

	if dryRun {
		h.preview(r.Context(), w, file)
		return
	}

	report, err := h.svc.Import(r.Context(), file)
	if err != nil {
		render.BadRequest(w, h.log, err.Error())
		return
	}

	resp := importResponse{
		Format:   report.Format,
		Charset:  report.Charset,
		Imported: report.Imported(),
		Failed:   report.Failed(),
		Rows:     make([]rowResponse, len(report.Rows)),
	}

	for i, row := range report.Rows {
		resp.Rows[i] = rowResponse{
			Line:  row.Line,
			Entry: ledgerhttp.ToResponse(row.Entry),
			Error: render.Describe(h.log, row.Err),
		}

		if row.Transaction != nil {
			resp.Rows[i].TransactionID = &row.Transaction.ID
		}
	}

	render.JSON(w, h.log, http.StatusOK, resp)
}

func (h *Handler) preview(ctx context.Context, w http.ResponseWriter, file io.Reader) {
	parsed, err := h.svc.Preview(ctx, file)
	if err != nil {
		render.BadRequest(w, h.log, err.Error())
		return
	}

	resp := previewResponse{
		Format:  parsed.Format,
		Charset: parsed.Charset,
		Rows:    make([]previewRowResponse, len(parsed.Rows)),
	}

	for i, row := range parsed.Rows {
		p := row.Params
		out := previewRowResponse{
			Line:        row.Line,
			Type:        p.Type,
			Status:      p.Status,
			Description: p.Description,
			Amount:      p.Amount,
			PaymentDate: render.DatePtr(p.PaymentDate),
			Error:       render.Describe(h.log, row.Err),
		}

		if !p.DueDate.IsZero() {
			dueDate := render.NewDate(p.DueDate)
			out.DueDate = &dueDate
		}

		resp.Rows[i] = out
	}

	render.JSON(w, h.log, http.StatusOK, resp)
}
