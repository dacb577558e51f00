package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	ledgerhttp "github.com/MrJamesThe3rd/stageledger/internal/http/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/http/render"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/recurrence"
	"github.com/MrJamesThe3rd/stageledger/internal/transaction"
)

type transactionResponse struct {
	ID           uuid.UUID        `json:"id"`
	Type         transaction.Type `json:"type"`
	Status       ledger.Status    `json:"status"`
	Description  string           `json:"description"`
	Amount       decimal.Decimal  `json:"amount"`
	DueDate      render.Date      `json:"due_date"`
	PaymentDate  *render.Date     `json:"payment_date,omitempty"`
	ClientID     *uuid.UUID       `json:"client_id,omitempty"`
	ConsultantID *uuid.UUID       `json:"consultant_id,omitempty"`
	ProjectID    *uuid.UUID       `json:"project_id,omitempty"`
	SeriesID     *uuid.UUID       `json:"series_id,omitempty"`
	SeriesTag    string           `json:"series_tag,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func toResponse(tx *transaction.Transaction) *transactionResponse {
	if tx == nil {
		return nil
	}

	return &transactionResponse{
		ID:           tx.ID,
		Type:         tx.Type,
		Status:       tx.Status,
		Description:  tx.Description,
		Amount:       tx.Amount,
		DueDate:      render.NewDate(tx.DueDate),
		PaymentDate:  render.DatePtr(tx.PaymentDate),
		ClientID:     tx.ClientID,
		ConsultantID: tx.ConsultantID,
		ProjectID:    tx.ProjectID,
		SeriesID:     tx.SeriesID,
		SeriesTag:    tx.SeriesTag(),
		CreatedAt:    tx.CreatedAt,
		UpdatedAt:    tx.UpdatedAt,
	}
}

func toResponseList(txs []*transaction.Transaction) []*transactionResponse {
	resp := make([]*transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}

// resultResponse is one instance of a created series.
type resultResponse struct {
	Index       int                       `json:"index"`
	Transaction *transactionResponse      `json:"transaction,omitempty"`
	Entry       *ledgerhttp.EntryResponse `json:"entry,omitempty"`
	Error       *apperr.Error             `json:"error,omitempty"`
}

func toResultList(log *zap.Logger, results []transaction.Result) []resultResponse {
	resp := make([]resultResponse, len(results))
	for i, r := range results {
		resp[i] = resultResponse{
			Index:       r.Index,
			Transaction: toResponse(r.Transaction),
			Entry:       ledgerhttp.ToResponse(r.Entry),
			Error:       render.Describe(log, r.Err),
		}
	}

	return resp
}

type previewResponse struct {
	Index       int             `json:"index"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     render.Date     `json:"due_date"`
	SeriesTag   string          `json:"series_tag,omitempty"`
}

func toPreviewList(instances []recurrence.Intent[transaction.CreateParams]) []previewResponse {
	resp := make([]previewResponse, len(instances))
	for i, inst := range instances {
		resp[i] = previewResponse{
			Index:       inst.Index,
			Description: inst.Description,
			Amount:      inst.Amount,
			DueDate:     render.NewDate(inst.DueDate),
			SeriesTag:   inst.Tag(),
		}
	}

	return resp
}
