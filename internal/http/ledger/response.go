package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stageledger/internal/http/render"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
)

type EntryResponse struct {
	ID           uuid.UUID        `json:"id"`
	Type         ledger.Type      `json:"type"`
	Description  string           `json:"description"`
	Amount       decimal.Decimal  `json:"amount"`
	DueDate      render.Date      `json:"due_date"`
	PaymentDate  *render.Date     `json:"payment_date,omitempty"`
	Status       ledger.Status    `json:"status"`
	Source       ledger.SourceRef `json:"source"`
	ConsultantID *uuid.UUID       `json:"consultant_id,omitempty"`
	ClientID     *uuid.UUID       `json:"client_id,omitempty"`
	SeriesTag    string           `json:"series_tag,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func ToResponse(e *ledger.Entry) *EntryResponse {
	if e == nil {
		return nil
	}

	return &EntryResponse{
		ID:           e.ID,
		Type:         e.Type,
		Description:  e.Description,
		Amount:       e.Amount,
		DueDate:      render.NewDate(e.DueDate),
		PaymentDate:  render.DatePtr(e.PaymentDate),
		Status:       e.Status,
		Source:       e.Source,
		ConsultantID: e.ConsultantID,
		ClientID:     e.ClientID,
		SeriesTag:    e.SeriesTag,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func ToResponseList(entries []*ledger.Entry) []*EntryResponse {
	resp := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = ToResponse(e)
	}

	return resp
}
