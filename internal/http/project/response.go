package project

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stageledger/internal/http/render"
	"github.com/MrJamesThe3rd/stageledger/internal/project"
	"github.com/MrJamesThe3rd/stageledger/internal/status"
)

type stageResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProjectID       uuid.UUID       `json:"project_id"`
	Name            string          `json:"name"`
	Status          string          `json:"status"`
	StatusLabel     status.Label    `json:"status_label"`
	Completed       bool            `json:"completed"`
	Overdue         bool            `json:"overdue"`
	ClientApproved  bool            `json:"client_approved"`
	InvoiceIssued   bool            `json:"invoice_issued"`
	PaymentReceived bool            `json:"payment_received"`
	ConsultantPaid  bool            `json:"consultant_paid"`
	Value           decimal.Decimal `json:"value"`
	StartDate       render.Date     `json:"start_date"`
	EndDate         render.Date     `json:"end_date"`
	ConsultantID    *uuid.UUID      `json:"consultant_id,omitempty"`
}

type projectResponse struct {
	ID                     uuid.UUID        `json:"id"`
	Name                   string           `json:"name"`
	Status                 string           `json:"status"`
	MainConsultantID       uuid.UUID        `json:"main_consultant_id"`
	SupportConsultantID    *uuid.UUID       `json:"support_consultant_id,omitempty"`
	ClientID               *uuid.UUID       `json:"client_id,omitempty"`
	TotalValue             decimal.Decimal  `json:"total_value"`
	TaxPercent             decimal.Decimal  `json:"tax_percent"`
	ThirdPartyExpenses     decimal.Decimal  `json:"third_party_expenses"`
	MainConsultantValue    decimal.Decimal  `json:"main_consultant_value"`
	SupportConsultantValue *decimal.Decimal `json:"support_consultant_value,omitempty"`
	NetValue               decimal.Decimal  `json:"net_value"`
	Progress               project.Progress `json:"progress"`
	Stages                 []stageResponse  `json:"stages"`
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
}

type historyResponse struct {
	ID        uuid.UUID    `json:"id"`
	Status    string       `json:"status"`
	Label     status.Label `json:"label"`
	ChangedAt time.Time    `json:"changed_at"`
}

func toStageResponse(c *status.Catalog, s *project.Stage, now time.Time) stageResponse {
	return stageResponse{
		ID:              s.ID,
		ProjectID:       s.ProjectID,
		Name:            s.Name,
		Status:          s.Status,
		StatusLabel:     c.Display(s.Status),
		Completed:       s.Completed,
		Overdue:         s.IsOverdue(c, now),
		ClientApproved:  s.ClientApproved,
		InvoiceIssued:   s.InvoiceIssued,
		PaymentReceived: s.PaymentReceived,
		ConsultantPaid:  s.ConsultantPaid,
		Value:           s.Value,
		StartDate:       render.NewDate(s.StartDate),
		EndDate:         render.NewDate(s.EndDate),
		ConsultantID:    s.ConsultantID,
	}
}

func toResponse(c *status.Catalog, p *project.Project, now time.Time) projectResponse {
	stages := make([]stageResponse, len(p.Stages))
	for i, s := range p.Stages {
		stages[i] = toStageResponse(c, s, now)
	}

	return projectResponse{
		ID:                     p.ID,
		Name:                   p.Name,
		Status:                 p.Status,
		MainConsultantID:       p.MainConsultantID,
		SupportConsultantID:    p.SupportConsultantID,
		ClientID:               p.ClientID,
		TotalValue:             p.TotalValue,
		TaxPercent:             p.TaxPercent,
		ThirdPartyExpenses:     p.ThirdPartyExpenses,
		MainConsultantValue:    p.MainConsultantValue,
		SupportConsultantValue: p.SupportConsultantValue,
		NetValue:               p.NetValue(),
		Progress:               project.ComputeProgress(c, p),
		Stages:                 stages,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

func toHistoryResponse(c *status.Catalog, changes []*project.StatusChange) []historyResponse {
	resp := make([]historyResponse, len(changes))
	for i, ch := range changes {
		resp[i] = historyResponse{
			ID:        ch.ID,
			Status:    ch.Status,
			Label:     c.Display(ch.Status),
			ChangedAt: ch.ChangedAt,
		}
	}

	return resp
}
