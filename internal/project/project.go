package project

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stageledger/internal/status"
)

var hundred = decimal.NewFromInt(100)

// Project is a client engagement split into ordered stages.
type Project struct {
	ID                     uuid.UUID
	Name                   string
	Status                 string
	MainConsultantID       uuid.UUID
	SupportConsultantID    *uuid.UUID
	ClientID               *uuid.UUID
	Stages                 []*Stage // Insertion order, never resorted
	TotalValue             decimal.Decimal
	TaxPercent             decimal.Decimal
	ThirdPartyExpenses     decimal.Decimal
	MainConsultantValue    decimal.Decimal
	SupportConsultantValue *decimal.Decimal
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// NetValue is what remains of the total after tax, third-party expenses and
// consultant shares.
func (p *Project) NetValue() decimal.Decimal {
	net := p.TotalValue.
		Sub(p.TotalValue.Mul(p.TaxPercent).Div(hundred)).
		Sub(p.ThirdPartyExpenses).
		Sub(p.MainConsultantValue)

	if p.SupportConsultantValue != nil {
		net = net.Sub(*p.SupportConsultantValue)
	}

	return net
}

// ConsultantValue is the combined main and support consultant share.
func (p *Project) ConsultantValue() decimal.Decimal {
	v := p.MainConsultantValue
	if p.SupportConsultantValue != nil {
		v = v.Add(*p.SupportConsultantValue)
	}

	return v
}

// Stage returns the stage with the given id, or nil.
func (p *Project) Stage(id uuid.UUID) *Stage {
	for _, s := range p.Stages {
		if s.ID == id {
			return s
		}
	}

	return nil
}

// Stage is a dated, valued unit of work inside a project.
type Stage struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	Name            string
	Status          string
	Completed       bool
	ClientApproved  bool
	InvoiceIssued   bool
	PaymentReceived bool
	ConsultantPaid  bool
	Value           decimal.Decimal
	StartDate       time.Time
	EndDate         time.Time
	ConsultantID    *uuid.UUID
}

// IsOverdue reports whether the stage is unfinished past its end date.
func (s *Stage) IsOverdue(c *status.Catalog, now time.Time) bool {
	return !c.IsCompletion(s.Status) && s.EndDate.Before(now)
}

// StatusChange is one entry of a stage's append-only status history.
type StatusChange struct {
	ID        uuid.UUID
	StageID   uuid.UUID
	Status    string
	ChangedAt time.Time
}

type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// ComputeProgress counts the stages whose status is a completion status.
func ComputeProgress(c *status.Catalog, p *Project) Progress {
	prog := Progress{Total: len(p.Stages)}

	for _, s := range p.Stages {
		if c.IsCompletion(s.Status) {
			prog.Completed++
		}
	}

	return prog
}
