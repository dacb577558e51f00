package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type is the direction of a ledger entry.
type Type string

const (
	TypePayable    Type = "payable"    // Owed to a consultant
	TypeReceivable Type = "receivable" // Owed by a client
)

func (t Type) IsValid() bool {
	return t == TypePayable || t == TypeReceivable
}

// Status is the lifecycle state of a ledger entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusReceived Status = "received"
	StatusCanceled Status = "canceled"
	StatusDeleted  Status = "deleted"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusReceived, StatusCanceled, StatusDeleted:
		return true
	}

	return false
}

// Counts reports whether an entry in this status contributes to expected totals.
func (s Status) Counts() bool {
	return s != StatusDeleted && s != StatusCanceled
}

// SettledStatus is the status a settled entry of type t ends in.
func SettledStatus(t Type) Status {
	if t == TypePayable {
		return StatusPaid
	}

	return StatusReceived
}

// Flow is the direction of a manual transaction.
type Flow string

const (
	FlowIncome  Flow = "income"
	FlowExpense Flow = "expense"
)

func (f Flow) IsValid() bool {
	return f == FlowIncome || f == FlowExpense
}

// EntryType maps income to receivables and expenses to payables.
func (f Flow) EntryType() Type {
	if f == FlowIncome {
		return TypeReceivable
	}

	return TypePayable
}

// SourceRef identifies the record an entry was derived from. Either the stage
// pair or ManualTransactionID is set.
type SourceRef struct {
	StageID             *uuid.UUID `json:"stage_id,omitempty"`
	ProjectID           *uuid.UUID `json:"project_id,omitempty"`
	ManualTransactionID *uuid.UUID `json:"manual_transaction_id,omitempty"`
}

func StageSource(stageID, projectID uuid.UUID) SourceRef {
	return SourceRef{StageID: &stageID, ProjectID: &projectID}
}

func ManualSource(txID uuid.UUID) SourceRef {
	return SourceRef{ManualTransactionID: &txID}
}

func (r SourceRef) IsStage() bool {
	return r.StageID != nil
}

// Entry is a payable or receivable row.
type Entry struct {
	ID           uuid.UUID
	Type         Type
	Description  string
	Amount       decimal.Decimal
	DueDate      time.Time
	PaymentDate  *time.Time
	Status       Status
	Source       SourceRef
	ConsultantID *uuid.UUID // Payables only
	ClientID     *uuid.UUID // Receivables only
	SeriesTag    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Party returns the consultant of a payable or the client of a receivable.
func (e *Entry) Party() *uuid.UUID {
	if e.Type == TypePayable {
		return e.ConsultantID
	}

	return e.ClientID
}

func (e *Entry) setParty(id *uuid.UUID) {
	if e.Type == TypePayable {
		e.ConsultantID = id
		return
	}

	e.ClientID = id
}

// ListFilter narrows ListEntries. Nil fields match everything.
type ListFilter struct {
	Type      *Type
	Status    *Status
	ProjectID *uuid.UUID
	StageID   *uuid.UUID
}
