package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/recurrence"
)

// Type represents the type of transaction (income or expense).
type Type = ledger.Flow

const (
	TypeIncome  = ledger.FlowIncome
	TypeExpense = ledger.FlowExpense
)

// Transaction is a manually entered income or expense. Each one is the source
// of at most one ledger entry.
type Transaction struct {
	ID             uuid.UUID
	Type           Type
	Description    string
	Amount         decimal.Decimal
	DueDate        time.Time
	PaymentDate    *time.Time
	Status         ledger.Status // pending, paid or received
	ClientID       *uuid.UUID
	ConsultantID   *uuid.UUID
	ProjectID      *uuid.UUID
	SeriesID       *uuid.UUID // Shared by every instance of an expanded series
	SeriesIndex    int
	SeriesTotal    int
	RecurrenceMode recurrence.Mode
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SeriesTag describes the transaction's place in its series.
func (t *Transaction) SeriesTag() string {
	return recurrence.Intent[struct{}]{
		Index: t.SeriesIndex,
		Total: t.SeriesTotal,
		Mode:  t.RecurrenceMode,
	}.Tag()
}

// Ledger returns the view of t the ledger derives from.
func (t *Transaction) Ledger() ledger.ManualTransaction {
	return ledger.ManualTransaction{
		ID:           t.ID,
		Flow:         t.Type,
		Description:  t.Description,
		Amount:       t.Amount,
		DueDate:      t.DueDate,
		PaymentDate:  t.PaymentDate,
		Status:       t.Status,
		ClientID:     t.ClientID,
		ConsultantID: t.ConsultantID,
		SeriesTag:    t.SeriesTag(),
	}
}
