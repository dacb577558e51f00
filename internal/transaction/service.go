package transaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/recurrence"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
}

// Deriver produces the ledger entry for a manual transaction.
type Deriver interface {
	DeriveFromManualTransaction(ctx context.Context, tx ledger.ManualTransaction) (*ledger.Entry, error)
}

type Service struct {
	repo    Repository
	deriver Deriver
	log     *zap.Logger
}

func NewService(repo Repository, deriver Deriver, log *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		deriver: deriver,
		log:     log,
	}
}

type CreateParams struct {
	Amount       decimal.Decimal
	Type         Type
	Status       ledger.Status
	Description  string
	DueDate      time.Time
	PaymentDate  *time.Time
	ClientID     *uuid.UUID
	ConsultantID *uuid.UUID
	ProjectID    *uuid.UUID
	Recurrence   recurrence.Spec
}

func (p CreateParams) spec() recurrence.Spec {
	if p.Recurrence.Mode == "" {
		return recurrence.Spec{Mode: recurrence.ModeUnique}
	}

	return p.Recurrence
}

func (p CreateParams) validate() error {
	if !p.Type.IsValid() {
		return apperr.Validation("type", "must be income or expense")
	}

	if strings.TrimSpace(p.Description) == "" {
		return apperr.Validation("description", "must not be empty")
	}

	if p.DueDate.IsZero() {
		return apperr.Validation("due_date", "is required")
	}

	switch p.Status {
	case "", ledger.StatusPending, ledger.SettledStatus(p.Type.EntryType()):
	default:
		return apperr.Validation("status", "%s is not valid for %s", p.Status, p.Type)
	}

	return p.spec().Validate(p.Amount)
}

type ListFilter struct {
	Type      *Type
	StartDate *time.Time
	EndDate   *time.Time
	SeriesID  *uuid.UUID
}

// Result reports what happened to one instance of a submitted series.
type Result struct {
	Index       int
	Transaction *Transaction
	Entry       *ledger.Entry
	Err         error
}

// Preview expands params without storing anything.
func (s *Service) Preview(params CreateParams) ([]recurrence.Intent[CreateParams], error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	return recurrence.Expand(recurrence.Intent[CreateParams]{
		Description: params.Description,
		Amount:      params.Amount,
		DueDate:     params.DueDate,
		Payload:     params,
	}, params.spec())
}

// Create expands params into its series and submits every instance on its
// own. A failing instance is reported in its Result and does not stop or undo
// the others. The returned error is set only when params are invalid, in which
// case nothing is stored.
func (s *Service) Create(ctx context.Context, params CreateParams) ([]Result, error) {
	instances, err := s.Preview(params)
	if err != nil {
		return nil, err
	}

	var seriesID *uuid.UUID
	if len(instances) > 1 {
		id := uuid.New()
		seriesID = &id
	}

	results := make([]Result, len(instances))
	for i, inst := range instances {
		results[i] = s.submit(ctx, toTransaction(inst, seriesID))
	}

	return results, nil
}

// CreateBatch submits each params independently. Result.Index is the 1-based
// position in params; rows expanding to a series report their first instance
// and carry any failure of later instances in Err.
func (s *Service) CreateBatch(ctx context.Context, params []CreateParams) []Result {
	results := make([]Result, len(params))

	for i, p := range params {
		row, err := s.Create(ctx, p)
		if err != nil {
			results[i] = Result{Index: i + 1, Err: err}
			continue
		}

		results[i] = row[0]
		results[i].Index = i + 1

		for _, r := range row[1:] {
			if r.Err != nil && results[i].Err == nil {
				results[i].Err = fmt.Errorf("instance %d: %w", r.Index, r.Err)
			}
		}
	}

	return results
}

func toTransaction(inst recurrence.Intent[CreateParams], seriesID *uuid.UUID) *Transaction {
	p := inst.Payload

	return &Transaction{
		Type:           p.Type,
		Description:    inst.Description,
		Amount:         inst.Amount,
		DueDate:        inst.DueDate,
		PaymentDate:    p.PaymentDate,
		Status:         orPending(p.Status),
		ClientID:       p.ClientID,
		ConsultantID:   p.ConsultantID,
		ProjectID:      p.ProjectID,
		SeriesID:       seriesID,
		SeriesIndex:    inst.Index,
		SeriesTotal:    inst.Total,
		RecurrenceMode: inst.Mode,
	}
}

func orPending(s ledger.Status) ledger.Status {
	if s == "" {
		return ledger.StatusPending
	}

	return s
}

func (s *Service) submit(ctx context.Context, tx *Transaction) Result {
	res := Result{Index: tx.SeriesIndex, Transaction: tx}

	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		res.Transaction = nil
		res.Err = err

		return res
	}

	entry, err := s.deriver.DeriveFromManualTransaction(ctx, tx.Ledger())
	if err != nil {
		s.log.Warn("deriving ledger entry failed",
			zap.Stringer("transaction_id", tx.ID),
			zap.Int("index", tx.SeriesIndex),
			zap.Error(err),
		)

		res.Err = err

		return res
	}

	res.Entry = entry

	return res
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

// UpdateParams holds the source fields that may change after creation. Type and
// status are fixed: the ledger entry owns the lifecycle from then on.
type UpdateParams struct {
	Description  *string
	Amount       *decimal.Decimal
	DueDate      *time.Time
	ClientID     *uuid.UUID
	ConsultantID *uuid.UUID
}

// Update changes a transaction and re-derives its ledger entry.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Transaction, *ledger.Entry, error) {
	if params.Description != nil && strings.TrimSpace(*params.Description) == "" {
		return nil, nil, apperr.Validation("description", "must not be empty")
	}

	if params.Amount != nil {
		if err := recurrence.ValidateAmount(*params.Amount); err != nil {
			return nil, nil, err
		}
	}

	if params.DueDate != nil && params.DueDate.IsZero() {
		return nil, nil, apperr.Validation("due_date", "is required")
	}

	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if params.Description != nil {
		tx.Description = *params.Description
	}

	if params.Amount != nil {
		tx.Amount = *params.Amount
	}

	if params.DueDate != nil {
		tx.DueDate = *params.DueDate
	}

	if params.ClientID != nil {
		tx.ClientID = params.ClientID
	}

	if params.ConsultantID != nil {
		tx.ConsultantID = params.ConsultantID
	}

	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return nil, nil, err
	}

	entry, err := s.deriver.DeriveFromManualTransaction(ctx, tx.Ledger())
	if err != nil {
		return tx, nil, fmt.Errorf("re-deriving ledger entry: %w", err)
	}

	return tx, entry, nil
}
