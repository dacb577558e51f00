package project

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	"github.com/MrJamesThe3rd/stageledger/internal/status"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=project
type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*Project, error)
	GetProjectByStage(ctx context.Context, stageID uuid.UUID) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)

	// UpdateStageStatus writes the stage status, sets completed when completes
	// is true and appends change to the history atomically. It returns the
	// stored completed flag.
	UpdateStageStatus(ctx context.Context, change *StatusChange, completes bool) (bool, error)
	// UpdateStageFlags writes the non-nil flags of params and loads the stored
	// flags into stage.
	UpdateStageFlags(ctx context.Context, stage *Stage, params FlagParams) error
	ListStageHistory(ctx context.Context, stageID uuid.UUID) ([]*StatusChange, error)
}

// CatalogProvider loads the status catalog for the current request.
type CatalogProvider interface {
	Catalog(ctx context.Context) (*status.Catalog, error)
}

// StageHook runs after a stage status change has been stored.
type StageHook func(ctx context.Context, stage *Stage, p *Project) error

type Service struct {
	repo     Repository
	catalogs CatalogProvider
	onChange StageHook
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, catalogs CatalogProvider, onChange StageHook, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		catalogs: catalogs,
		onChange: onChange,
		log:      log,
		now:      time.Now,
	}
}

type StageParams struct {
	Name         string
	Status       string
	Value        decimal.Decimal
	StartDate    time.Time
	EndDate      time.Time
	ConsultantID *uuid.UUID
}

type CreateParams struct {
	Name                   string
	Status                 string
	MainConsultantID       uuid.UUID
	SupportConsultantID    *uuid.UUID
	ClientID               *uuid.UUID
	TotalValue             decimal.Decimal
	TaxPercent             decimal.Decimal
	ThirdPartyExpenses     decimal.Decimal
	MainConsultantValue    decimal.Decimal
	SupportConsultantValue *decimal.Decimal
	Stages                 []StageParams
}

func (p CreateParams) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Validation("name", "must not be empty")
	}

	if p.MainConsultantID == uuid.Nil {
		return apperr.Validation("main_consultant_id", "is required")
	}

	if p.TotalValue.IsNegative() {
		return apperr.Validation("total_value", "must not be negative")
	}

	if p.TaxPercent.IsNegative() || p.TaxPercent.GreaterThan(hundred) {
		return apperr.Validation("tax_percent", "must be between 0 and 100")
	}

	if p.ThirdPartyExpenses.IsNegative() || p.MainConsultantValue.IsNegative() {
		return apperr.Validation("expenses", "must not be negative")
	}

	if p.SupportConsultantValue != nil && p.SupportConsultantValue.IsNegative() {
		return apperr.Validation("support_consultant_value", "must not be negative")
	}

	for i, s := range p.Stages {
		field := fmt.Sprintf("stages[%d]", i)

		if strings.TrimSpace(s.Name) == "" {
			return apperr.Validation(field+".name", "must not be empty")
		}

		if s.Value.IsNegative() {
			return apperr.Validation(field+".value", "must not be negative")
		}

		if s.EndDate.Before(s.StartDate) {
			return apperr.Validation(field+".end_date", "is before start date")
		}
	}

	return nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Project, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	p := &Project{
		Name:                   params.Name,
		Status:                 params.Status,
		MainConsultantID:       params.MainConsultantID,
		SupportConsultantID:    params.SupportConsultantID,
		ClientID:               params.ClientID,
		TotalValue:             params.TotalValue,
		TaxPercent:             params.TaxPercent,
		ThirdPartyExpenses:     params.ThirdPartyExpenses,
		MainConsultantValue:    params.MainConsultantValue,
		SupportConsultantValue: params.SupportConsultantValue,
		Stages:                 make([]*Stage, len(params.Stages)),
	}

	for i, sp := range params.Stages {
		p.Stages[i] = &Stage{
			Name:         sp.Name,
			Status:       sp.Status,
			Value:        sp.Value,
			StartDate:    sp.StartDate,
			EndDate:      sp.EndDate,
			ConsultantID: sp.ConsultantID,
		}
	}

	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.repo.GetProject(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Project, error) {
	return s.repo.ListProjects(ctx)
}

// SetStageStatus moves a stage to newStatus. Reaching a completion status marks
// the stage completed; leaving one does not clear the flag.
func (s *Service) SetStageStatus(ctx context.Context, stageID uuid.UUID, newStatus string) (*Stage, error) {
	if strings.TrimSpace(newStatus) == "" {
		return nil, apperr.Validation("status", "must not be empty")
	}

	catalog, err := s.catalogs.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.GetProjectByStage(ctx, stageID)
	if err != nil {
		return nil, err
	}

	stage := p.Stage(stageID)
	if stage == nil {
		return nil, apperr.NotFound("stage", stageID)
	}

	change := &StatusChange{
		StageID:   stageID,
		Status:    newStatus,
		ChangedAt: s.now(),
	}

	completed, err := s.repo.UpdateStageStatus(ctx, change, catalog.IsCompletion(newStatus))
	if err != nil {
		return nil, err
	}

	s.log.Info("stage status changed",
		zap.Stringer("stage_id", stageID),
		zap.Stringer("project_id", p.ID),
		zap.String("from", stage.Status),
		zap.String("to", newStatus),
	)

	stage.Status = newStatus
	stage.Completed = completed

	if s.onChange != nil {
		if err := s.onChange(ctx, stage, p); err != nil {
			return stage, fmt.Errorf("deriving ledger for stage %s: %w", stageID, err)
		}
	}

	return stage, nil
}

// FlagParams holds the stage workflow flags to change; nil leaves a flag as is.
type FlagParams struct {
	ClientApproved  *bool
	InvoiceIssued   *bool
	PaymentReceived *bool
	ConsultantPaid  *bool
}

// SetStageFlags updates the workflow flags of a stage and runs the change hook,
// since client approval alone can make a receivable due.
func (s *Service) SetStageFlags(ctx context.Context, stageID uuid.UUID, params FlagParams) (*Stage, error) {
	p, err := s.repo.GetProjectByStage(ctx, stageID)
	if err != nil {
		return nil, err
	}

	stage := p.Stage(stageID)
	if stage == nil {
		return nil, apperr.NotFound("stage", stageID)
	}

	for _, f := range []struct {
		dst *bool
		src *bool
	}{
		{&stage.ClientApproved, params.ClientApproved},
		{&stage.InvoiceIssued, params.InvoiceIssued},
		{&stage.PaymentReceived, params.PaymentReceived},
		{&stage.ConsultantPaid, params.ConsultantPaid},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}

	if err := s.repo.UpdateStageFlags(ctx, stage, params); err != nil {
		return nil, err
	}

	if s.onChange != nil {
		if err := s.onChange(ctx, stage, p); err != nil {
			return stage, fmt.Errorf("deriving ledger for stage %s: %w", stageID, err)
		}
	}

	return stage, nil
}

func (s *Service) Progress(ctx context.Context, p *Project) (Progress, error) {
	catalog, err := s.catalogs.Catalog(ctx)
	if err != nil {
		return Progress{}, err
	}

	return ComputeProgress(catalog, p), nil
}

func (s *Service) History(ctx context.Context, stageID uuid.UUID) ([]*StatusChange, error) {
	return s.repo.ListStageHistory(ctx, stageID)
}
