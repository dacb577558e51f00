package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	"github.com/MrJamesThe3rd/stageledger/internal/project"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectProjectColumns = `
	p.id, p.name, p.status, p.main_consultant_id, p.support_consultant_id, p.client_id,
	p.total_value, p.tax_percent, p.third_party_expenses, p.main_consultant_value,
	p.support_consultant_value, p.created_at, p.updated_at
`

func scanProject(s scanner) (*project.Project, error) {
	var p project.Project

	var support decimal.NullDecimal

	if err := s.Scan(
		&p.ID, &p.Name, &p.Status, &p.MainConsultantID, &p.SupportConsultantID, &p.ClientID,
		&p.TotalValue, &p.TaxPercent, &p.ThirdPartyExpenses, &p.MainConsultantValue,
		&support, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if support.Valid {
		p.SupportConsultantValue = &support.Decimal
	}

	return &p, nil
}

const selectStageColumns = `
	s.id, s.project_id, s.name, s.status, s.completed, s.client_approved, s.invoice_issued,
	s.payment_received, s.consultant_paid, s.value, s.start_date, s.end_date, s.consultant_id
`

func scanStage(s scanner) (*project.Stage, error) {
	var st project.Stage

	if err := s.Scan(
		&st.ID, &st.ProjectID, &st.Name, &st.Status, &st.Completed, &st.ClientApproved, &st.InvoiceIssued,
		&st.PaymentReceived, &st.ConsultantPaid, &st.Value, &st.StartDate, &st.EndDate, &st.ConsultantID,
	); err != nil {
		return nil, err
	}

	return &st, nil
}

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	var support decimal.NullDecimal
	if p.SupportConsultantValue != nil {
		support = decimal.NewNullDecimal(*p.SupportConsultantValue)
	}

	projectQuery := `
		INSERT INTO projects (
			name, status, main_consultant_id, support_consultant_id, client_id, total_value,
			tax_percent, third_party_expenses, main_consultant_value, support_consultant_value,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = dbTx.QueryRowContext(ctx, projectQuery,
		p.Name,
		p.Status,
		p.MainConsultantID,
		p.SupportConsultantID,
		p.ClientID,
		p.TotalValue,
		p.TaxPercent,
		p.ThirdPartyExpenses,
		p.MainConsultantValue,
		support,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}

	stageQuery := `
		INSERT INTO stages (project_id, position, name, status, value, start_date, end_date, consultant_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	for i, st := range p.Stages {
		st.ProjectID = p.ID

		err := dbTx.QueryRowContext(ctx, stageQuery,
			p.ID,
			i,
			st.Name,
			st.Status,
			st.Value,
			st.StartDate,
			st.EndDate,
			st.ConsultantID,
		).Scan(&st.ID)
		if err != nil {
			return fmt.Errorf("creating stage %q: %w", st.Name, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing project: %w", err)
	}

	return nil
}

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	query := `SELECT ` + selectProjectColumns + ` FROM projects p WHERE p.id = $1`

	p, err := scanProject(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("project", id)
		}

		return nil, fmt.Errorf("getting project: %w", err)
	}

	stages, err := s.listStages(ctx, `WHERE s.project_id = $1`, id)
	if err != nil {
		return nil, err
	}

	p.Stages = stages

	return p, nil
}

func (s *Store) GetProjectByStage(ctx context.Context, stageID uuid.UUID) (*project.Project, error) {
	var projectID uuid.UUID

	err := s.db.QueryRowContext(ctx, `SELECT project_id FROM stages WHERE id = $1`, stageID).Scan(&projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("stage", stageID)
		}

		return nil, fmt.Errorf("finding stage project: %w", err)
	}

	return s.GetProject(ctx, projectID)
}

func (s *Store) ListProjects(ctx context.Context) ([]*project.Project, error) {
	query := `SELECT ` + selectProjectColumns + ` FROM projects p ORDER BY p.created_at ASC, p.id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*project.Project

	byID := make(map[uuid.UUID]*project.Project)

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}

		projects = append(projects, p)
		byID[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}

	if len(projects) == 0 {
		return projects, nil
	}

	stages, err := s.listStages(ctx, "")
	if err != nil {
		return nil, err
	}

	for _, st := range stages {
		if p, ok := byID[st.ProjectID]; ok {
			p.Stages = append(p.Stages, st)
		}
	}

	return projects, nil
}

// listStages returns stages in their stored position order.
func (s *Store) listStages(ctx context.Context, where string, args ...any) ([]*project.Stage, error) {
	query := `SELECT ` + selectStageColumns + ` FROM stages s ` + where + ` ORDER BY s.project_id, s.position ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stages: %w", err)
	}
	defer rows.Close()

	var stages []*project.Stage

	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning stage: %w", err)
		}

		stages = append(stages, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stages: %w", err)
	}

	return stages, nil
}

// UpdateStageStatus stores the new status and appends it to the history in one
// transaction. completes only ever sets the completed flag, so a stale read
// cannot clear it; the stored flag is returned.
func (s *Store) UpdateStageStatus(ctx context.Context, change *project.StatusChange, completes bool) (bool, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	var completed bool

	err = dbTx.QueryRowContext(ctx,
		`UPDATE stages SET status = $1, completed = completed OR $2 WHERE id = $3 RETURNING completed`,
		change.Status, completes, change.StageID,
	).Scan(&completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, apperr.NotFound("stage", change.StageID)
		}

		return false, fmt.Errorf("updating stage status: %w", err)
	}

	historyQuery := `
		INSERT INTO stage_status_history (stage_id, status, changed_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := dbTx.QueryRowContext(ctx, historyQuery, change.StageID, change.Status, change.ChangedAt).Scan(&change.ID); err != nil {
		return false, fmt.Errorf("appending stage history: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return false, fmt.Errorf("committing stage status: %w", err)
	}

	return completed, nil
}

// UpdateStageFlags writes only the flags set in params and reads every flag
// back into st.
func (s *Store) UpdateStageFlags(ctx context.Context, st *project.Stage, params project.FlagParams) error {
	query := `
		UPDATE stages
		SET client_approved = COALESCE($1, client_approved),
			invoice_issued = COALESCE($2, invoice_issued),
			payment_received = COALESCE($3, payment_received),
			consultant_paid = COALESCE($4, consultant_paid)
		WHERE id = $5
		RETURNING client_approved, invoice_issued, payment_received, consultant_paid
	`

	err := s.db.QueryRowContext(ctx, query,
		params.ClientApproved,
		params.InvoiceIssued,
		params.PaymentReceived,
		params.ConsultantPaid,
		st.ID,
	).Scan(&st.ClientApproved, &st.InvoiceIssued, &st.PaymentReceived, &st.ConsultantPaid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("stage", st.ID)
		}

		return fmt.Errorf("updating stage flags: %w", err)
	}

	return nil
}

func (s *Store) ListStageHistory(ctx context.Context, stageID uuid.UUID) ([]*project.StatusChange, error) {
	query := `
		SELECT id, stage_id, status, changed_at
		FROM stage_status_history
		WHERE stage_id = $1
		ORDER BY changed_at ASC, seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("listing stage history: %w", err)
	}
	defer rows.Close()

	var history []*project.StatusChange

	for rows.Next() {
		var c project.StatusChange
		if err := rows.Scan(&c.ID, &c.StageID, &c.Status, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("scanning stage history: %w", err)
		}

		history = append(history, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stage history: %w", err)
	}

	return history, nil
}
