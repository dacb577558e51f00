package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// table describes where one entry type lives.
type table struct {
	typ   ledger.Type
	name  string
	party string
}

var (
	payables    = table{typ: ledger.TypePayable, name: "payables", party: "consultant_id"}
	receivables = table{typ: ledger.TypeReceivable, name: "receivables", party: "client_id"}
)

func tableFor(t ledger.Type) (table, error) {
	switch t {
	case ledger.TypePayable:
		return payables, nil
	case ledger.TypeReceivable:
		return receivables, nil
	}

	return table{}, fmt.Errorf("unknown ledger entry type %q", t)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// selectFrom returns the column list for t, party aliased so both tables scan alike.
// Expected column order: id, type, description, amount, due_date, payment_date, status,
// stage_id, project_id, manual_transaction_id, party_id, series_tag, created_at, updated_at
func (t table) selectFrom() string {
	return fmt.Sprintf(`
		SELECT id, '%s' AS type, description, amount, due_date, payment_date, status,
			stage_id, project_id, manual_transaction_id, %s AS party_id, series_tag, created_at, updated_at
		FROM %s`, t.typ, t.party, t.name)
}

func scanEntry(s scanner) (*ledger.Entry, error) {
	var e ledger.Entry

	var typeStr, statusStr string

	var party *uuid.UUID

	var seriesTag sql.NullString

	if err := s.Scan(
		&e.ID, &typeStr, &e.Description, &e.Amount, &e.DueDate, &e.PaymentDate, &statusStr,
		&e.Source.StageID, &e.Source.ProjectID, &e.Source.ManualTransactionID, &party, &seriesTag,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	e.Type = ledger.Type(typeStr)
	e.Status = ledger.Status(statusStr)
	e.SeriesTag = seriesTag.String

	if e.Type == ledger.TypePayable {
		e.ConsultantID = party
	} else {
		e.ClientID = party
	}

	return &e, nil
}

func (s *Store) GetEntry(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	query := payables.selectFrom() + ` WHERE id = $1
		UNION ALL` + receivables.selectFrom() + ` WHERE id = $1`

	e, err := scanEntry(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("ledger entry", id)
		}

		return nil, fmt.Errorf("getting ledger entry: %w", err)
	}

	return e, nil
}

func (s *Store) FindBySource(ctx context.Context, typ ledger.Type, ref ledger.SourceRef) (*ledger.Entry, error) {
	t, err := tableFor(typ)
	if err != nil {
		return nil, err
	}

	var (
		query string
		key   uuid.UUID
	)

	switch {
	case ref.StageID != nil:
		query = t.selectFrom() + ` WHERE stage_id = $1`
		key = *ref.StageID
	case ref.ManualTransactionID != nil:
		query = t.selectFrom() + ` WHERE manual_transaction_id = $1`
		key = *ref.ManualTransactionID
	default:
		return nil, errors.New("source reference is empty")
	}

	e, err := scanEntry(s.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(string(typ)+" source", key)
		}

		return nil, fmt.Errorf("finding ledger entry by source: %w", err)
	}

	return e, nil
}

func (s *Store) ListEntries(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Entry, error) {
	var (
		conds []string
		args  []any
	)

	argIdx := 1

	if filter.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.ProjectID != nil {
		conds = append(conds, fmt.Sprintf("project_id = $%d", argIdx))
		args = append(args, *filter.ProjectID)
		argIdx++
	}

	if filter.StageID != nil {
		conds = append(conds, fmt.Sprintf("stage_id = $%d", argIdx))
		args = append(args, *filter.StageID)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	tables := []table{payables, receivables}

	if filter.Type != nil {
		t, err := tableFor(*filter.Type)
		if err != nil {
			return nil, err
		}

		tables = []table{t}
	}

	parts := make([]string, len(tables))
	for i, t := range tables {
		parts[i] = t.selectFrom() + where
	}

	query := strings.Join(parts, "\nUNION ALL\n") + "\nORDER BY due_date ASC, created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ledger entries: %w", err)
	}

	return entries, nil
}

func (s *Store) CreateEntry(ctx context.Context, e *ledger.Entry) error {
	t, err := tableFor(e.Type)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			description, amount, due_date, payment_date, status, stage_id, project_id,
			manual_transaction_id, %s, series_tag, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, t.name, t.party)

	err = s.db.QueryRowContext(ctx, query,
		e.Description,
		e.Amount,
		e.DueDate,
		e.PaymentDate,
		e.Status,
		e.Source.StageID,
		e.Source.ProjectID,
		e.Source.ManualTransactionID,
		e.Party(),
		e.SeriesTag,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ledger.ErrDuplicateSource
		}

		return fmt.Errorf("creating %s: %w", e.Type, err)
	}

	return nil
}

func (s *Store) UpdateDerived(ctx context.Context, e *ledger.Entry) error {
	t, err := tableFor(e.Type)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET amount = $1, due_date = $2, description = $3, %s = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`, t.name, t.party)

	err = s.db.QueryRowContext(ctx, query, e.Amount, e.DueDate, e.Description, e.Party(), e.ID).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("ledger entry", e.ID)
		}

		return fmt.Errorf("updating %s: %w", e.Type, err)
	}

	return nil
}

func (s *Store) CompareAndSetStatus(ctx context.Context, e *ledger.Entry, from ledger.Status) (bool, error) {
	t, err := tableFor(e.Type)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, payment_date = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
		RETURNING updated_at
	`, t.name)

	err = s.db.QueryRowContext(ctx, query, e.Status, e.PaymentDate, e.ID, from).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}

		return false, fmt.Errorf("updating %s status: %w", e.Type, err)
	}

	return true, nil
}
