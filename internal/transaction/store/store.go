package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/recurrence"
	"github.com/MrJamesThe3rd/stageledger/internal/transaction"
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

// scanTransaction reads a manual transaction row from the scanner.
// Expected column order: id, type, description, amount, due_date, payment_date, status, client_id,
// consultant_id, project_id, series_id, series_index, series_total, recurrence_mode, created_at, updated_at
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var typeStr, statusStr, modeStr string

	if err := s.Scan(
		&tx.ID, &typeStr, &tx.Description, &tx.Amount, &tx.DueDate, &tx.PaymentDate, &statusStr,
		&tx.ClientID, &tx.ConsultantID, &tx.ProjectID,
		&tx.SeriesID, &tx.SeriesIndex, &tx.SeriesTotal, &modeStr,
		&tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	tx.Type = transaction.Type(typeStr)
	tx.Status = ledger.Status(statusStr)
	tx.RecurrenceMode = recurrence.Mode(modeStr)

	return &tx, nil
}

const selectTransactionColumns = `
	t.id, t.type, t.description, t.amount, t.due_date, t.payment_date, t.status, t.client_id,
	t.consultant_id, t.project_id, t.series_id, t.series_index, t.series_total, t.recurrence_mode,
	t.created_at, t.updated_at
`

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		INSERT INTO manual_transactions (
			type, description, amount, due_date, payment_date, status, client_id, consultant_id,
			project_id, series_id, series_index, series_total, recurrence_mode, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		tx.Type,
		tx.Description,
		tx.Amount,
		tx.DueDate,
		tx.PaymentDate,
		tx.Status,
		tx.ClientID,
		tx.ConsultantID,
		tx.ProjectID,
		tx.SeriesID,
		tx.SeriesIndex,
		tx.SeriesTotal,
		tx.RecurrenceMode,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM manual_transactions t WHERE t.id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("transaction", id)
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM manual_transactions t WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Type != nil {
		query += fmt.Sprintf(" AND t.type = $%d", argIdx)

		args = append(args, *filter.Type)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND t.due_date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND t.due_date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.SeriesID != nil {
		query += fmt.Sprintf(" AND t.series_id = $%d", argIdx)

		args = append(args, *filter.SeriesID)
	}

	query += " ORDER BY t.due_date ASC, t.series_index ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txs, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		UPDATE manual_transactions
		SET description = $1, amount = $2, due_date = $3, client_id = $4, consultant_id = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		tx.Description,
		tx.Amount,
		tx.DueDate,
		tx.ClientID,
		tx.ConsultantID,
		tx.ID,
	).Scan(&tx.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("transaction", tx.ID)
		}

		return fmt.Errorf("updating transaction: %w", err)
	}

	return nil
}
