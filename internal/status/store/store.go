package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrJamesThe3rd/stageledger/internal/status"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListDefinitions(ctx context.Context) ([]status.Definition, error) {
	query := `
		SELECT name, display_name, color, is_completion_status, position
		FROM status_definitions
		ORDER BY position ASC, name ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing status definitions: %w", err)
	}
	defer rows.Close()

	var defs []status.Definition

	for rows.Next() {
		var d status.Definition
		if err := rows.Scan(&d.Name, &d.DisplayName, &d.Color, &d.IsCompletionStatus, &d.Position); err != nil {
			return nil, fmt.Errorf("scanning status definition: %w", err)
		}

		defs = append(defs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status definitions: %w", err)
	}

	return defs, nil
}
