package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/stageledger/internal/matching"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// FindMatch compares patterns as plain case-insensitive substrings, so % and _
// in a pattern match themselves.
func (s *Store) FindMatch(ctx context.Context, flow, raw string) (string, error) {
	query := `
		SELECT description
		FROM description_rules
		WHERE POSITION(LOWER(pattern) IN LOWER($2)) > 0
			AND (flow IS NULL OR flow = NULLIF($1, ''))
		ORDER BY flow IS NULL, LENGTH(pattern) DESC, created_at DESC
		LIMIT 1
	`

	var description string

	err := s.db.QueryRowContext(ctx, query, flow, raw).Scan(&description)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("finding description rule: %w", err)
	}

	return description, nil
}

func (s *Store) CreateRule(ctx context.Context, rule matching.Rule) error {
	query := `
		INSERT INTO description_rules (pattern, description, flow)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (LOWER(pattern), COALESCE(flow, '')) DO UPDATE
		SET description = EXCLUDED.description, created_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, rule.Pattern, rule.Description, rule.Flow); err != nil {
		return fmt.Errorf("creating description rule: %w", err)
	}

	return nil
}
