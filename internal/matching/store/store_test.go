package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/stageledger/internal/matching"
	"github.com/MrJamesThe3rd/stageledger/internal/matching/store"
)

func TestStore_FindMatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := store.New(db)

	mock.ExpectQuery(`WHERE POSITION\(LOWER\(pattern\) IN LOWER\(\$2\)\) > 0\s+AND \(flow IS NULL OR flow = NULLIF\(\$1, ''\)\)\s+ORDER BY flow IS NULL, LENGTH\(pattern\) DESC`).
		WithArgs("income", "PIX ACME 0042").
		WillReturnRows(sqlmock.NewRows([]string{"description"}).AddRow("Acme monthly fee"))

	got, err := s.FindMatch(context.Background(), "income", "PIX ACME 0042")
	require.NoError(t, err)
	assert.Equal(t, "Acme monthly fee", got)

	mock.ExpectQuery(`SELECT description\s+FROM description_rules`).
		WithArgs("expense", "TARIFA").
		WillReturnError(sql.ErrNoRows)

	got, err = s.FindMatch(context.Background(), "expense", "TARIFA")
	require.NoError(t, err)
	assert.Empty(t, got)

	mock.ExpectQuery(`SELECT description\s+FROM description_rules`).
		WillReturnError(errors.New("conn reset"))

	_, err = s.FindMatch(context.Background(), "", "TARIFA")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateRule(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO description_rules \(pattern, description, flow\)\s+VALUES \(\$1, \$2, NULLIF\(\$3, ''\)\)\s+ON CONFLICT \(LOWER\(pattern\), COALESCE\(flow, ''\)\) DO UPDATE`).
		WithArgs("PIX ACME", "Acme monthly fee", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.New(db).CreateRule(context.Background(), matching.Rule{Pattern: "PIX ACME", Description: "Acme monthly fee"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
