package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	"github.com/MrJamesThe3rd/stageledger/internal/project"
	"github.com/MrJamesThe3rd/stageledger/internal/project/store"
)

func newStore(t *testing.T) (*store.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return store.New(db), mock
}

var (
	projectColumns = []string{
		"id", "name", "status", "main_consultant_id", "support_consultant_id", "client_id",
		"total_value", "tax_percent", "third_party_expenses", "main_consultant_value",
		"support_consultant_value", "created_at", "updated_at",
	}
	stageColumns = []string{
		"id", "project_id", "name", "status", "completed", "client_approved", "invoice_issued",
		"payment_received", "consultant_paid", "value", "start_date", "end_date", "consultant_id",
	}
)

func TestStore_GetProject(t *testing.T) {
	s, mock := newStore(t)

	id, consultant := uuid.New(), uuid.New()
	first, second := uuid.New(), uuid.New()
	now := time.Now()
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM projects p WHERE p.id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(projectColumns).AddRow(
			id.String(), "Acme", "ativo", consultant.String(), nil, nil,
			"4000.00", "10.00", "0.00", "1200.00", nil, now, now,
		))

	mock.ExpectQuery(`FROM stages s WHERE s.project_id = \$1 ORDER BY s.project_id, s.position ASC`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(stageColumns).
			AddRow(first.String(), id.String(), "Diagnóstico", "concluido", true, true, false, false, false, "1000.00", start, end, nil).
			AddRow(second.String(), id.String(), "Implantação", "em_andamento", false, false, false, false, false, "3000.00", start, end, consultant.String()))

	p, err := s.GetProject(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "Acme", p.Name)
	assert.Nil(t, p.SupportConsultantValue)
	assert.True(t, decimal.NewFromInt(2400).Equal(p.NetValue()))
	require.Len(t, p.Stages, 2)
	assert.Equal(t, first, p.Stages[0].ID)
	assert.True(t, p.Stages[0].Completed)
	require.NotNil(t, p.Stages[1].ConsultantID)
	assert.Equal(t, consultant, *p.Stages[1].ConsultantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetProjectByStage_NotFound(t *testing.T) {
	s, mock := newStore(t)
	stageID := uuid.New()

	mock.ExpectQuery(`SELECT project_id FROM stages WHERE id = \$1`).
		WithArgs(stageID).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetProjectByStage(context.Background(), stageID)

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.KindNotFound, appErr.Kind)
	assert.Equal(t, "stage", appErr.Entity)
}

func TestStore_UpdateStageStatus(t *testing.T) {
	t.Run("writes stage and history atomically", func(t *testing.T) {
		s, mock := newStore(t)
		change := &project.StatusChange{
			StageID:   uuid.New(),
			Status:    "concluido",
			ChangedAt: time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC),
		}
		historyID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE stages SET status = \$1, completed = completed OR \$2 WHERE id = \$3 RETURNING completed`).
			WithArgs("concluido", true, change.StageID).
			WillReturnRows(sqlmock.NewRows([]string{"completed"}).AddRow(true))
		mock.ExpectQuery(`INSERT INTO stage_status_history`).
			WithArgs(change.StageID, "concluido", change.ChangedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(historyID.String()))
		mock.ExpectCommit()

		completed, err := s.UpdateStageStatus(context.Background(), change, true)
		require.NoError(t, err)
		assert.True(t, completed)
		assert.Equal(t, historyID, change.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("leaving completion returns the stored flag", func(t *testing.T) {
		s, mock := newStore(t)
		change := &project.StatusChange{StageID: uuid.New(), Status: "em_andamento", ChangedAt: time.Now()}

		mock.ExpectBegin()
		mock.ExpectQuery(`completed = completed OR \$2`).
			WithArgs("em_andamento", false, change.StageID).
			WillReturnRows(sqlmock.NewRows([]string{"completed"}).AddRow(true))
		mock.ExpectQuery(`INSERT INTO stage_status_history`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
		mock.ExpectCommit()

		completed, err := s.UpdateStageStatus(context.Background(), change, false)
		require.NoError(t, err)
		assert.True(t, completed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown stage rolls back", func(t *testing.T) {
		s, mock := newStore(t)
		change := &project.StatusChange{StageID: uuid.New(), Status: "concluido", ChangedAt: time.Now()}

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE stages`).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := s.UpdateStageStatus(context.Background(), change, true)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_UpdateStageFlags(t *testing.T) {
	t.Run("writes only the given flags", func(t *testing.T) {
		s, mock := newStore(t)
		st := &project.Stage{ID: uuid.New()}
		approved := true

		mock.ExpectQuery(`SET client_approved = COALESCE\(\$1, client_approved\),\s+invoice_issued = COALESCE\(\$2, invoice_issued\)`).
			WithArgs(true, nil, nil, nil, st.ID).
			WillReturnRows(sqlmock.NewRows([]string{"client_approved", "invoice_issued", "payment_received", "consultant_paid"}).
				AddRow(true, true, false, false))

		require.NoError(t, s.UpdateStageFlags(context.Background(), st, project.FlagParams{ClientApproved: &approved}))
		assert.True(t, st.ClientApproved)
		assert.True(t, st.InvoiceIssued)
		assert.False(t, st.PaymentReceived)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown stage", func(t *testing.T) {
		s, mock := newStore(t)
		st := &project.Stage{ID: uuid.New()}

		mock.ExpectQuery(`UPDATE stages`).WillReturnError(sql.ErrNoRows)

		err := s.UpdateStageFlags(context.Background(), st, project.FlagParams{})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}
