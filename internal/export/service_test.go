package export

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
)

type fakeLister struct {
	entries []*ledger.Entry
	err     error
	got     ledger.ListFilter
}

func (f *fakeLister) List(_ context.Context, filter ledger.ListFilter) ([]*ledger.Entry, error) {
	f.got = filter
	return f.entries, f.err
}

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func fixtures() []*ledger.Entry {
	stageID, projectID, txID := uuid.New(), uuid.New(), uuid.New()
	paid := day("2024-02-05")

	return []*ledger.Entry{
		{
			ID:          uuid.New(),
			Type:        ledger.TypeReceivable,
			Status:      ledger.StatusReceived,
			Description: "Diagnóstico",
			Amount:      decimal.RequireFromString("1000"),
			DueDate:     day("2024-01-31"),
			PaymentDate: &paid,
			Source:      ledger.StageSource(stageID, projectID),
		},
		{
			ID:          uuid.New(),
			Type:        ledger.TypePayable,
			Status:      ledger.StatusPending,
			Description: "Licença; anual",
			Amount:      decimal.RequireFromString("33.3"),
			DueDate:     day("2024-02-29"),
			Source:      ledger.ManualSource(txID),
			SeriesTag:   "installment 2/3",
		},
		{
			ID:          uuid.New(),
			Type:        ledger.TypePayable,
			Status:      ledger.StatusDeleted,
			Description: "Duplicate",
			Amount:      decimal.RequireFromString("10"),
			DueDate:     day("2024-03-01"),
			Source:      ledger.ManualSource(uuid.New()),
		},
	}
}

func TestService_WriteCSV(t *testing.T) {
	entries := fixtures()
	lister := &fakeLister{entries: entries}
	svc := NewService(lister)

	var sb strings.Builder

	n, err := svc.WriteCSV(context.Background(), ledger.ListFilter{}, &sb)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "deleted entries are left out")

	r := csv.NewReader(strings.NewReader(sb.String()))
	r.Comma = ';'

	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{
		entries[0].ID.String(), "receivable", "received", "Diagnóstico", "1000.00", "2024-01-31", "2024-02-05",
		entries[0].Source.ProjectID.String(), entries[0].Source.StageID.String(), "", "",
	}, rows[1])
	assert.Equal(t, "Licença; anual", rows[2][3])
	assert.Equal(t, "33.30", rows[2][4])
	assert.Equal(t, "", rows[2][6])
	assert.Equal(t, entries[1].Source.ManualTransactionID.String(), rows[2][9])
	assert.Equal(t, "installment 2/3", rows[2][10])
}

func TestService_WriteCSV_DeletedOnRequest(t *testing.T) {
	deleted := ledger.StatusDeleted
	lister := &fakeLister{entries: fixtures()[2:]}
	svc := NewService(lister)

	var sb strings.Builder

	n, err := svc.WriteCSV(context.Background(), ledger.ListFilter{Status: &deleted}, &sb)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, &deleted, lister.got.Status)
}

func TestService_WriteCSV_ListError(t *testing.T) {
	svc := NewService(&fakeLister{err: errors.New("conn refused")})

	var sb strings.Builder

	_, err := svc.WriteCSV(context.Background(), ledger.ListFilter{}, &sb)
	require.Error(t, err)
	assert.Empty(t, sb.String())
}

func TestService_Digest(t *testing.T) {
	svc := NewService(&fakeLister{entries: fixtures()})

	got, err := svc.Digest(context.Background(), ledger.ListFilter{})
	require.NoError(t, err)

	want := "* 2024-01-31 | Diagnóstico | +1000.00 | received 2024-02-05\n" +
		"* 2024-02-29 | Licença; anual | -33.30 | pending\n"
	assert.Equal(t, want, got)
}
