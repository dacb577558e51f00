package report_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/project"
	"github.com/MrJamesThe3rd/stageledger/internal/report"
	"github.com/MrJamesThe3rd/stageledger/internal/status"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}

	return t
}

func entry(typ ledger.Type, st ledger.Status, amount string) *ledger.Entry {
	return &ledger.Entry{ID: uuid.New(), Type: typ, Status: st, Amount: dec(amount), DueDate: day("2024-03-01")}
}

func TestSummarize(t *testing.T) {
	entries := []*ledger.Entry{
		entry(ledger.TypeReceivable, ledger.StatusPending, "500"),
		entry(ledger.TypeReceivable, ledger.StatusReceived, "1000"),
		entry(ledger.TypeReceivable, ledger.StatusCanceled, "700"),
		entry(ledger.TypeReceivable, ledger.StatusDeleted, "900"),
		entry(ledger.TypePayable, ledger.StatusPaid, "200"),
		entry(ledger.TypePayable, ledger.StatusPending, "150"),
		entry(ledger.TypePayable, ledger.StatusDeleted, "80"),
	}

	support := dec("100")
	projects := []*project.Project{
		{
			TotalValue:             dec("10000"),
			TaxPercent:             dec("10"),
			ThirdPartyExpenses:     dec("500"),
			MainConsultantValue:    dec("3000"),
			SupportConsultantValue: &support,
		},
	}

	got := report.Summarize(entries, projects)

	assert.True(t, dec("1500").Equal(got.TotalExpected), "expected %s", got.TotalExpected)
	assert.True(t, dec("1000").Equal(got.TotalReceived))
	assert.True(t, dec("500").Equal(got.TotalPending))
	assert.True(t, dec("200").Equal(got.ConsultantPaymentsMade))
	assert.True(t, dec("150").Equal(got.ConsultantPaymentsPending))
	assert.True(t, dec("10000").Equal(got.ContractedValue))
	assert.True(t, dec("5400").Equal(got.NetValue), "net %s", got.NetValue)
}

func TestSummarize_SettlingMovesPendingToReceived(t *testing.T) {
	other := entry(ledger.TypeReceivable, ledger.StatusPending, "300")
	settled := entry(ledger.TypeReceivable, ledger.StatusPending, "1000")

	before := report.Summarize([]*ledger.Entry{other, settled}, nil)

	paid := day("2024-03-01")
	settled.Status = ledger.StatusReceived
	settled.PaymentDate = &paid

	after := report.Summarize([]*ledger.Entry{other, settled}, nil)

	assert.True(t, dec("1000").Equal(after.TotalReceived))
	assert.True(t, before.TotalExpected.Equal(after.TotalExpected))
	assert.True(t, dec("300").Equal(after.TotalPending))
}

func TestSummarize_Empty(t *testing.T) {
	got := report.Summarize(nil, nil)

	assert.True(t, got.TotalExpected.IsZero())
	assert.True(t, got.TotalPending.IsZero())
	assert.True(t, got.NetValue.IsZero())
}

func TestOverdueStages(t *testing.T) {
	catalog := status.NewCatalog([]status.Definition{
		{Name: "aguardando_pagamento"},
		{Name: "concluido", IsCompletionStatus: true},
	})
	now := day("2024-02-01")

	first := &project.Stage{ID: uuid.New(), Name: "Kickoff", Status: "aguardando_pagamento", EndDate: day("2024-01-10")}
	done := &project.Stage{ID: uuid.New(), Name: "Discovery", Status: "concluido", EndDate: day("2024-01-10")}
	future := &project.Stage{ID: uuid.New(), Name: "Rollout", Status: "em_andamento", EndDate: day("2024-03-10")}
	later := &project.Stage{ID: uuid.New(), Name: "Audit", Status: "em_andamento", EndDate: day("2023-12-01")}

	projects := []*project.Project{
		{ID: uuid.New(), Name: "ERP", Stages: []*project.Stage{first, done, future}},
		{ID: uuid.New(), Name: "Payroll", Stages: []*project.Stage{later}},
	}

	got := report.OverdueStages(catalog, projects, now)
	require.Len(t, got, 2)

	assert.Same(t, first, got[0].Stage)
	assert.Equal(t, "ERP", got[0].ProjectName)
	assert.Same(t, later, got[1].Stage)

	assert.Equal(t, []*project.Stage{first, done, future}, projects[0].Stages, "stage order must be preserved")
}

func TestStageBuckets(t *testing.T) {
	approved := &project.Stage{ID: uuid.New(), ClientApproved: true}
	invoiced := &project.Stage{ID: uuid.New(), ClientApproved: true, InvoiceIssued: true}
	paid := &project.Stage{ID: uuid.New(), ClientApproved: true, InvoiceIssued: true, PaymentReceived: true}
	settled := &project.Stage{ID: uuid.New(), ClientApproved: true, InvoiceIssued: true, PaymentReceived: true, ConsultantPaid: true}

	refs := report.Stages([]*project.Project{{ID: uuid.New(), Stages: []*project.Stage{approved, invoiced, paid, settled}}})

	type testCase struct {
		name string
		pred func(report.StageRef) bool
		want []*project.Stage
	}

	tests := []testCase{
		{name: "AwaitingInvoice", pred: report.AwaitingInvoice, want: []*project.Stage{approved}},
		{name: "AwaitingPayment", pred: report.AwaitingPayment, want: []*project.Stage{invoiced}},
		{name: "AwaitingConsultantPayment", pred: report.AwaitingConsultantPayment, want: []*project.Stage{paid}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := report.Bucket(refs, tt.pred)
			require.Len(t, got, len(tt.want))

			for i := range got {
				assert.Same(t, tt.want[i], got[i].Stage)
			}
		})
	}
}

func TestEntryBuckets(t *testing.T) {
	now := day("2024-03-15")

	openIn := entry(ledger.TypeReceivable, ledger.StatusPending, "10")
	openOut := entry(ledger.TypePayable, ledger.StatusPending, "20")
	closed := entry(ledger.TypeReceivable, ledger.StatusReceived, "30")
	notDue := entry(ledger.TypeReceivable, ledger.StatusPending, "40")
	notDue.DueDate = day("2024-04-01")

	entries := []*ledger.Entry{openIn, openOut, closed, notDue}

	assert.Equal(t, []*ledger.Entry{openIn, notDue}, report.Bucket(entries, report.OpenReceivable))
	assert.Equal(t, []*ledger.Entry{openOut}, report.Bucket(entries, report.OpenPayable))
	assert.Equal(t, []*ledger.Entry{openIn, openOut}, report.Bucket(entries, report.OverdueEntry(now)))
	assert.Empty(t, report.Bucket(entries, func(*ledger.Entry) bool { return false }))
}
