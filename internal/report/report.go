// Package report folds ledger entries and projects into read-only views. Every
// function is pure and recomputes from the full input on each call.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	"github.com/MrJamesThe3rd/stageledger/internal/project"
	"github.com/MrJamesThe3rd/stageledger/internal/status"
)

type Summary struct {
	TotalExpected             decimal.Decimal `json:"total_expected"`
	TotalReceived             decimal.Decimal `json:"total_received"`
	TotalPending              decimal.Decimal `json:"total_pending"`
	ConsultantPaymentsMade    decimal.Decimal `json:"consultant_payments_made"`
	ConsultantPaymentsPending decimal.Decimal `json:"consultant_payments_pending"`
	ContractedValue           decimal.Decimal `json:"contracted_value"`
	NetValue                  decimal.Decimal `json:"net_value"`
}

// Summarize totals receivables and payables. Deleted and canceled entries are
// not expected; pending figures are expected minus settled.
func Summarize(entries []*ledger.Entry, projects []*project.Project) Summary {
	var (
		expected, received       = decimal.Zero, decimal.Zero
		payableExpected, paidOut = decimal.Zero, decimal.Zero
		contracted, net          = decimal.Zero, decimal.Zero
	)

	for _, e := range entries {
		if !e.Status.Counts() {
			continue
		}

		switch e.Type {
		case ledger.TypeReceivable:
			expected = expected.Add(e.Amount)
			if e.Status == ledger.StatusReceived {
				received = received.Add(e.Amount)
			}
		case ledger.TypePayable:
			payableExpected = payableExpected.Add(e.Amount)
			if e.Status == ledger.StatusPaid {
				paidOut = paidOut.Add(e.Amount)
			}
		}
	}

	for _, p := range projects {
		contracted = contracted.Add(p.TotalValue)
		net = net.Add(p.NetValue())
	}

	return Summary{
		TotalExpected:             expected,
		TotalReceived:             received,
		TotalPending:              expected.Sub(received),
		ConsultantPaymentsMade:    paidOut,
		ConsultantPaymentsPending: payableExpected.Sub(paidOut),
		ContractedValue:           contracted,
		NetValue:                  net,
	}
}

// StageRef is a stage together with the project that owns it.
type StageRef struct {
	ProjectID   uuid.UUID
	ProjectName string
	Stage       *project.Stage
}

// Stages flattens every project's stages, keeping project and stage order.
func Stages(projects []*project.Project) []StageRef {
	var out []StageRef

	for _, p := range projects {
		for _, s := range p.Stages {
			out = append(out, StageRef{ProjectID: p.ID, ProjectName: p.Name, Stage: s})
		}
	}

	return out
}

// OverdueStages returns unfinished stages whose end date is before now.
func OverdueStages(c *status.Catalog, projects []*project.Project, now time.Time) []StageRef {
	return Bucket(Stages(projects), func(r StageRef) bool {
		return r.Stage.IsOverdue(c, now)
	})
}

// Bucket returns the items matching pred, in input order.
func Bucket[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0)

	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}

	return out
}
