package report

import (
	"time"

	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
)

// AwaitingInvoice matches stages the client approved but nobody invoiced yet.
func AwaitingInvoice(r StageRef) bool {
	return r.Stage.ClientApproved && !r.Stage.InvoiceIssued
}

func AwaitingPayment(r StageRef) bool {
	return r.Stage.InvoiceIssued && !r.Stage.PaymentReceived
}

// AwaitingConsultantPayment matches stages the client paid for whose consultant
// has not been paid.
func AwaitingConsultantPayment(r StageRef) bool {
	return r.Stage.PaymentReceived && !r.Stage.ConsultantPaid
}

func OpenReceivable(e *ledger.Entry) bool {
	return e.Type == ledger.TypeReceivable && e.Status == ledger.StatusPending
}

func OpenPayable(e *ledger.Entry) bool {
	return e.Type == ledger.TypePayable && e.Status == ledger.StatusPending
}

// OverdueEntry matches pending entries due before now.
func OverdueEntry(now time.Time) func(*ledger.Entry) bool {
	return func(e *ledger.Entry) bool {
		return e.Status == ledger.StatusPending && e.DueDate.Before(now)
	}
}
