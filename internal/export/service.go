// Package export writes ledger entries out for accountants: a CSV sheet and a
// plain-text digest suitable for pasting into an email.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
)

// EntryLister is the read side of the ledger.
type EntryLister interface {
	List(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Entry, error)
}

type Service struct {
	entries EntryLister
}

func NewService(entries EntryLister) *Service {
	return &Service{entries: entries}
}

var header = []string{
	"id", "type", "status", "description", "amount", "due_date", "payment_date",
	"project_id", "stage_id", "manual_transaction_id", "series_tag",
}

// WriteCSV writes every entry matching filter to w, one row per entry in the
// order the ledger lists them. Deleted entries are left out unless the filter
// asks for them by status.
func (s *Service) WriteCSV(ctx context.Context, filter ledger.ListFilter, w io.Writer) (int, error) {
	entries, err := s.list(ctx, filter)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	for _, e := range entries {
		if err := cw.Write(record(e)); err != nil {
			return 0, fmt.Errorf("writing entry %s: %w", e.ID, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flushing csv: %w", err)
	}

	return len(entries), nil
}

// Digest renders one line per entry:
//
//	* 2024-01-31 | Diagnóstico | +1000.00 | received 2024-02-05
func (s *Service) Digest(ctx context.Context, filter ledger.ListFilter) (string, error) {
	entries, err := s.list(ctx, filter)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	for _, e := range entries {
		sign := "-"
		if e.Type == ledger.TypeReceivable {
			sign = "+"
		}

		state := string(e.Status)
		if e.PaymentDate != nil {
			state += " " + e.PaymentDate.Format("2006-01-02")
		}

		fmt.Fprintf(&sb, "* %s | %s | %s%s | %s\n",
			e.DueDate.Format("2006-01-02"), e.Description, sign, e.Amount.StringFixed(2), state)
	}

	return sb.String(), nil
}

func (s *Service) list(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Entry, error) {
	entries, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}

	if filter.Status != nil {
		return entries, nil
	}

	kept := entries[:0:0]

	for _, e := range entries {
		if e.Status != ledger.StatusDeleted {
			kept = append(kept, e)
		}
	}

	return kept, nil
}

func record(e *ledger.Entry) []string {
	paid := ""
	if e.PaymentDate != nil {
		paid = e.PaymentDate.Format("2006-01-02")
	}

	return []string{
		e.ID.String(),
		string(e.Type),
		string(e.Status),
		e.Description,
		e.Amount.StringFixed(2),
		e.DueDate.Format("2006-01-02"),
		paid,
		optional(e.Source.ProjectID),
		optional(e.Source.StageID),
		optional(e.Source.ManualTransactionID),
		e.SeriesTag,
	}
}

func optional(id *uuid.UUID) string {
	if id == nil {
		return ""
	}

	return id.String()
}
