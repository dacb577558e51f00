package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
	"github.com/MrJamesThe3rd/stageledger/internal/project"
	"github.com/MrJamesThe3rd/stageledger/internal/status"
)

// CatalogProvider loads the status catalog for the current request.
type CatalogProvider interface {
	Catalog(ctx context.Context) (*status.Catalog, error)
}

// Policy lists the non-completion stage statuses that already make money due.
// Completion statuses always do.
type Policy struct {
	ReceivableStatuses []string
	PayableStatuses    []string
}

// Deriver keeps payable and receivable rows in step with their sources. It
// only ever writes amount, due date, description and party of an existing
// row; status and payment date belong to Service.
type Deriver struct {
	repo     Repository
	catalogs CatalogProvider
	policy   Policy
	log      *zap.Logger
}

func NewDeriver(repo Repository, catalogs CatalogProvider, policy Policy, log *zap.Logger) *Deriver {
	return &Deriver{
		repo:     repo,
		catalogs: catalogs,
		policy:   policy,
		log:      log,
	}
}

// StageEntries holds the rows derived from one stage. Either may be nil.
type StageEntries struct {
	Receivable *Entry
	Payable    *Entry
}

// derived is the source-owned part of an entry.
type derived struct {
	Type        Type
	Description string
	Amount      decimal.Decimal
	DueDate     time.Time
	Party       *uuid.UUID
	SeriesTag   string

	// Initial lifecycle, used only when the row is created.
	Status      Status
	PaymentDate *time.Time
}

func (d *Deriver) DeriveFromStage(ctx context.Context, stage *project.Stage, p *project.Project) (*StageEntries, error) {
	catalog, err := d.catalogs.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	ref := StageSource(stage.ID, p.ID)
	done := catalog.IsCompletion(stage.Status)

	receivable := derived{
		Type:        TypeReceivable,
		Description: fmt.Sprintf("%s: %s", p.Name, stage.Name),
		Amount:      stage.Value,
		DueDate:     stage.EndDate,
		Party:       p.ClientID,
		Status:      StatusPending,
	}
	wantReceivable := (stage.ClientApproved || done || slices.Contains(d.policy.ReceivableStatuses, stage.Status)) &&
		receivable.Amount.IsPositive()

	consultant := stage.ConsultantID
	if consultant == nil && p.MainConsultantID != uuid.Nil {
		consultant = &p.MainConsultantID
	}

	payable := derived{
		Type:        TypePayable,
		Description: fmt.Sprintf("Consultant fee - %s: %s", p.Name, stage.Name),
		Amount:      consultantShare(stage, p),
		DueDate:     stage.EndDate,
		Party:       consultant,
		Status:      StatusPending,
	}
	wantPayable := consultant != nil &&
		(done || slices.Contains(d.policy.PayableStatuses, stage.Status)) &&
		payable.Amount.IsPositive()

	var out StageEntries

	if out.Receivable, err = d.upsert(ctx, ref, receivable, wantReceivable); err != nil {
		return nil, fmt.Errorf("deriving receivable: %w", err)
	}

	if out.Payable, err = d.upsert(ctx, ref, payable, wantPayable); err != nil {
		return nil, fmt.Errorf("deriving payable: %w", err)
	}

	return &out, nil
}

// consultantShare prorates the project's consultant value over the stage value.
func consultantShare(stage *project.Stage, p *project.Project) decimal.Decimal {
	if p.TotalValue.IsZero() {
		return decimal.Zero
	}

	return stage.Value.Mul(p.ConsultantValue()).Div(p.TotalValue).Round(2)
}

// ManualTransaction is the part of a manual transaction the ledger derives from.
type ManualTransaction struct {
	ID           uuid.UUID
	Flow         Flow
	Description  string
	Amount       decimal.Decimal
	DueDate      time.Time
	PaymentDate  *time.Time
	Status       Status
	ClientID     *uuid.UUID
	ConsultantID *uuid.UUID
	SeriesTag    string
}

func (d *Deriver) DeriveFromManualTransaction(ctx context.Context, tx ManualTransaction) (*Entry, error) {
	if !tx.Flow.IsValid() {
		return nil, apperr.Validation("type", "must be income or expense")
	}

	if !tx.Amount.IsPositive() {
		return nil, apperr.Validation("amount", "must be positive")
	}

	typ := tx.Flow.EntryType()

	want := derived{
		Type:        typ,
		Description: tx.Description,
		Amount:      tx.Amount,
		DueDate:     tx.DueDate,
		Party:       tx.ClientID,
		SeriesTag:   tx.SeriesTag,
		Status:      StatusPending,
	}

	if typ == TypePayable {
		want.Party = tx.ConsultantID
	}

	switch tx.Status {
	case "", StatusPending:
	case SettledStatus(typ):
		want.Status = tx.Status
		want.PaymentDate = tx.PaymentDate

		if want.PaymentDate == nil {
			due := tx.DueDate
			want.PaymentDate = &due
		}
	default:
		return nil, apperr.Validation("status", "%s is not valid for %s", tx.Status, tx.Flow)
	}

	return d.upsert(ctx, ManualSource(tx.ID), want, true)
}

// upsert finds the row for ref by exact source identity, rewrites its
// source-owned fields when they drifted, and creates it when missing and create
// is set.
func (d *Deriver) upsert(ctx context.Context, ref SourceRef, want derived, create bool) (*Entry, error) {
	existing, err := d.repo.FindBySource(ctx, want.Type, ref)
	if err == nil {
		return d.sync(ctx, existing, want)
	}

	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	if !create {
		return nil, nil
	}

	e := &Entry{
		Type:        want.Type,
		Description: want.Description,
		Amount:      want.Amount,
		DueDate:     want.DueDate,
		Status:      want.Status,
		PaymentDate: want.PaymentDate,
		Source:      ref,
		SeriesTag:   want.SeriesTag,
	}
	e.setParty(want.Party)

	err = d.repo.CreateEntry(ctx, e)
	if errors.Is(err, ErrDuplicateSource) {
		existing, err := d.repo.FindBySource(ctx, want.Type, ref)
		if err != nil {
			return nil, err
		}

		return d.sync(ctx, existing, want)
	}

	if err != nil {
		return nil, err
	}

	d.log.Info("ledger entry derived",
		zap.Stringer("entry_id", e.ID),
		zap.String("type", string(e.Type)),
		zap.String("amount", e.Amount.StringFixed(2)),
	)

	return e, nil
}

func (d *Deriver) sync(ctx context.Context, e *Entry, want derived) (*Entry, error) {
	if e.Amount.Equal(want.Amount) &&
		sameDay(e.DueDate, want.DueDate) &&
		e.Description == want.Description &&
		sameID(e.Party(), want.Party) {
		return e, nil
	}

	e.Amount = want.Amount
	e.DueDate = want.DueDate
	e.Description = want.Description
	e.setParty(want.Party)

	if err := d.repo.UpdateDerived(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	return ay == by && am == bm && ad == bd
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}
