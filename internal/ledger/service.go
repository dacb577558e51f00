package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/apperr"
)

// ErrDuplicateSource is returned by CreateEntry when a row already exists for
// the entry's type and source.
var ErrDuplicateSource = errors.New("ledger entry already exists for source")

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error)
	FindBySource(ctx context.Context, typ Type, ref SourceRef) (*Entry, error)
	ListEntries(ctx context.Context, filter ListFilter) ([]*Entry, error)
	CreateEntry(ctx context.Context, e *Entry) error

	// UpdateDerived writes amount, due date, description and party only.
	UpdateDerived(ctx context.Context, e *Entry) error

	// CompareAndSetStatus writes e.Status and e.PaymentDate if the stored row is
	// still in status from. It reports whether a row was changed.
	CompareAndSetStatus(ctx context.Context, e *Entry, from Status) (bool, error)
}

// Service runs the ledger status machine.
//
// The confirmation secret is a single shared value compared in plain text. It
// confirms intent on destructive actions; it is not an authentication check.
type Service struct {
	repo   Repository
	secret string
	log    *zap.Logger
}

func NewService(repo Repository, confirmationSecret string, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		secret: confirmationSecret,
		log:    log,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.repo.GetEntry(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Entry, error) {
	return s.repo.ListEntries(ctx, filter)
}

// MarkPaidOrReceived settles a pending entry on paymentDate.
func (s *Service) MarkPaidOrReceived(ctx context.Context, id uuid.UUID, paymentDate time.Time) (*Entry, error) {
	if paymentDate.IsZero() {
		return nil, apperr.Validation("payment_date", "is required")
	}

	return s.apply(ctx, id, ActionSettle, &paymentDate)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.apply(ctx, id, ActionCancel, nil)
}

// Delete soft-deletes an entry from any status. Deleting a deleted entry
// succeeds without writing.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, secret string) (*Entry, error) {
	if err := s.confirm(secret); err != nil {
		return nil, err
	}

	return s.apply(ctx, id, ActionDelete, nil)
}

func (s *Service) Reactivate(ctx context.Context, id uuid.UUID, secret string) (*Entry, error) {
	if err := s.confirm(secret); err != nil {
		return nil, err
	}

	return s.apply(ctx, id, ActionReactivate, nil)
}

func (s *Service) Undo(ctx context.Context, id uuid.UUID, secret string) (*Entry, error) {
	if err := s.confirm(secret); err != nil {
		return nil, err
	}

	return s.apply(ctx, id, ActionUndo, nil)
}

// confirm runs before the entry is read so a mismatch says nothing about it.
func (s *Service) confirm(secret string) error {
	if secret != s.secret {
		return apperr.Unauthorized()
	}

	return nil
}

func (s *Service) apply(ctx context.Context, id uuid.UUID, action Action, paymentDate *time.Time) (*Entry, error) {
	e, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	to, err := Next(e, action)
	if err != nil {
		return nil, err
	}

	if action == ActionDelete && e.Status == StatusDeleted {
		return e, nil
	}

	from := e.Status
	updated := *e
	updated.Status = to

	switch action {
	case ActionSettle:
		updated.PaymentDate = paymentDate
	case ActionReactivate, ActionUndo:
		updated.PaymentDate = nil
	}

	ok, err := s.repo.CompareAndSetStatus(ctx, &updated, from)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, s.lostRace(ctx, id, action)
	}

	s.log.Info("ledger entry transitioned",
		zap.Stringer("entry_id", id),
		zap.String("type", string(updated.Type)),
		zap.String("action", string(action)),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	return &updated, nil
}

// lostRace re-reads an entry whose status changed between read and write.
func (s *Service) lostRace(ctx context.Context, id uuid.UUID, action Action) error {
	current, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return err
	}

	s.log.Warn("ledger transition lost to concurrent update",
		zap.Stringer("entry_id", id),
		zap.String("action", string(action)),
		zap.String("current", string(current.Status)),
	)

	return apperr.InvalidTransition("ledger entry", id, string(current.Status), string(action))
}
