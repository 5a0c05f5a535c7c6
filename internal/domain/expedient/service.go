package expedient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// TransitionHook runs after a transition has been committed. Hook failures
// never roll the transition back; the expedient keeps its new status and the
// caller decides whether to retry the side effect.
type TransitionHook func(ctx context.Context, e *Expedient) error

type Service struct {
	expedients ExpedientRepository

	onReadyForReview TransitionHook
	onValidated      TransitionHook
}

func NewService(expedients ExpedientRepository) *Service {
	return &Service{expedients: expedients}
}

// OnReadyForReview registers the hook fired on entry into READY_FOR_REVIEW.
// It is the only place a validation task may be opened from.
func (s *Service) OnReadyForReview(hook TransitionHook) { s.onReadyForReview = hook }

// OnValidated registers the hook fired on entry into VALIDATED.
func (s *Service) OnValidated(hook TransitionHook) { s.onValidated = hook }

func (s *Service) CreateExpedient(ctx context.Context, e *Expedient) error {
	if e.Folio == "" {
		return fmt.Errorf("folio is required")
	}
	if e.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if e.ClinicID == uuid.Nil {
		return fmt.Errorf("clinic_id is required")
	}
	if e.Status == "" {
		e.Status = StatusDraft
	}
	if !ValidStatus(e.Status) {
		return fmt.Errorf("invalid status: %s", e.Status)
	}
	return s.expedients.Create(ctx, e)
}

func (s *Service) GetExpedient(ctx context.Context, id uuid.UUID) (*Expedient, error) {
	return s.expedients.GetByID(ctx, id)
}

func (s *Service) GetByFolio(ctx context.Context, clinicID uuid.UUID, folio string) (*Expedient, error) {
	return s.expedients.GetByFolio(ctx, clinicID, folio)
}

func (s *Service) ListExpedients(ctx context.Context, limit, offset int) ([]*Expedient, int, error) {
	return s.expedients.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Expedient, int, error) {
	return s.expedients.ListByPatient(ctx, patientID, limit, offset)
}

// RequestTransition validates and commits a status change. On rejection the
// expedient is returned untouched alongside the error. A conditional update
// losing the race surfaces as db.ErrVersionConflict; the caller re-reads and
// retries.
func (s *Service) RequestTransition(ctx context.Context, id uuid.UUID, target Status) (*Expedient, error) {
	e, err := s.expedients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanTransition(e.Status, target); err != nil {
		return e, err
	}

	entered := e.Status != target
	if err := s.expedients.UpdateStatus(ctx, e, target); err != nil {
		return e, err
	}

	if entered {
		if err := s.fireHooks(ctx, e, target); err != nil {
			return e, err
		}
	}
	return e, nil
}

// MarkArchived soft-deletes by moving the expedient to ARCHIVED. The row is
// never removed.
func (s *Service) MarkArchived(ctx context.Context, id uuid.UUID) (*Expedient, error) {
	return s.RequestTransition(ctx, id, StatusArchived)
}

func (s *Service) CancelExpedient(ctx context.Context, id uuid.UUID) (*Expedient, error) {
	return s.RequestTransition(ctx, id, StatusCancelled)
}

func (s *Service) UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) (*Expedient, error) {
	e, err := s.expedients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Notes = notes
	if err := s.expedients.UpdateNotes(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) fireHooks(ctx context.Context, e *Expedient, target Status) error {
	switch target {
	case StatusReadyForReview:
		if s.onReadyForReview != nil {
			return s.onReadyForReview(ctx, e)
		}
	case StatusValidated:
		if s.onValidated != nil {
			return s.onValidated(ctx, e)
		}
	}
	return nil
}
