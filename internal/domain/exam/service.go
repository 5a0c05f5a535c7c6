package exam

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrExaminerRequired = errors.New("examiner_id is required")

type Service struct {
	exams ExamRepository
}

func NewService(exams ExamRepository) *Service {
	return &Service{exams: exams}
}

// CreateExam records a clinical encounter. Vitals may be partially captured,
// but any value present must be physiologically plausible; the first
// implausible measurement is returned as an *ImplausibleMeasurementError.
func (s *Service) CreateExam(ctx context.Context, e *MedicalExam) error {
	if e.ExaminerID == "" {
		return ErrExaminerRequired
	}
	check := CheckVitals(e)
	if len(check.Implausible) > 0 {
		return check.Implausible[0]
	}
	if e.PerformedAt.IsZero() {
		e.PerformedAt = time.Now().UTC()
	}
	return s.exams.Create(ctx, e)
}

func (s *Service) GetExam(ctx context.Context, id uuid.UUID) (*MedicalExam, error) {
	return s.exams.GetByID(ctx, id)
}

func (s *Service) ListByExpedient(ctx context.Context, expedientID uuid.UUID) ([]*MedicalExam, error) {
	return s.exams.ListByExpedient(ctx, expedientID)
}
