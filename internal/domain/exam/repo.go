package exam

import (
	"context"

	"github.com/google/uuid"
)

// ExamRepository persists medical exams.
type ExamRepository interface {
	Create(ctx context.Context, e *MedicalExam) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalExam, error)
	ListByExpedient(ctx context.Context, expedientID uuid.UUID) ([]*MedicalExam, error)
}
