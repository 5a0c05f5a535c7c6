package study

import (
	"context"

	"github.com/google/uuid"
)

// StudyRepository persists studies and their extracted data points.
type StudyRepository interface {
	Create(ctx context.Context, s *Study) error
	GetByID(ctx context.Context, id uuid.UUID) (*Study, error)
	ListByExpedient(ctx context.Context, expedientID uuid.UUID) ([]*Study, error)
	AddDataPoint(ctx context.Context, p *ExtractedDataPoint) error
	ListDataPoints(ctx context.Context, studyID uuid.UUID) ([]*ExtractedDataPoint, error)
	ListByExpedientWithPoints(ctx context.Context, expedientID uuid.UUID) ([]*StudyWithPoints, error)
}
